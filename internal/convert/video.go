package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// VideoInfo summarizes the probe results the pipeline cares about.
type VideoInfo struct {
	Codec        string
	Width        int
	Height       int
	CreationTime time.Time
	HasCreation  bool
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	Tags map[string]string `json:"tags"`
}

// ProbeVideo inspects a video container and reports the first video stream's
// codec plus the container creation time when present.
func (c *Converter) ProbeVideo(ctx context.Context, path string) (VideoInfo, error) {
	if strings.TrimSpace(path) == "" {
		return VideoInfo{}, errors.New("probe video: empty path")
	}
	cmd := exec.CommandContext(ctx, c.ffprobe,
		"-v", "error", "-hide_banner",
		"-show_streams", "-show_format",
		"-of", "json", "--", path) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("probe video %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := VideoInfo{}
	for _, stream := range result.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			info.Codec = strings.ToLower(stream.CodecName)
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}
	if raw, ok := result.Format.Tags["creation_time"]; ok {
		if created, parseErr := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw)); parseErr == nil {
			info.CreationTime = created.UTC()
			info.HasCreation = true
		}
	}
	return info, nil
}

// TranscodeH264 rewrites a video as MP4 with H.264 video and AAC audio so
// browsers can play it.
func (c *Converter) TranscodeH264(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, c.ffmpeg,
		"-y", "-v", "error",
		"-i", src,
		"-c:v", "libx264", "-preset", "medium", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dst) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("transcode %s: %w: %s", src, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractFrame grabs the first frame of a video as a JPEG for thumbnailing.
func (c *Converter) ExtractFrame(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, c.ffmpeg,
		"-y", "-v", "error",
		"-i", src,
		"-frames:v", "1", "-q:v", "2",
		dst) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("extract frame %s: %w: %s", src, err, strings.TrimSpace(string(output)))
	}
	return nil
}
