package convert

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// exifTimeLayout is the timestamp layout ImageMagick reports for
// EXIF:DateTimeOriginal.
const exifTimeLayout = "2006:01:02 15:04:05"

// ProbeImageFormat returns the image format name (JPEG, HEIC, PNG, ...)
// reported by ImageMagick.
func (c *Converter) ProbeImageFormat(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("probe image: empty path")
	}
	cmd := exec.CommandContext(ctx, c.magick, "identify", "-format", "%m", path+"[0]") //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("probe image %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// ImageCaptureTime extracts EXIF DateTimeOriginal from a photo. The second
// return value is false when the photo carries no usable timestamp.
func (c *Converter) ImageCaptureTime(ctx context.Context, path string) (time.Time, bool, error) {
	cmd := exec.CommandContext(ctx, c.magick, "identify", "-format", "%[EXIF:DateTimeOriginal]", path+"[0]") //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read exif %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}
	raw := strings.TrimSpace(string(output))
	if raw == "" {
		return time.Time{}, false, nil
	}
	captured, err := time.ParseInLocation(exifTimeLayout, raw, time.UTC)
	if err != nil {
		c.logger.Warn("unparseable exif timestamp", "path", path, "value", raw)
		return time.Time{}, false, nil
	}
	return captured, true, nil
}

// CreateJPEG converts any image ImageMagick can read into a JPEG at dst.
func (c *Converter) CreateJPEG(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, c.magick, src+"[0]", "-auto-orient", "-quality", "90", dst) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("convert %s to jpeg: %w: %s", src, err, strings.TrimSpace(string(output)))
	}
	return nil
}
