package convert

import (
	"log/slog"
	"strings"

	"dugout/internal/config"
	"dugout/internal/logging"
)

// Converter wraps the external tools used to reshape media files.
type Converter struct {
	logger  *slog.Logger
	magick  string
	ffmpeg  string
	ffprobe string
}

// New builds a converter using the binaries named in the configuration.
func New(cfg *config.Config, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Converter{
		logger:  logging.NewComponentLogger(logger, "convert"),
		magick:  cfg.MagickBinary(),
		ffmpeg:  cfg.FFmpegBinary(),
		ffprobe: cfg.FFprobeBinary(),
	}
}

var jpegFormats = map[string]bool{
	"jpeg": true,
	"jpg":  true,
}

// IsJPEGFormat reports whether a probed image format name is already JPEG.
func IsJPEGFormat(format string) bool {
	return jpegFormats[strings.ToLower(strings.TrimSpace(format))]
}
