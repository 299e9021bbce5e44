// Package convert turns uploaded media into web-friendly formats. Image
// probing and JPEG conversion shell out to ImageMagick, video probing and
// transcoding shell out to ffprobe/ffmpeg, and thumbnails are generated
// in-process. All subprocess calls honor the caller's context.
package convert
