package convert

import "strings"

// contentTypes maps file extensions to the content type the remote store
// should record. Unknown extensions fall back to binary/octet-stream.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".heic": "image/heic",
	".heif": "image/heif",
	".webp": "image/webp",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
}

// FallbackContentType is what object stores report when the real type was
// never set at upload time.
const FallbackContentType = "binary/octet-stream"

// ContentTypeForExtension returns the content type for a file extension
// (with or without the leading dot).
func ContentTypeForExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return FallbackContentType
}
