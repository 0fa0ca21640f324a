package mediatype

import (
	"mime"
	"strings"
)

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".qt":   "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".m2v":  "video/mpeg",
	".3gp":  "video/3gpp",
	".3g2":  "video/3gpp2",
	".ts":   "video/mp2t",
	".mts":  "video/mp2t",
	".m2ts": "video/mp2t",
	".ogv":  "video/ogg",
	".asf":  "video/x-ms-asf",
}

// IsVideoMIME reports whether mimeType declares a video. Parameters such as
// codecs are ignored.
func IsVideoMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	if mediaType, _, err := mime.ParseMediaType(cleaned); err == nil {
		cleaned = mediaType
	}
	return strings.HasPrefix(cleaned, "video/")
}

// IsVideoExtension reports whether extension (with the dot) names a known
// video container.
func IsVideoExtension(extension string) bool {
	_, ok := videoTypes[strings.ToLower(strings.TrimSpace(extension))]
	return ok
}

// ByExtension returns the content type for extension, preferring the video
// table over the system registry. It returns "" when nothing is known.
func ByExtension(extension string) string {
	ext := strings.ToLower(strings.TrimSpace(extension))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}
