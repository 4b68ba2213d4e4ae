package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Attachment kinds.
const (
	KindImage    = "image"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindDocument = "document"
)

// Classify maps a content type to an attachment kind. Unrecognized content
// types fall back to document.
func Classify(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo
	case strings.HasPrefix(contentType, "audio/"):
		return KindAudio
	default:
		return KindDocument
	}
}

// Sniff detects the content type of uploaded bytes. Used when a client omits
// the Content-Type part on an upload.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}
