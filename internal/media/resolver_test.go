package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"image/png":                KindImage,
		"image/jpeg":               KindImage,
		"video/mp4":                KindVideo,
		"audio/mpeg":               KindAudio,
		"application/pdf":          KindDocument,
		"text/plain":               KindDocument,
		"application/octet-stream": KindDocument,
		"":                         KindDocument,
	}
	for contentType, want := range cases {
		assert.Equal(t, want, Classify(contentType), "content type %q", contentType)
	}
}

func TestSniffDetectsPNG(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	assert.Equal(t, "image/png", Sniff(png))
}
