package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=30", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/results?search_query=raag", ""},
		{"https://vimeo.com/watch?v=dQw4w9WgXcQ", ""},
		{"https://evil.example/youtube.com/watch?v=dQw4w9WgXcQ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestIsYouTubeHost(t *testing.T) {
	assert.True(t, IsYouTubeHost("https://music.youtube.com/watch?v=abc"))
	assert.True(t, IsYouTubeHost("https://WWW.YouTube.com/"))
	assert.False(t, IsYouTubeHost("https://youtube.com.evil.example/watch"))
	assert.False(t, IsYouTubeHost("not a url"))
}

func TestFindVideoURLs(t *testing.T) {
	text := "Try https://www.youtube.com/watch?v=aaaaaaaaaaa (calming) or https://youtu.be/bbbbbbbbbbb, " +
		"not https://example.com/watch?v=ccccccccccc."
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://youtu.be/bbbbbbbbbbb",
	}, findVideoURLs(text))
}
