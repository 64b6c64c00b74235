package sources

// YouTube support is split across four files by responsibility:
//   youtube.go          host set, video-ID patterns, canonical watch URLs
//   youtube_search.go   results-page scraper (inline script data)
//   youtube_oembed.go   oEmbed verifier
//   youtube_grounded.go model web search with citation mining

import (
	"net/url"
	"regexp"
	"strings"
)

// youtubeHosts are the hosts that serve playable YouTube content.
var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// videoIDRE matches watch-page and short-link URL shapes.
var videoIDRE = regexp.MustCompile(`(?:youtube\.com/watch\?(?:[^\s"'<>]*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// videoURLRE finds watch-page and short-link URLs in free text.
var videoURLRE = regexp.MustCompile(`https?://(?:(?:www|m|music)\.)?(?:youtube\.com/watch\?[^\s"'<>)\]]*v=|youtu\.be/)[a-zA-Z0-9_-]{11}`)

// IsYouTubeHost reports whether rawURL's host belongs to the video platform.
func IsYouTubeHost(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	return youtubeHosts[strings.ToLower(u.Hostname())]
}

// ExtractVideoID pulls the 11-char video ID from a watch or short-link URL.
func ExtractVideoID(rawURL string) string {
	if !IsYouTubeHost(rawURL) {
		return ""
	}
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) >= 2 {
		return m[1]
	}
	return ""
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// findVideoURLs scans free text for platform URLs, in order of appearance.
func findVideoURLs(text string) []string {
	return videoURLRE.FindAllString(text, -1)
}
