package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_garbh/internal/engine"
)

// Direct Search Scraper: fetches the platform's search-results page and mines
// video IDs from the inline script data. The visible HTML does not carry them.

const (
	ytResultsURL        = "https://www.youtube.com/results"
	ytInitialDataMarker = "var ytInitialData = "
)

var scriptVideoIDRE = regexp.MustCompile(`"videoId":"([a-zA-Z0-9_-]{11})"`)

// Scraper is the primary discovery strategy. It needs no model call.
type Scraper struct {
	Fetcher engine.PageFetcher
	BaseURL string // search-results endpoint; query goes in search_query
	Timeout time.Duration
}

// NewScraper builds a scraper from the engine configuration.
func NewScraper() *Scraper {
	return &Scraper{
		Fetcher: engine.Cfg.PageFetcher,
		BaseURL: ytResultsURL,
		Timeout: engine.Cfg.ScrapeTimeout,
	}
}

// Name implements the discovery strategy interface.
func (s *Scraper) Name() string { return "scraper" }

// Discover implements the discovery strategy interface. Exclusions are left to
// the caller, which skips them while verifying.
func (s *Scraper) Discover(ctx context.Context, query string, _ []string, limit int) engine.Candidates {
	return s.Search(ctx, query, limit)
}

// Search returns up to limit distinct candidates in the platform's result order.
// Network and parse failures yield the failed variant with no results.
func (s *Scraper) Search(ctx context.Context, query string, limit int) engine.Candidates {
	engine.IncrScrape()
	if limit <= 0 {
		limit = engine.Cfg.CandidateLimit
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return engine.Candidates{}
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = engine.DefaultScrapeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pageURL := engine.SearchQueryURL(s.BaseURL, "search_query", query)
	body, status, err := s.Fetcher.FetchPage(ctx, pageURL, engine.BrowserHeaders())
	if err == nil && status != 200 {
		err = fmt.Errorf("status %d", status)
	}
	if err != nil {
		engine.IncrScrapeError()
		slog.Debug("scraper: fetch failed", slog.String("query", query), slog.Any("error", err))
		return engine.FailedCandidates(fmt.Errorf("youtube search page: %w", err))
	}

	results := ParseSearchPage(body, limit)
	slog.Debug("scraper: candidates", slog.String("query", query), slog.Int("count", len(results)))
	return engine.Candidates{Results: results}
}

// ParseSearchPage extracts deduplicated candidates from a results page,
// preserving first-seen order and truncating to limit.
func ParseSearchPage(body []byte, limit int) []engine.SearchResult {
	scripts := inlineScripts(body)
	if len(scripts) == 0 {
		scripts = []string{string(body)}
	}

	titles := map[string]string{}
	seen := map[string]bool{}
	var results []engine.SearchResult
	for _, script := range scripts {
		if idx := strings.Index(script, ytInitialDataMarker); idx >= 0 {
			collectTitles(script[idx+len(ytInitialDataMarker):], titles)
		}
		for _, m := range scriptVideoIDRE.FindAllStringSubmatch(script, -1) {
			id := m[1]
			if seen[id] {
				continue
			}
			seen[id] = true
			results = append(results, engine.SearchResult{ID: id, URL: WatchURL(id)})
			if len(results) >= limit {
				break
			}
		}
		if len(results) >= limit {
			break
		}
	}
	for i := range results {
		results[i].Title = titles[results[i].ID]
	}
	return results
}

// inlineScripts returns the bodies of <script> elements without a src.
func inlineScripts(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, ok := sel.Attr("src"); ok {
			return
		}
		if text := sel.Text(); strings.Contains(text, `"videoId"`) {
			out = append(out, text)
		}
	})
	return out
}

// ytVideoRenderer is the subset of ytInitialData's videoRenderer we read.
type ytVideoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
}

// collectTitles decodes the ytInitialData object at the start of s and records
// each videoRenderer title by video ID. Titles are optional; errors are ignored.
func collectTitles(s string, titles map[string]string) {
	var root json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s)).Decode(&root); err != nil {
		return
	}
	var walk func(v json.RawMessage)
	walk = func(v json.RawMessage) {
		switch {
		case len(v) > 0 && v[0] == '{':
			var obj map[string]json.RawMessage
			if json.Unmarshal(v, &obj) != nil {
				return
			}
			if raw, ok := obj["videoRenderer"]; ok {
				var vr ytVideoRenderer
				if json.Unmarshal(raw, &vr) == nil && vr.VideoID != "" && len(vr.Title.Runs) > 0 {
					if _, dup := titles[vr.VideoID]; !dup {
						titles[vr.VideoID] = vr.Title.Runs[0].Text
					}
					return
				}
			}
			for _, child := range obj {
				walk(child)
			}
		case len(v) > 0 && v[0] == '[':
			var arr []json.RawMessage
			if json.Unmarshal(v, &arr) != nil {
				return
			}
			for _, item := range arr {
				walk(item)
			}
		}
	}
	walk(root)
}
