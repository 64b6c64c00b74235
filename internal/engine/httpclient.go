package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	stealth "github.com/anatolykoptev/go-stealth"
	"golang.org/x/net/publicsuffix"
)

// maxPageBytes caps a fetched search-results page.
const maxPageBytes = 4 << 20

// PageFetcher retrieves an HTML page the way a desktop browser would.
// Returns body bytes, HTTP status code, and any error.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string, headers map[string]string) ([]byte, int, error)
}

// BrowserHeaders returns the desktop-browser headers sent with page fetches.
// Platforms serve stripped pages to default or bot user agents.
func BrowserHeaders() map[string]string {
	return map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
		"user-agent":      UserAgentChrome,
	}
}

// HTTPPageFetcher fetches pages with net/http and keeps cookies between
// requests (consent interstitials set them on the first hit).
type HTTPPageFetcher struct {
	client *http.Client
}

// NewHTTPPageFetcher wraps base with a public-suffix aware cookie jar.
// base is copied; its transport and timeout are kept.
func NewHTTPPageFetcher(base *http.Client) *HTTPPageFetcher {
	c := *base
	if c.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err == nil {
			c.Jar = jar
		}
	}
	return &HTTPPageFetcher{client: &c}
}

// FetchPage implements PageFetcher.
func (f *HTTPPageFetcher) FetchPage(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// StealthFetcher fetches pages through go-stealth's Chrome TLS fingerprint
// client (optionally behind a rotating proxy pool).
type StealthFetcher struct {
	do func(url string, headers map[string]string) ([]byte, int, error)
}

// NewStealthFetcher wraps a configured stealth client.
func NewStealthFetcher(bc *stealth.BrowserClient) *StealthFetcher {
	return &StealthFetcher{do: func(url string, headers map[string]string) ([]byte, int, error) {
		data, _, status, err := bc.Do(http.MethodGet, url, headers, nil)
		return data, status, err
	}}
}

type stealthResult struct {
	data   []byte
	status int
	err    error
}

// FetchPage implements PageFetcher. The stealth client takes no context, so
// the request runs in its own goroutine and ctx bounds the wait; an abandoned
// request ends on the client's own timeout.
func (f *StealthFetcher) FetchPage(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	h := stealth.ChromeHeaders()
	for k, v := range headers {
		if k == "user-agent" {
			continue // keep the fingerprint-matched UA
		}
		h[k] = v
	}

	done := make(chan stealthResult, 1)
	go func() {
		data, status, err := f.do(url, h)
		done <- stealthResult{data: data, status: status, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("stealth fetch: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, r.status, fmt.Errorf("stealth fetch: %w", r.err)
		}
		return r.data, r.status, nil
	}
}

// NoRedirectClient returns a copy of base that reports redirects instead of
// following them, for hop-by-hop resolution.
func NoRedirectClient(base *http.Client) *http.Client {
	c := *base
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}
