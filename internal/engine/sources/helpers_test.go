package sources

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anatolykoptev/go_garbh/internal/engine"
)

// countingTransport answers every request with status and counts calls.
type countingTransport struct {
	calls  atomic.Int64
	status func(*http.Request) int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	code := http.StatusOK
	if c.status != nil {
		code = c.status(r)
	}
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
		Header:     http.Header{},
		Request:    r,
	}, nil
}

// staticFetcher serves a fixed page body.
type staticFetcher struct {
	body   string
	status int
	err    error
	urls   []string
}

func (f *staticFetcher) FetchPage(_ context.Context, url string, _ map[string]string) ([]byte, int, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, 0, f.err
	}
	return []byte(f.body), f.status, nil
}

// withVerdictCache installs an empty in-memory cache for the test.
func withVerdictCache(t *testing.T) {
	t.Helper()
	engine.InitCache("", 15*time.Minute, 100)
	t.Cleanup(func() { engine.InitCache("", 15*time.Minute, 100) })
}

// slowHandler never answers before the client gives up.
func slowHandler(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(2 * time.Second):
	}
}
