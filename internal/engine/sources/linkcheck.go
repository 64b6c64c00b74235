package sources

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anatolykoptev/go_garbh/internal/engine"
)

// LinkValidator checks that an arbitrary URL is reachable. A HEAD probe runs
// first; any failure falls back to a streamed GET, since some origins reject
// HEAD outright. Redirects are followed by the client.
type LinkValidator struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewLinkValidator builds a validator from the engine configuration.
func NewLinkValidator() *LinkValidator {
	return &LinkValidator{
		Client:  engine.Cfg.HTTPClient,
		Timeout: engine.Cfg.VerifyTimeout,
	}
}

// Validate returns true iff either probe yields status 200.
func (v *LinkValidator) Validate(ctx context.Context, rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if ok, hit := engine.CacheGetVerdict(ctx, engine.VerdictLink, rawURL); hit {
		return ok
	}

	ok, _ := v.probe(ctx, http.MethodHead, rawURL)
	answered := true
	if !ok {
		ok, answered = v.probe(ctx, http.MethodGet, rawURL)
	}
	engine.IncrValidation(ok)
	// A negative verdict is cached only when the GET fallback got a status back.
	if answered {
		engine.CacheSetVerdict(ctx, engine.VerdictLink, rawURL, ok)
	}
	return ok
}

// probe issues one request and reports whether it answered 200, and whether
// it got any status at all. GET bodies are closed unread.
func (v *LinkValidator) probe(ctx context.Context, method, rawURL string) (ok, answered bool) {
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = engine.DefaultVerifyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := engine.WaitHost(ctx, rawURL); err != nil {
		return false, false
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return false, false
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	resp, err := v.Client.Do(req)
	if err != nil {
		slog.Debug("linkcheck: probe failed", slog.String("method", method), slog.String("url", rawURL), slog.Any("error", err))
		return false, false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, true
}
