package sources

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anatolykoptev/go_garbh/internal/engine"
)

const ytOEmbedURL = "https://www.youtube.com/oembed"

// Verifier confirms a URL points at live, embeddable video content via the
// platform's oEmbed endpoint. It never retries.
type Verifier struct {
	Client   *http.Client
	Endpoint string
	Timeout  time.Duration
}

// NewVerifier builds a verifier from the engine configuration.
func NewVerifier() *Verifier {
	return &Verifier{
		Client:   engine.Cfg.HTTPClient,
		Endpoint: ytOEmbedURL,
		Timeout:  engine.Cfg.VerifyTimeout,
	}
}

// Verify reports whether rawURL is a playable video. Empty input and hosts
// outside the platform are rejected without a network call.
func (v *Verifier) Verify(ctx context.Context, rawURL string) bool {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || !IsYouTubeHost(rawURL) {
		return false
	}
	if ok, hit := engine.CacheGetVerdict(ctx, engine.VerdictEmbed, rawURL); hit {
		return ok
	}

	ok, answered := v.lookup(ctx, rawURL)
	engine.IncrVerification(ok)
	if answered {
		engine.CacheSetVerdict(ctx, engine.VerdictEmbed, rawURL, ok)
	}
	return ok
}

// lookup reports the verdict and whether the endpoint answered with a status.
// Timeouts and transport errors are unanswered and must not be cached.
func (v *Verifier) lookup(ctx context.Context, rawURL string) (ok, answered bool) {
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = engine.DefaultVerifyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := engine.WaitHost(ctx, v.Endpoint); err != nil {
		return false, false
	}
	endpoint := v.Endpoint + "?format=json&url=" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, false
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)
	resp, err := v.Client.Do(req)
	if err != nil {
		slog.Debug("verifier: oembed failed", slog.String("url", rawURL), slog.Any("error", err))
		return false, false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		slog.Debug("verifier: rejected", slog.String("url", rawURL), slog.Int("status", resp.StatusCode))
		return false, true
	}
	return true, true
}
