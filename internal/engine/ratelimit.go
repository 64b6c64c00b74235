package engine

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiters paces outbound probes per host so candidate verification
// never hammers a single origin.
var hostLimiters sync.Map // host → *rate.Limiter

// WaitHost blocks until a request to rawURL's host is allowed.
// A zero or negative OutboundRPS disables pacing.
func WaitHost(ctx context.Context, rawURL string) error {
	if cfg.OutboundRPS <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	burst := int(cfg.OutboundRPS)
	if burst < 1 {
		burst = 1
	}
	l, _ := hostLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(cfg.OutboundRPS), burst))
	return l.(*rate.Limiter).Wait(ctx)
}

// resetLimiters drops all per-host limiters. Used when Init changes OutboundRPS.
func resetLimiters() {
	hostLimiters.Range(func(k, _ any) bool {
		hostLimiters.Delete(k)
		return true
	})
}
