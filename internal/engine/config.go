package engine

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Config holds static engine configuration, injected from main.
type Config struct {
	GeminiAPIKey   string
	GroqAPIKey     string
	GroqAPIBase    string
	LLMTemperature float64
	LLMMaxTokens   int
	ModelTimeout   time.Duration
	VerifyTimeout  time.Duration // oEmbed lookups, link probes, redirect hops
	ScrapeTimeout  time.Duration // search-results page fetch
	CandidateLimit int           // scraped candidates per discovery attempt
	VerifyQuorum   int           // verified candidates that end a discovery attempt
	ResourceQuorum int           // valid resources the repair pipeline tops up to
	OutboundRPS    float64       // per-host pacing for verifier/validator probes
	HTTPClient     *http.Client
	PageFetcher    PageFetcher // nil = HTTPPageFetcher over HTTPClient
	HistoryDBPath  string
	DatabaseURL    string
}

// Defaults for zero-valued Config fields.
const (
	DefaultVerifyTimeout  = 5 * time.Second
	DefaultScrapeTimeout  = 10 * time.Second
	DefaultModelTimeout   = 60 * time.Second
	DefaultCandidateLimit = 10
	DefaultVerifyQuorum   = 3
	DefaultResourceQuorum = 3
	DefaultGroqAPIBase    = "https://api.groq.com/openai/v1"
)

var cfg = withDefaults(Config{})

// Cfg exposes the engine configuration for sub-packages (sources, media, content).
// Always points to the current cfg value.
var Cfg = &cfg

// Init installs the static configuration. Call once from main before serving.
func Init(c Config) {
	cfg = withDefaults(c)
	Cfg = &cfg
	resetLimiters()
}

func withDefaults(c Config) Config {
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = DefaultVerifyTimeout
	}
	if c.ScrapeTimeout <= 0 {
		c.ScrapeTimeout = DefaultScrapeTimeout
	}
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = DefaultModelTimeout
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = DefaultCandidateLimit
	}
	if c.VerifyQuorum <= 0 {
		c.VerifyQuorum = DefaultVerifyQuorum
	}
	if c.ResourceQuorum <= 0 {
		c.ResourceQuorum = DefaultResourceQuorum
	}
	if c.GroqAPIBase == "" {
		c.GroqAPIBase = DefaultGroqAPIBase
	}
	if c.LLMMaxTokens <= 0 {
		c.LLMMaxTokens = 4096
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.PageFetcher == nil {
		c.PageFetcher = NewHTTPPageFetcher(c.HTTPClient)
	}
	return c
}

// --- Provider selection ---

// Provider names a language-model backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGroq   Provider = "groq"
)

// DefaultModel returns the model used when none is configured for p.
func DefaultModel(p Provider) string {
	if p == ProviderGroq {
		return "llama-3.3-70b-versatile"
	}
	return "gemini-2.0-flash"
}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(s) {
	case ProviderGemini, ProviderGroq:
		return Provider(s), true
	}
	return "", false
}

// ProviderSettings is an immutable snapshot of the current model selection.
// A snapshot is never modified after it is published; updates publish a new one.
type ProviderSettings struct {
	Provider     Provider `json:"model_provider"`
	ModelName    string   `json:"model_name"`
	GroqAPIKey   string   `json:"-"`
	HasGroqKey   bool     `json:"has_groq_key"`
	GeminiAPIKey string   `json:"-"`

	generator Generator // nil when the selected provider has no credential
}

// Generator returns the snapshot's generator, or ErrNoProvider.
func (s *ProviderSettings) Generator() (Generator, error) {
	if s == nil || s.generator == nil {
		return nil, ErrNoProvider
	}
	return s.generator, nil
}

var current atomic.Pointer[ProviderSettings]

// CurrentProvider returns the live provider snapshot.
func CurrentProvider() *ProviderSettings {
	if s := current.Load(); s != nil {
		return s
	}
	return &ProviderSettings{Provider: ProviderGemini, ModelName: DefaultModel(ProviderGemini)}
}

// ProviderUpdate is a partial change to the provider selection.
// Empty fields keep the previous value; an empty GroqAPIKey falls back to the
// key from the environment.
type ProviderUpdate struct {
	Provider   string
	ModelName  string
	GroqAPIKey string
}

// UpdateProvider builds a fresh snapshot (and generator) and swaps it in.
func UpdateProvider(u ProviderUpdate) (*ProviderSettings, error) {
	prev := CurrentProvider()
	next := ProviderSettings{
		Provider:     prev.Provider,
		ModelName:    prev.ModelName,
		GroqAPIKey:   prev.GroqAPIKey,
		GeminiAPIKey: prev.GeminiAPIKey,
	}
	if u.Provider != "" {
		p, ok := ParseProvider(u.Provider)
		if !ok {
			return prev, fmt.Errorf("invalid provider %q", u.Provider)
		}
		if p != next.Provider && u.ModelName == "" {
			next.ModelName = DefaultModel(p)
		}
		next.Provider = p
	}
	if u.ModelName != "" {
		next.ModelName = u.ModelName
	}
	if u.GroqAPIKey != "" {
		next.GroqAPIKey = u.GroqAPIKey
	} else if next.GroqAPIKey == "" {
		next.GroqAPIKey = cfg.GroqAPIKey
	}
	if next.GeminiAPIKey == "" {
		next.GeminiAPIKey = cfg.GeminiAPIKey
	}
	if next.ModelName == "" {
		next.ModelName = DefaultModel(next.Provider)
	}
	next.HasGroqKey = next.GroqAPIKey != ""

	gen, err := newGenerator(next)
	if err != nil {
		slog.Warn("provider: generator unavailable",
			slog.String("provider", string(next.Provider)), slog.Any("error", err))
	}
	next.generator = gen
	current.Store(&next)
	slog.Info("provider: config updated",
		slog.String("provider", string(next.Provider)), slog.String("model", next.ModelName))
	return &next, nil
}

// SetGenerator publishes a snapshot backed by gen. Used by tests and by callers
// that construct generators themselves.
func SetGenerator(p Provider, model string, gen Generator) {
	current.Store(&ProviderSettings{Provider: p, ModelName: model, generator: gen})
}
