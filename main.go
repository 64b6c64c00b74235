// go_garbh: GarbhVeda content and media-link MCP server.
//
// Exposes tools that generate daily Garbh Sanskar content through Gemini or
// Groq and find verified, playable media links for raagas, mantras and
// activities. Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"
	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/anatolykoptev/go_garbh/internal/engine/media"
	"github.com/anatolykoptev/go_garbh/internal/garbhserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	// .env.local first: godotenv never overrides a variable that is already set.
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err == nil {
			slog.Debug("env file loaded", slog.String("file", f))
		}
	}
	initLogging(env.Str("LOG_LEVEL", "info"))

	mcpPort := env.Str("MCP_PORT", "8893")
	initEngine()
	defer closeHistory()

	slog.Info("starting go_garbh",
		slog.String("port", mcpPort),
		slog.String("provider", string(engine.CurrentProvider().Provider)),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_garbh",
		Version: version,
	}, nil)

	garbhserver.RegisterTools(server, garbhserver.NewServices())
	slog.Info("tools registered", slog.Int("count", garbhserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_garbh",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func initEngine() {
	geminiKey := env.Str("GEMINI_API_KEY", "")
	if geminiKey == "" {
		geminiKey = env.Str("VITE_GEMINI_API_KEY", "")
	}

	c := engine.Config{
		GeminiAPIKey:   geminiKey,
		GroqAPIKey:     env.Str("GROQ_API_KEY", ""),
		GroqAPIBase:    env.Str("GROQ_API_BASE", engine.DefaultGroqAPIBase),
		LLMTemperature: env.Float("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   env.Int("LLM_MAX_TOKENS", 4096),
		ModelTimeout:   env.Duration("MODEL_TIMEOUT", engine.DefaultModelTimeout),
		VerifyTimeout:  env.Duration("VERIFY_TIMEOUT", engine.DefaultVerifyTimeout),
		ScrapeTimeout:  env.Duration("SCRAPE_TIMEOUT", engine.DefaultScrapeTimeout),
		CandidateLimit: env.Int("CANDIDATE_LIMIT", engine.DefaultCandidateLimit),
		VerifyQuorum:   env.Int("VERIFY_QUORUM", engine.DefaultVerifyQuorum),
		ResourceQuorum: env.Int("RESOURCE_QUORUM", engine.DefaultResourceQuorum),
		OutboundRPS:    env.Float("OUTBOUND_RPS", 5),
		HistoryDBPath:  env.Str("HISTORY_DB", defaultHistoryPath()),
		DatabaseURL:    env.Str("DATABASE_URL", ""),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(15))

	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Warn("stealth client init failed, scraping with plain HTTP", slog.Any("error", err))
	} else {
		c.PageFetcher = engine.NewStealthFetcher(bc)
		slog.Info("stealth browser client initialized")
	}

	engine.Init(c)

	if _, err := engine.UpdateProvider(engine.ProviderUpdate{
		Provider:  env.Str("MODEL_PROVIDER", string(engine.ProviderGemini)),
		ModelName: env.Str("MODEL_NAME", ""),
	}); err != nil {
		slog.Warn("MODEL_PROVIDER ignored", slog.Any("error", err))
		engine.UpdateProvider(engine.ProviderUpdate{Provider: string(engine.ProviderGemini)})
	}

	engine.InitCache(env.Str("REDIS_URL", ""), env.Duration("CACHE_TTL", 15*time.Minute), env.Int("CACHE_MAX_ENTRIES", 1000))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h, err := media.OpenHistory(ctx, c.DatabaseURL, c.HistoryDBPath)
	if err != nil {
		slog.Warn("link history unavailable, using caller exclusions only", slog.Any("error", err))
		return
	}
	media.SetHistory(h)
	slog.Info("link history initialized", slog.Bool("postgres", c.DatabaseURL != ""))
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "garbhveda", "history.db")
	}
	return filepath.Join(home, ".garbhveda", "history.db")
}

func closeHistory() {
	if h := media.GetHistory(); h != nil {
		if err := h.Close(); err != nil {
			slog.Warn("link history close failed", slog.Any("error", err))
		}
	}
}
