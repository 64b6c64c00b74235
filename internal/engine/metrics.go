package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	LLMCalls            atomic.Int64
	LLMErrors           atomic.Int64
	RateLimited         atomic.Int64
	ScrapeRequests      atomic.Int64
	ScrapeErrors        atomic.Int64
	GroundedSearches    atomic.Int64
	RedirectResolves    atomic.Int64
	Verifications       atomic.Int64
	VerificationsPassed atomic.Int64
	Validations         atomic.Int64
	ValidationsPassed   atomic.Int64
	DiscoveryCalls      atomic.Int64
	DiscoveryUnverified atomic.Int64
	DiscoveryFallbacks  atomic.Int64
	RepairCycles        atomic.Int64
	ResourceFallbacks   atomic.Int64
}

var metricKeys = []string{
	"llm_calls", "llm_errors", "rate_limited",
	"scrape_requests", "scrape_errors",
	"grounded_searches", "redirect_resolves",
	"verifications", "verifications_passed",
	"validations", "validations_passed",
	"discovery_calls", "discovery_unverified", "discovery_fallbacks",
	"repair_cycles", "resource_fallbacks",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"rate_limited":         metrics.RateLimited.Load(),
		"scrape_requests":      metrics.ScrapeRequests.Load(),
		"scrape_errors":        metrics.ScrapeErrors.Load(),
		"grounded_searches":    metrics.GroundedSearches.Load(),
		"redirect_resolves":    metrics.RedirectResolves.Load(),
		"verifications":        metrics.Verifications.Load(),
		"verifications_passed": metrics.VerificationsPassed.Load(),
		"validations":          metrics.Validations.Load(),
		"validations_passed":   metrics.ValidationsPassed.Load(),
		"discovery_calls":      metrics.DiscoveryCalls.Load(),
		"discovery_unverified": metrics.DiscoveryUnverified.Load(),
		"discovery_fallbacks":  metrics.DiscoveryFallbacks.Load(),
		"repair_cycles":        metrics.RepairCycles.Load(),
		"resource_fallbacks":   metrics.ResourceFallbacks.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ and media/ sub-packages.
func IncrScrape()              { metrics.ScrapeRequests.Add(1) }
func IncrScrapeError()         { metrics.ScrapeErrors.Add(1) }
func IncrGroundedSearch()      { metrics.GroundedSearches.Add(1) }
func IncrRedirectResolve()     { metrics.RedirectResolves.Add(1) }
func IncrDiscovery()           { metrics.DiscoveryCalls.Add(1) }
func IncrDiscoveryUnverified() { metrics.DiscoveryUnverified.Add(1) }
func IncrDiscoveryFallback()   { metrics.DiscoveryFallbacks.Add(1) }
func IncrRepairCycle()         { metrics.RepairCycles.Add(1) }
func IncrResourceFallback()    { metrics.ResourceFallbacks.Add(1) }

// IncrVerification records one verifier verdict.
func IncrVerification(ok bool) {
	metrics.Verifications.Add(1)
	if ok {
		metrics.VerificationsPassed.Add(1)
	}
}

// IncrValidation records one link-validator verdict.
func IncrValidation(ok bool) {
	metrics.Validations.Add(1)
	if ok {
		metrics.ValidationsPassed.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 20*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
