// Package toolutil provides shared helper functions for go_garbh MCP tools.
package toolutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/anatolykoptev/go_garbh/internal/engine/media"
)

// TryAgainLater is the user-facing message for a provider rate limit.
const TryAgainLater = "GarbhVeda is taking a short breath (model provider rate limit). Please try again in a minute."

// CacheLoadJSON tries to load a cached value of type T from the engine cache.
// Returns the decoded value and true on hit; zero value and false on miss or decode error.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	cached, ok := engine.CacheGet(ctx, key)
	if !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(cached, &out); err != nil {
		return zero, false
	}
	return out, true
}

// CacheStoreJSON marshals v and stores it in the engine cache.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	engine.CacheSet(ctx, key, data)
}

// Session resolves the caller's session id and exclusion list. A missing or
// malformed id gets a fresh one; the exclusions are the caller's URLs plus
// the links already shown to the session.
func Session(ctx context.Context, sessionID string, exclude []string) (string, []string) {
	if !media.ValidSessionID(sessionID) {
		if sessionID != "" {
			slog.Debug("toolutil: replacing malformed session id", slog.String("session", sessionID))
		}
		return media.NewSessionID(), append([]string(nil), exclude...)
	}
	return sessionID, media.ExclusionsFor(ctx, media.GetHistory(), sessionID, exclude)
}

// Remember records links returned to the session.
func Remember(ctx context.Context, sessionID string, links ...engine.DiscoveredLink) {
	media.RecordShown(ctx, media.GetHistory(), sessionID, links...)
}

// ToolError maps a generator error to the error returned to the MCP client.
// Rate limits get the distinct try-again-later message.
func ToolError(op string, err error) error {
	if errors.Is(err, engine.ErrRateLimited) {
		return fmt.Errorf("%s: %w", TryAgainLater, err)
	}
	if errors.Is(err, engine.ErrNoProvider) {
		return fmt.Errorf("%s: no model provider configured, set one with set_model_config: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
