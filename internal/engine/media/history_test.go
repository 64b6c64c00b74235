package media

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *SQLiteHistory {
	t.Helper()
	h, err := OpenSQLiteHistory(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestSQLiteHistory_RecordAndSeen(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)
	s1, s2 := NewSessionID(), NewSessionID()

	require.NoError(t, h.Record(ctx, s1, "https://a", "https://b"))
	require.NoError(t, h.Record(ctx, s1, "https://a")) // upsert, no duplicate
	require.NoError(t, h.Record(ctx, s2, "https://c"))

	got, err := h.Seen(ctx, s1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"https://a", "https://b"}, got)

	got, err = h.Seen(ctx, s2)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://c"}, got)

	got, err = h.Seen(ctx, NewSessionID())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenSQLiteHistory_EmptyPath(t *testing.T) {
	_, err := OpenSQLiteHistory("")
	assert.Error(t, err)
}

func TestExclusionsFor(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)
	sid := NewSessionID()
	require.NoError(t, h.Record(ctx, sid, "https://a", "https://b"))

	got := ExclusionsFor(ctx, h, sid, []string{"https://a", "https://z"})
	assert.ElementsMatch(t, []string{"https://a", "https://z", "https://b"}, got)

	assert.Equal(t, []string{"https://z"}, ExclusionsFor(ctx, nil, sid, []string{"https://z"}))
	assert.Equal(t, []string{"https://z"}, ExclusionsFor(ctx, h, "", []string{"https://z"}))
}

type brokenHistory struct{}

func (brokenHistory) Seen(context.Context, string) ([]string, error)  { return nil, errors.New("down") }
func (brokenHistory) Record(context.Context, string, ...string) error { return errors.New("down") }
func (brokenHistory) Close() error                                    { return nil }

func TestExclusionsFor_StoreFailureDegrades(t *testing.T) {
	got := ExclusionsFor(context.Background(), brokenHistory{}, "s", []string{"https://z"})
	assert.Equal(t, []string{"https://z"}, got)
	RecordShown(context.Background(), brokenHistory{}, "s", engine.DiscoveredLink{URL: "https://z", Provenance: engine.ProvenanceVerified})
}

func TestRecordShown_SkipsSearchFallback(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)
	sid := NewSessionID()
	RecordShown(ctx, h, sid,
		engine.DiscoveredLink{URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", Provenance: engine.ProvenanceVerified},
		engine.DiscoveredLink{URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb", Provenance: engine.ProvenanceUnverified},
		engine.DiscoveredLink{URL: SearchFallbackURL("om"), Provenance: engine.ProvenanceSearchFallback},
	)
	got, err := h.Seen(ctx, sid)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
	}, got)
}

func TestValidSessionID(t *testing.T) {
	assert.True(t, ValidSessionID(NewSessionID()))
	assert.False(t, ValidSessionID("not-a-session"))
	assert.False(t, ValidSessionID(""))
}
