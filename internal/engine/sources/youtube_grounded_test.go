package sources

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator returns a fixed grounded answer and records the prompt.
type fakeGenerator struct {
	out    *engine.Generation
	err    error
	prompt string
}

func (f *fakeGenerator) Name() string            { return "fake" }
func (f *fakeGenerator) SupportsWebSearch() bool { return true }

func (f *fakeGenerator) Generate(_ context.Context, req engine.GenerateRequest) (*engine.Generation, error) {
	f.prompt = req.Prompt
	return f.out, f.err
}

// proxyServer redirects /grounding-api-redirect/<name> through one
// intermediate hop to the mapped destination.
func proxyServer(t *testing.T, dest map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && strings.HasSuffix(r.URL.Path, "/get-only") {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if strings.HasPrefix(r.URL.Path, "/grounding-api-redirect/") {
			http.Redirect(w, r, "/hop/"+name, http.StatusFound)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/hop/") {
			http.Redirect(w, r, dest[name], http.StatusFound)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRedirectResolver_ResolvesProxyCitation(t *testing.T) {
	srv := proxyServer(t, map[string]string{"a": "https://www.youtube.com/watch?v=aaaaaaaaaaa"})
	r := &RedirectResolver{Client: engine.NoRedirectClient(srv.Client())}

	proxied := srv.URL + "/grounding-api-redirect/a"
	assert.True(t, r.IsProxy(proxied))
	assert.True(t, r.IsProxy("https://vertexaisearch.cloud.google.com/grounding-api-redirect/XYZ"))
	assert.False(t, r.IsProxy("https://www.youtube.com/watch?v=aaaaaaaaaaa"))

	got, err := r.Resolve(context.Background(), proxied)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", got)
}

func TestRedirectResolver_FallsBackToGet(t *testing.T) {
	srv := proxyServer(t, map[string]string{"get-only": "https://youtu.be/bbbbbbbbbbb"})
	r := &RedirectResolver{Client: engine.NoRedirectClient(srv.Client())}

	got, err := r.Resolve(context.Background(), srv.URL+"/hop/get-only")
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/bbbbbbbbbbb", got)
}

func TestSearchGrounded(t *testing.T) {
	srv := proxyServer(t, map[string]string{
		"a": "https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"x": "/article",
	})
	gen := &fakeGenerator{out: &engine.Generation{
		Text: "1. https://www.youtube.com/watch?v=aaaaaaaaaaa Raag Yaman\n" +
			"2. https://youtu.be/ccccccccccc Evening raag\n" +
			"3. https://www.youtube.com/watch?v=eeeeeeeeeee excluded one",
		Citations: []engine.Citation{
			{URL: srv.URL + "/grounding-api-redirect/a", Title: "youtube.com"},
			{URL: srv.URL + "/grounding-api-redirect/x", Title: "example.org"},
			{URL: "https://m.youtube.com/watch?v=ddddddddddd", Title: "Yaman Alaap"},
		},
	}}
	g := &GroundedExtractor{
		Generator: gen,
		Resolver:  &RedirectResolver{Client: engine.NoRedirectClient(srv.Client())},
	}
	exclude := []string{"https://www.youtube.com/watch?v=eeeeeeeeeee"}

	c := g.SearchGrounded(context.Background(), "Raag Yaman", exclude, 10)
	require.Equal(t, engine.StatusFound, c.Status())

	var urls []string
	for _, r := range c.Results {
		urls = append(urls, r.URL)
		assert.NotContains(t, r.URL, srv.URL, "proxy URL must be resolved")
	}
	// Citations first, then text-only additions by new id.
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=ddddddddddd",
		"https://www.youtube.com/watch?v=ccccccccccc",
	}, urls)
	assert.Equal(t, "", c.Results[0].Title)
	assert.Equal(t, "Yaman Alaap", c.Results[1].Title)

	assert.Contains(t, gen.prompt, "Raag Yaman")
	assert.Contains(t, gen.prompt, exclude[0])
}

func TestSearchGrounded_LogsWebQueries(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	g := &GroundedExtractor{Generator: &fakeGenerator{out: &engine.Generation{
		Text:    "https://www.youtube.com/watch?v=aaaaaaaaaaa",
		Queries: []string{"raag yaman evening flute"},
	}}}
	c := g.SearchGrounded(context.Background(), "Raag Yaman", nil, 10)
	require.Len(t, c.Results, 1)
	assert.Contains(t, buf.String(), "raag yaman evening flute")
}

func TestSearchGrounded_Limit(t *testing.T) {
	gen := &fakeGenerator{out: &engine.Generation{
		Text: "https://youtu.be/aaaaaaaaaaa https://youtu.be/bbbbbbbbbbb https://youtu.be/ccccccccccc",
	}}
	c := (&GroundedExtractor{Generator: gen}).SearchGrounded(context.Background(), "q", nil, 2)
	assert.Len(t, c.Results, 2)
}

func TestSearchGrounded_ModelFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("invalid argument")}
	c := (&GroundedExtractor{Generator: gen}).SearchGrounded(context.Background(), "q", nil, 10)
	assert.Equal(t, engine.StatusFailed, c.Status())
	assert.Empty(t, c.Results)
}

func TestGroundedPrompt_BoundsExclusions(t *testing.T) {
	var exclude []string
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		exclude = append(exclude, "https://youtu.be/"+strings.Repeat(id, 11))
	}
	p := groundedPrompt("lullaby", exclude)
	assert.Contains(t, p, exclude[4])
	assert.NotContains(t, p, exclude[5])
	assert.NotContains(t, p, exclude[6])
}
