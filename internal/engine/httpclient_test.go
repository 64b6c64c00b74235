package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserHeaders(t *testing.T) {
	h := BrowserHeaders()
	for _, key := range []string{"accept", "accept-language", "user-agent"} {
		assert.NotEmpty(t, h[key], "missing %q", key)
	}
	assert.Contains(t, h["user-agent"], "Chrome/")
}

func TestHTTPPageFetcher_SendsHeadersAndKeepsCookies(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgentChrome, r.Header.Get("User-Agent"))
		if _, err := r.Cookie("CONSENT"); err == nil {
			sawCookie = true
		}
		http.SetCookie(w, &http.Cookie{Name: "CONSENT", Value: "YES", Path: "/"})
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewHTTPPageFetcher(srv.Client())
	ctx := context.Background()

	body, status, err := f.FetchPage(ctx, srv.URL+"/results", BrowserHeaders())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<html>ok</html>", string(body))
	assert.False(t, sawCookie)

	_, _, err = f.FetchPage(ctx, srv.URL+"/results", BrowserHeaders())
	require.NoError(t, err)
	assert.True(t, sawCookie, "cookie from first response should be replayed")
}

func TestHTTPPageFetcher_DoesNotMutateBase(t *testing.T) {
	base := &http.Client{}
	_ = NewHTTPPageFetcher(base)
	assert.Nil(t, base.Jar)
}

func TestNoRedirectClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/hop" {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NoRedirectClient(srv.Client())
	resp, err := c.Get(srv.URL + "/hop")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/final", resp.Header.Get("Location"))
}

func TestStealthFetcher_HonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := &StealthFetcher{do: func(string, map[string]string) ([]byte, int, error) {
		<-release
		return []byte("late"), http.StatusOK, nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, _, err := f.FetchPage(ctx, "https://www.youtube.com/results?search_query=x", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStealthFetcher_KeepsFingerprintUA(t *testing.T) {
	var got map[string]string
	f := &StealthFetcher{do: func(_ string, h map[string]string) ([]byte, int, error) {
		got = h
		return []byte("<html></html>"), http.StatusOK, nil
	}}

	body, status, err := f.FetchPage(context.Background(), "https://www.youtube.com/", map[string]string{
		"user-agent":      "custom",
		"accept-language": "hi-IN",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<html></html>", string(body))
	assert.Equal(t, "hi-IN", got["accept-language"])
	assert.NotEqual(t, "custom", got["user-agent"])
}
