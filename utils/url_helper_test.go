package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsShortURL(t *testing.T) {
	assert.True(t, IsShortURL("https://amzn.in/d/abc123"))
	assert.True(t, IsShortURL("https://dl.flipkart.com/s/xyz"))
	assert.True(t, IsShortURL(" https://BIT.LY/3abc "))
	assert.False(t, IsShortURL("https://www.amazon.in/dp/B0C1"))
	assert.False(t, IsShortURL("https://example.com/amzn.in"))
	assert.False(t, IsShortURL("::bad"))
}

func TestResolveShortenedURLPassThrough(t *testing.T) {
	got, err := ResolveShortenedURL(context.Background(), "https://www.flipkart.com/p/itm1")
	require.NoError(t, err)
	assert.Equal(t, "https://www.flipkart.com/p/itm1", got)
}

func TestResolveFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := resolve(context.Background(), http.MethodHead, srv.URL+"/short")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, srv.URL+"/final", resp.Request.URL.String())
}
