package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raushankrgupta/shopbot/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("s3cret", "user-42", time.Hour)
	require.NoError(t, err)

	sub, err := ValidateToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)

	_, err = ValidateToken("other", tok)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	tok, err := GenerateToken("s3cret", "user-42", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("s3cret", tok)
	assert.Error(t, err)
}

func TestGenerateTokenNeedsSecret(t *testing.T) {
	_, err := GenerateToken("", "x", time.Hour)
	assert.Error(t, err)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}

func TestLatencyMiddlewareLogs(t *testing.T) {
	var buf bytes.Buffer
	h := LatencyMiddleware(logger.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), `"path":"/health"`)
	assert.Contains(t, buf.String(), `"status":418`)
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, logger.Nop(), "bad input", http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad input"}`, rec.Body.String())
}

type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memUploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func TestMirrorImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "img:"+r.URL.Path)
	}))
	defer srv.Close()

	up := &memUploader{objects: map[string][]byte{}}
	got := MirrorImages(context.Background(), up, []string{
		srv.URL + "/a.jpg?w=200",
		"",
		srv.URL + "/missing.jpg",
		srv.URL + "/b.png",
	}, "results/x")

	require.Len(t, got, 2)
	assert.Equal(t, "results/x/0_a.jpg", got[srv.URL+"/a.jpg?w=200"])
	assert.Equal(t, "results/x/3_b.png", got[srv.URL+"/b.png"])
	assert.Equal(t, "img:/b.png", string(up.objects["results/x/3_b.png"]))
}

func TestMirrorImagesFetchesDuplicatesOnce(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, "img")
	}))
	defer srv.Close()

	url := srv.URL + "/same.jpg"
	up := &memUploader{objects: map[string][]byte{}}
	got := MirrorImages(context.Background(), up, []string{url, url, url, url}, "results/y")

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Len(t, up.objects, 1)
	assert.Equal(t, "results/y/0_same.jpg", got[url])
}

func TestDeadlineMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := DeadlineMiddleware(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))

	start := time.Now()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chat", nil))
	require.True(t, ok)
	assert.WithinDuration(t, start.Add(time.Minute), deadline, 5*time.Second)
}
