package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"browserfuzz/internal/metrics"
	"browserfuzz/internal/mutator"
	"browserfuzz/internal/payload"
)

func newTestServer(t *testing.T, minLen, maxLen int) *httptest.Server {
	t.Helper()
	gen, err := payload.NewGenerator(minLen, maxLen, mutator.Printable())
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(zap.NewNop(), payload.NewSynthesizer(gen), metrics.New(), "text/html"))
	t.Cleanup(srv.Close)
	return srv
}

func fetch(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAnyPathServesDocument(t *testing.T) {
	srv := newTestServer(t, 10, 500)

	for _, path := range []string{"/", "/anything", "/deeply/nested/path", "/favicon.ico"} {
		resp := fetch(t, http.MethodGet, srv.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"), "path %s", path)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(body, []byte(payload.EnvelopePrefix)))
		assert.True(t, bytes.HasSuffix(body, []byte(payload.EnvelopeSuffix)))

		fragLen := len(body) - len(payload.EnvelopePrefix) - len(payload.EnvelopeSuffix)
		assert.GreaterOrEqual(t, fragLen, 10)
		assert.LessOrEqual(t, fragLen, 500)
	}
}

func TestAnyMethodServesDocument(t *testing.T) {
	srv := newTestServer(t, 10, 50)

	for _, method := range []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodDelete, http.MethodHead, "PROPFIND",
	} {
		resp := fetch(t, method, srv.URL+"/fuzz")
		assert.Equal(t, http.StatusOK, resp.StatusCode, "method %s", method)
		assert.Equal(t, "text/html", resp.Header.Get("Content-Type"), "method %s", method)
	}
}

func TestConsecutiveResponsesDiffer(t *testing.T) {
	srv := newTestServer(t, 10, 500)

	read := func() []byte {
		resp := fetch(t, http.MethodGet, srv.URL+"/")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return body
	}
	assert.NotEqual(t, read(), read())
}

func TestConcurrentSessions(t *testing.T) {
	srv := newTestServer(t, 10, 100)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				resp, err := http.Get(srv.URL + "/worker")
				if err != nil {
					errs <- err
					return
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errs <- fmt.Errorf("unexpected status %d", resp.StatusCode)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent session failed: %v", err)
	}
}

func TestMutateModeEmbedsMutatedSeed(t *testing.T) {
	seed := []byte(strings.Repeat("var x = 1;", 8))
	mut, err := mutator.New(mutator.AllBytes(), mutator.CountBounds{})
	require.NoError(t, err)
	src, err := payload.NewSeedMutation(mut, seed)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(zap.NewNop(), payload.NewSynthesizer(src), metrics.New(), "text/html"))
	defer srv.Close()

	resp := fetch(t, http.MethodGet, srv.URL+"/")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	wantLen := len(payload.EnvelopePrefix) + len(seed) + len(payload.EnvelopeSuffix)
	assert.Len(t, body, wantLen, "substitution-only mutation keeps document length fixed")
}
