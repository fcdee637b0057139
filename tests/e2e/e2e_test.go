package e2e

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"browserfuzz/internal/payload"
)

func TestAnyPathYieldsDocument(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)

	for _, path := range []string{"/", "/anything", "/a/b/c?x=1", "/robots.txt"} {
		doc, err := client.Fetch(ctx, http.MethodGet, path)
		if err != nil {
			t.Fatalf("fetch %s: %v", path, err)
		}
		if doc.Status != http.StatusOK {
			t.Fatalf("fetch %s: status %d, want 200", path, doc.Status)
		}
		if doc.ContentType != "text/html" {
			t.Fatalf("fetch %s: content type %q, want text/html", path, doc.ContentType)
		}
		assertEnvelope(t, doc.Body)
	}
}

func TestAnyMethodYieldsDocument(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		doc, err := client.Fetch(ctx, method, "/fuzz")
		if err != nil {
			t.Fatalf("%s /fuzz: %v", method, err)
		}
		if doc.Status != http.StatusOK {
			t.Fatalf("%s /fuzz: status %d, want 200", method, doc.Status)
		}
	}
}

// Non-determinism is the contract: with fragments of at least 10 printable
// bytes, a repeat within a small batch means the random source is broken.
func TestDeliveriesAreFreshAndDiverse(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	client := NewClient(sut.BaseURL, nil)
	ctx := testContext(t)

	const trials = 50
	seen := make(map[string]struct{}, trials)
	for i := 0; i < trials; i++ {
		doc, err := client.Fetch(ctx, http.MethodGet, "/stream")
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		assertEnvelope(t, doc.Body)
		seen[string(doc.Body)] = struct{}{}
	}
	if len(seen) < trials-1 {
		t.Fatalf("only %d distinct documents in %d deliveries", len(seen), trials)
	}
}

func TestConcurrentSessionsShareNothing(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()
	ctx := testContext(t)

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := NewClient(sut.BaseURL, nil)
			for j := 0; j < 10; j++ {
				doc, err := client.Fetch(ctx, http.MethodGet, "/parallel")
				if err != nil {
					errCh <- err
					return
				}
				if doc.Status != http.StatusOK {
					errCh <- fmt.Errorf("unexpected status %d", doc.Status)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		t.Fatalf("concurrent delivery failed: %v", err)
	}
}

// A garbage request must burn only its own session; the next client still
// gets a document.
func TestMalformedRequestDoesNotStopLoop(t *testing.T) {
	sut := startSystemUnderTest(t)
	defer sut.Close()

	hostPort := strings.TrimPrefix(sut.BaseURL, "http://")
	conn, err := net.DialTimeout("tcp", hostPort, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_, _ = conn.Write([]byte("\x00\xffGARBAGE REQUEST LINE\r\n\r\n"))
	_ = conn.Close()

	client := NewClient(sut.BaseURL, nil)
	doc, err := client.Fetch(testContext(t), http.MethodGet, "/after-garbage")
	if err != nil {
		t.Fatalf("fetch after garbage: %v", err)
	}
	if doc.Status != http.StatusOK {
		t.Fatalf("status after garbage: %d, want 200", doc.Status)
	}
	assertEnvelope(t, doc.Body)
}

func assertEnvelope(t *testing.T, body []byte) {
	t.Helper()
	if !bytes.HasPrefix(body, []byte(payload.EnvelopePrefix)) || !bytes.HasSuffix(body, []byte(payload.EnvelopeSuffix)) {
		t.Fatalf("body is not an enveloped document: %.60q...", body)
	}
	fragLen := len(body) - len(payload.EnvelopePrefix) - len(payload.EnvelopeSuffix)
	if fragLen < sutLengthMin || fragLen > sutLengthMax {
		t.Fatalf("fragment length %d outside [%d, %d]", fragLen, sutLengthMin, sutLengthMax)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
