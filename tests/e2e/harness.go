package e2e

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"browserfuzz/internal/api"
	"browserfuzz/internal/metrics"
	"browserfuzz/internal/mutator"
	"browserfuzz/internal/payload"
)

// Fragment bounds the in-process system under test is configured with.
// Tests that assert on lengths use these.
const (
	sutLengthMin = 10
	sutLengthMax = 500
)

type systemUnderTest struct {
	BaseURL  string
	shutdown func()
}

func (s *systemUnderTest) Close() {
	if s.shutdown != nil {
		s.shutdown()
	}
}

func startSystemUnderTest(t *testing.T) *systemUnderTest {
	t.Helper()

	if cmd := os.Getenv("FUZZ_SERVER_CMD"); cmd != "" {
		sut, err := startExternalServer(t, cmd)
		if err != nil {
			t.Fatalf("start external server: %v", err)
		}
		return sut
	}

	if url := os.Getenv("FUZZ_SERVER_URL"); url != "" {
		t.Logf("FUZZ_SERVER_URL set; using existing server at %s", url)
		return &systemUnderTest{
			BaseURL: url,
			shutdown: func() {
				// External server; nothing to stop.
			},
		}
	}

	// Default: the real handler in-process, generate mode with the bounds above.
	gen, err := payload.NewGenerator(sutLengthMin, sutLengthMax, mutator.Printable())
	if err != nil {
		t.Fatalf("build generator: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(zap.NewNop(), payload.NewSynthesizer(gen), metrics.New(), "text/html"))

	return &systemUnderTest{
		BaseURL:  srv.URL,
		shutdown: srv.Close,
	}
}

func startExternalServer(t *testing.T, cmdStr string) (*systemUnderTest, error) {
	t.Helper()

	addr, err := freeAddr()
	if err != nil {
		return nil, fmt.Errorf("pick free addr: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", cmdStr)
	cmd.Env = append(os.Environ(), fmt.Sprintf("FUZZ_HTTP_ADDR=%s", addr))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("cmd start: %w", err)
	}

	baseURL := "http://" + addr
	if err := waitForReady(baseURL, 10*time.Second); err != nil {
		_ = cmd.Process.Kill()
		cancel()
		return nil, fmt.Errorf("wait for ready: %w", err)
	}

	shutdown := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		}
		cancel()
	}

	return &systemUnderTest{BaseURL: baseURL, shutdown: shutdown}, nil
}

func waitForReady(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		// Any path answers once the loop is up.
		resp, err := http.Get(baseURL + "/")
		if err == nil {
			resp.Body.Close()
			return nil
		}
		if strings.Contains(err.Error(), "connection refused") {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not ready after %s", baseURL, timeout)
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
