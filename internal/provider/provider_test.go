package provider

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/couchcryptid/port-traffic-monitor/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const testPort = "Naples"

var testNow = time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)

func testOptions() []Option {
	return []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(observability.NewMetricsForTesting()),
	}
}

func withFixedClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// captured is what jsonServer saw of the last request.
type captured struct {
	path   string
	query  url.Values
	header http.Header
	calls  int
}

// jsonServer serves body with the given status and records the last request.
func jsonServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	last := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.path = r.URL.Path
		last.query = r.URL.Query()
		last.header = r.Header.Clone()
		last.calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, last
}
