package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/couchcryptid/port-traffic-monitor/internal/observability"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 32 << 20

// Option customizes provider construction.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	httpClient *http.Client
}

// WithLogger sets the logger used for skipped-record diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics that record dropped records.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHTTPClient replaces the HTTP client built from the configured timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// source carries what every provider shares: its name, logging, metrics and,
// for remote sources, an HTTP client bounded by an explicit timeout.
type source struct {
	name       string
	logger     *slog.Logger
	metrics    *observability.Metrics
	httpClient *http.Client
}

func newSource(name string, timeout time.Duration, o options) source {
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return source{
		name:       name,
		logger:     o.logger.With("provider", name),
		metrics:    o.metrics,
		httpClient: client,
	}
}

// Name returns the canonical provider name.
func (s source) Name() string { return s.name }

// get performs a GET and returns the response body of a 2xx reply.
func (s source) get(ctx context.Context, fullURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, newError(s.name, KindTransport, "create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, newError(s.name, KindTransport, "request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newError(s.name, KindTransport, "read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, newError(s.name, KindAuth, "status %d: %s", resp.StatusCode, truncate(body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, newError(s.name, KindStatus, "status %d: %s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

// decodeJSON decodes a payload keeping numbers as json.Number so identifiers
// survive without float rounding.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return payload, nil
}

// normalize converts decoded records into vessels, dropping entries that are
// not objects or carry no usable identifier.
func (s source) normalize(records []any, port string) []domain.Vessel {
	raws := make([]domain.RawRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		m, ok := r.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		raws = append(raws, domain.RawRecord(m))
	}

	vessels, skipped := domain.NormalizeBatch(raws, port)
	dropped += skipped
	if dropped > 0 {
		s.logger.Debug("dropped unusable records", "port", port, "count", dropped)
		if s.metrics != nil {
			s.metrics.RecordsDropped.WithLabelValues(s.name).Add(float64(dropped))
		}
	}
	return vessels
}

// listUnder returns payload[key] when it is a JSON array.
func listUnder(payload map[string]any, key string) ([]any, bool) {
	v, ok := payload[key].([]any)
	return v, ok
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
