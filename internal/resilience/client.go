// Package resilience turns a set of unreliable vessel providers into a source
// that always answers: configured providers first, then a recent cached list,
// then simulated traffic.
package resilience

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/couchcryptid/port-traffic-monitor/internal/observability"
	"github.com/couchcryptid/port-traffic-monitor/internal/provider"
)

// Source identifies where a vessel list came from.
type Source string

const (
	SourceProvider  Source = "provider"
	SourceCache     Source = "cache"
	SourceSimulated Source = "simulated"
	SourceNone      Source = "none"
)

// Cache stores the last good vessel list per provider, port and radius.
// Load returns an error for missing or stale entries.
type Cache interface {
	Load(provider, port string, radius int) ([]domain.Vessel, error)
	Save(provider, port string, radius int, vessels []domain.Vessel) error
}

// Result is the answer of one GetVessels call.
type Result struct {
	Vessels []domain.Vessel
	Source  Source
	// Provider names the provider that produced the list, or whose cache entry
	// was served. Empty for SourceNone.
	Provider string
}

// Client walks the fallback chain for every request. It is safe for
// concurrent use when its providers and cache are.
type Client struct {
	primary    provider.Provider
	fallback   provider.Provider
	simulated  provider.Provider
	cache      Cache
	cacheFirst bool
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithPrimary sets the explicitly selected provider, tried first.
func WithPrimary(p provider.Provider) Option {
	return func(c *Client) { c.primary = p }
}

// WithFallback sets the default provider, tried after the primary when its
// name differs.
func WithFallback(p provider.Provider) Option {
	return func(c *Client) { c.fallback = p }
}

// WithSimulated sets the last-resort generator.
func WithSimulated(p provider.Provider) Option {
	return func(c *Client) { c.simulated = p }
}

// WithCache enables cache reads on failure and writes on success.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithCacheFirst serves a fresh cache entry before calling any provider.
func WithCacheFirst(enabled bool) Option {
	return func(c *Client) { c.cacheFirst = enabled }
}

// WithLogger sets the logger for fallback warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records provider outcomes, cache lookups and served sources.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client. Without options it only ever returns empty results.
func New(opts ...Option) *Client {
	c := &Client{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chain returns the names of the providers tried before the cache, in order.
func (c *Client) Chain() []string {
	chain := c.chain()
	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	return names
}

func (c *Client) chain() []provider.Provider {
	var chain []provider.Provider
	if c.primary != nil {
		chain = append(chain, c.primary)
	}
	if c.fallback != nil && (c.primary == nil || c.fallback.Name() != c.primary.Name()) {
		chain = append(chain, c.fallback)
	}
	return chain
}

// GetVessels returns vessels around port and never fails. Provider errors and
// panics are logged and the chain advances; an empty result counts as a miss.
// Cancelling ctx does not interrupt a fetch in flight; provider timeouts
// bound each call.
func (c *Client) GetVessels(ctx context.Context, port string, radiusKm int) Result {
	chain := c.chain()

	if c.cacheFirst {
		if res, ok := c.fromCache(chain, port, radiusKm); ok {
			return c.served(res)
		}
	}

	for _, p := range chain {
		vessels, err := c.fetch(ctx, p, port, radiusKm)
		if err != nil {
			c.logger.Warn("provider failed, trying next source",
				"provider", p.Name(), "port", port, "error", err)
			continue
		}
		if len(vessels) == 0 {
			c.logger.Info("provider returned no vessels", "provider", p.Name(), "port", port)
			continue
		}
		c.store(p.Name(), port, radiusKm, vessels)
		return c.served(Result{Vessels: vessels, Source: SourceProvider, Provider: p.Name()})
	}

	if !c.cacheFirst {
		if res, ok := c.fromCache(chain, port, radiusKm); ok {
			return c.served(res)
		}
	}

	if c.simulated != nil {
		vessels, err := c.fetch(ctx, c.simulated, port, radiusKm)
		if err != nil {
			c.logger.Warn("simulated provider failed", "port", port, "error", err)
		} else {
			if len(chain) > 0 {
				c.logger.Warn("serving simulated vessels", "port", port, "count", len(vessels))
			}
			return c.served(Result{Vessels: vessels, Source: SourceSimulated, Provider: c.simulated.Name()})
		}
	}

	return c.served(Result{Vessels: []domain.Vessel{}, Source: SourceNone})
}

// fetch calls p, converting a panic into an error.
func (c *Client) fetch(ctx context.Context, p provider.Provider, port string, radiusKm int) (vessels []domain.Vessel, err error) {
	name := p.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			vessels, err = nil, fmt.Errorf("%s provider panic: %v", name, r)
		}
		if c.metrics == nil {
			return
		}
		c.metrics.ProviderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		outcome := "success"
		switch {
		case err != nil:
			outcome = "error"
		case len(vessels) == 0:
			outcome = "empty"
		}
		c.metrics.ProviderRequests.WithLabelValues(name, outcome).Inc()
	}()

	return p.FetchVessels(context.WithoutCancel(ctx), port, radiusKm)
}

func (c *Client) fromCache(chain []provider.Provider, port string, radiusKm int) (Result, bool) {
	if c.cache == nil {
		return Result{}, false
	}
	for _, p := range chain {
		vessels, err := c.cache.Load(p.Name(), port, radiusKm)
		if err == nil && len(vessels) > 0 {
			c.countLookup("hit")
			c.logger.Info("serving cached vessels", "provider", p.Name(), "port", port, "count", len(vessels))
			return Result{Vessels: vessels, Source: SourceCache, Provider: p.Name()}, true
		}
		c.countLookup("miss")
		if err != nil {
			c.logger.Debug("cache miss", "provider", p.Name(), "port", port, "error", err)
		}
	}
	return Result{}, false
}

func (c *Client) store(name, port string, radiusKm int, vessels []domain.Vessel) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(name, port, radiusKm, vessels); err != nil {
		c.logger.Warn("cache write failed", "provider", name, "port", port, "error", err)
	}
}

func (c *Client) countLookup(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (c *Client) served(r Result) Result {
	if c.metrics != nil {
		c.metrics.ServedBy.WithLabelValues(string(r.Source)).Inc()
	}
	return r
}
