package provider

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory builds a provider from its typed config.
type Factory func(cfg Config, opts ...Option) (Provider, error)

// SettingsFactory builds a provider from flat settings. It returns (nil, nil)
// when the settings do not carry what the provider needs, so callers can probe
// every provider kind without treating absence as failure.
type SettingsFactory func(s Settings, opts ...Option) (Provider, error)

// Metadata describes a registered provider kind.
type Metadata struct {
	Name         string
	Aliases      []string
	New          Factory
	FromSettings SettingsFactory
}

// Registry maps provider names and aliases to their metadata.
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]Metadata
	byName map[string]Metadata
	order  []string
	opts   []Option
	logger *slog.Logger
}

// DiscoveryPriority is the order in which configured sources are preferred
// when no explicit provider mode is set.
var DiscoveryPriority = []string{"aishub", "open_file", "open_http"}

// NewRegistry creates an empty registry. opts are passed to every provider
// the registry builds.
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		byKey:  make(map[string]Metadata),
		byName: make(map[string]Metadata),
		opts:   opts,
		logger: logger,
	}
}

// NewDefaultRegistry registers the built-in providers in a fixed order.
func NewDefaultRegistry(logger *slog.Logger, opts ...Option) *Registry {
	r := NewRegistry(logger, opts...)
	for _, m := range builtins() {
		r.Register(m)
	}
	return r
}

func builtins() []Metadata {
	return []Metadata{
		{
			Name:    "simulated",
			Aliases: []string{"sample"},
			New: typed(func(c SimulatedConfig, opts ...Option) (Provider, error) {
				return NewSimulated(c, opts...), nil
			}),
			FromSettings: simulatedFromSettings,
		},
		{
			Name:    "open_file",
			Aliases: []string{"file", "local"},
			New: typed(func(c OpenFileConfig, opts ...Option) (Provider, error) {
				return NewOpenFile(c, opts...)
			}),
			FromSettings: openFileFromSettings,
		},
		{
			Name:    "open_http",
			Aliases: []string{"http", "open_api"},
			New: typed(func(c OpenHTTPConfig, opts ...Option) (Provider, error) {
				return NewOpenHTTP(c, opts...)
			}),
			FromSettings: openHTTPFromSettings,
		},
		{
			Name:    "aishub",
			Aliases: []string{"aishub_api"},
			New: typed(func(c AISHubConfig, opts ...Option) (Provider, error) {
				return NewAISHub(c, opts...)
			}),
			FromSettings: aisHubFromSettings,
		},
		{
			Name:    "commercial",
			Aliases: []string{"marinetraffic", "marine_traffic"},
			New: typed(func(c CommercialConfig, opts ...Option) (Provider, error) {
				return NewCommercial(c, opts...)
			}),
			FromSettings: commercialFromSettings,
		},
	}
}

// typed adapts a constructor for one concrete config type to a Factory.
func typed[C Config](fn func(C, ...Option) (Provider, error)) Factory {
	return func(cfg Config, opts ...Option) (Provider, error) {
		c, ok := cfg.(C)
		if !ok {
			var want C
			return nil, fmt.Errorf("%s expects %T, got %T: %w", want.ProviderName(), want, cfg, ErrConfiguration)
		}
		return fn(c, opts...)
	}
}

// Register adds m under its name and aliases, case-insensitively. A later
// registration under the same name or alias replaces the earlier mapping;
// discovery keeps the position of the first registration.
func (r *Registry) Register(m Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.Name = strings.ToLower(strings.TrimSpace(m.Name))
	aliases := make([]string, 0, len(m.Aliases))
	for _, a := range m.Aliases {
		aliases = append(aliases, strings.ToLower(strings.TrimSpace(a)))
	}
	m.Aliases = aliases

	if _, seen := r.byName[m.Name]; !seen {
		r.order = append(r.order, m.Name)
	}
	r.byName[m.Name] = m
	r.byKey[m.Name] = m
	for _, a := range m.Aliases {
		r.byKey[a] = m
	}
}

// Lookup returns the metadata registered under a name or alias.
func (r *Registry) Lookup(name string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byKey[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Names returns the canonical provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Create builds the named provider from a typed config.
func (r *Registry) Create(name string, cfg Config) (Provider, error) {
	m, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownProvider)
	}
	return m.New(cfg, r.opts...)
}

// CreateFromSettings builds the named provider from flat settings. It returns
// (nil, nil) when the settings lack the provider's required credentials.
func (r *Registry) CreateFromSettings(name string, s Settings) (Provider, error) {
	m, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownProvider)
	}
	return m.FromSettings(s, r.opts...)
}

// Discover returns the first provider that can be built from s, trying the
// priority names first and then every other registered provider in
// registration order. Providers whose settings are present but invalid are
// logged and skipped. It returns nil when nothing is configured.
func (r *Registry) Discover(s Settings, priority ...string) Provider {
	for _, m := range r.discoveryOrder(priority) {
		p, err := m.FromSettings(s, r.opts...)
		if err != nil {
			r.logger.Warn("provider not available", "provider", m.Name, "error", err)
			continue
		}
		if p != nil {
			return p
		}
	}
	return nil
}

func (r *Registry) discoveryOrder(priority []string) []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]Metadata, 0, len(r.order))
	seen := make(map[string]bool, len(r.order))
	for _, name := range priority {
		m, ok := r.byKey[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[m.Name] {
			continue
		}
		ordered = append(ordered, m)
		seen[m.Name] = true
	}
	for _, name := range r.order {
		if seen[name] {
			continue
		}
		ordered = append(ordered, r.byName[name])
		seen[name] = true
	}
	return ordered
}

// Resolve picks the primary provider: the one named by DATA_PROVIDER_MODE
// when it can be built, otherwise the first discovered in DiscoveryPriority
// order. It returns nil when no source is configured.
func (r *Registry) Resolve(s Settings) Provider {
	if mode := s.Get(KeyProviderMode); mode != "" {
		p, err := r.CreateFromSettings(mode, s)
		switch {
		case err != nil:
			r.logger.Warn("configured provider mode unavailable", "mode", mode, "error", err)
		case p != nil:
			return p
		default:
			r.logger.Warn("configured provider mode missing credentials", "mode", mode)
		}
	}
	return r.Discover(s, DiscoveryPriority...)
}
