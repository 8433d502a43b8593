// Package filecache keeps the last successful vessel list per provider, port
// and radius on disk, so a failing source can be bridged with recent data.
package filecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = 5 * time.Minute

// ErrUnavailable is returned by Load when no fresh entry exists for a key.
var ErrUnavailable = errors.New("cache entry unavailable")

// Entry is the on-disk shape of one cached vessel list.
type Entry struct {
	Provider  string          `json:"provider"`
	Port      string          `json:"port"`
	Radius    int             `json:"radius"`
	Timestamp string          `json:"timestamp"`
	Vessels   []domain.Vessel `json:"vessels"`
}

// Store is a directory of cache entries, one JSON file per key.
type Store struct {
	dir   string
	ttl   time.Duration
	clock clockwork.Clock
	locks sync.Map // key -> *sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithClock sets the time source used for timestamps and expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates a store rooted at dir. A non-positive ttl uses DefaultTTL.
// The directory is created on the first Save.
func New(dir string, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		dir:   dir,
		ttl:   ttl,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the freshness window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Path returns the file that holds the entry for a key.
func (s *Store) Path(provider, port string, radius int) string {
	return filepath.Join(s.dir, fileName(provider, port, radius))
}

// Load returns the cached vessels for a key when the entry is younger than the
// TTL. The file is read on every call. Missing, corrupt, untimestamped and
// expired entries all wrap ErrUnavailable.
func (s *Store) Load(provider, port string, radius int) ([]domain.Vessel, error) {
	key := fileName(provider, port, radius)

	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", key, ErrUnavailable, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", key, ErrUnavailable, err)
	}
	vessels, err := s.fresh(e)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return vessels, nil
}

func (s *Store) fresh(e Entry) ([]domain.Vessel, error) {
	if e.Timestamp == "" {
		return nil, fmt.Errorf("no timestamp: %w", ErrUnavailable)
	}
	ts, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("timestamp %q: %w", e.Timestamp, ErrUnavailable)
	}
	if age := s.clock.Since(ts); age > s.ttl {
		return nil, fmt.Errorf("expired %s ago: %w", age.Round(time.Second), ErrUnavailable)
	}
	if e.Vessels == nil {
		return []domain.Vessel{}, nil
	}
	return slices.Clone(e.Vessels), nil
}

// Save writes vessels for a key. The file is written to a temporary name and
// renamed into place, so readers see either the old or the new entry.
func (s *Store) Save(provider, port string, radius int, vessels []domain.Vessel) error {
	key := fileName(provider, port, radius)
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	e := Entry{
		Provider:  provider,
		Port:      port,
		Radius:    radius,
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339Nano),
		Vessels:   slices.Clone(vessels),
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (s *Store) lockFor(key string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_")

func fileName(provider, port string, radius int) string {
	return nameReplacer.Replace(fmt.Sprintf("%s__%s__%d.json", provider, port, radius))
}
