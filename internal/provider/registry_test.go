package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) FetchVessels(context.Context, string, int) ([]domain.Vessel, error) {
	return nil, nil
}

func stubMeta(name string, aliases ...string) Metadata {
	return Metadata{
		Name:    name,
		Aliases: aliases,
		New: func(Config, ...Option) (Provider, error) {
			return stubProvider{name: name}, nil
		},
		FromSettings: func(s Settings, _ ...Option) (Provider, error) {
			if s.Get(name) == "" {
				return nil, nil
			}
			return stubProvider{name: name}, nil
		},
	}
}

func TestDefaultRegistry_NamesAndAliases(t *testing.T) {
	r := NewDefaultRegistry(nil)

	assert.Equal(t, []string{"simulated", "open_file", "open_http", "aishub", "commercial"}, r.Names())

	for alias, want := range map[string]string{
		"sample":         "simulated",
		"FILE":           "open_file",
		"local":          "open_file",
		"open_api":       "open_http",
		"aishub_api":     "aishub",
		"MarineTraffic":  "commercial",
		"marine_traffic": "commercial",
	} {
		m, ok := r.Lookup(alias)
		require.True(t, ok, alias)
		assert.Equal(t, want, m.Name, alias)
	}
}

func TestRegistry_RegisterLastWriterWins(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(stubMeta("alpha", "a"))
	r.Register(stubMeta("beta"))

	replacement := stubMeta("gamma")
	replacement.Name = "Alpha"
	r.Register(replacement)

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
	m, ok := r.Lookup("ALPHA")
	require.True(t, ok)
	p, err := m.New(nil)
	require.NoError(t, err)
	assert.Equal(t, "gamma", p.Name())
}

func TestRegistry_CreateUnknown(t *testing.T) {
	r := NewDefaultRegistry(nil)

	_, err := r.Create("nope", SimulatedConfig{})
	require.ErrorIs(t, err, ErrUnknownProvider)

	_, err = r.CreateFromSettings("nope", Settings{})
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistry_CreateTyped(t *testing.T) {
	r := NewDefaultRegistry(nil)

	p, err := r.Create("sample", SimulatedConfig{Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, "simulated", p.Name())

	_, err = r.Create("aishub", SimulatedConfig{})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = r.Create("aishub", AISHubConfig{})
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestRegistry_DiscoverOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(stubMeta("first"))
	r.Register(stubMeta("second"))
	r.Register(stubMeta("third"))

	tests := []struct {
		name     string
		settings Settings
		priority []string
		want     string
	}{
		{"registration order", Settings{"second": "x", "third": "x"}, nil, "second"},
		{"priority first", Settings{"second": "x", "third": "x"}, []string{"third"}, "third"},
		{"priority unconfigured falls through", Settings{"second": "x"}, []string{"third", "missing"}, "second"},
		{"nothing configured", Settings{}, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Discover(tt.settings, tt.priority...)
			if tt.want == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestRegistry_DiscoverSkipsFailingProvider(t *testing.T) {
	r := NewRegistry(nil)
	broken := stubMeta("broken")
	broken.FromSettings = func(Settings, ...Option) (Provider, error) {
		return nil, errors.New("bad credentials")
	}
	r.Register(broken)
	r.Register(stubMeta("healthy"))

	p := r.Discover(Settings{"healthy": "x"})
	require.NotNil(t, p)
	assert.Equal(t, "healthy", p.Name())
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewDefaultRegistry(nil, testOptions()...)
	dataFile := writeFile(t, "vessels.json", `[]`)

	t.Run("explicit mode", func(t *testing.T) {
		p := r.Resolve(Settings{KeyProviderMode: "sample", KeyAISHubUsername: "harbor"})
		require.NotNil(t, p)
		assert.Equal(t, "simulated", p.Name())
	})

	t.Run("aishub preferred over file", func(t *testing.T) {
		p := r.Resolve(Settings{KeyAISHubUsername: "harbor", KeyOpenDataFile: dataFile})
		require.NotNil(t, p)
		assert.Equal(t, "aishub", p.Name())
	})

	t.Run("unusable mode falls back to discovery", func(t *testing.T) {
		p := r.Resolve(Settings{KeyProviderMode: "aishub", KeyOpenDataFile: dataFile})
		require.NotNil(t, p)
		assert.Equal(t, "open_file", p.Name())
	})

	t.Run("missing file is skipped", func(t *testing.T) {
		p := r.Resolve(Settings{KeyOpenDataFile: "/nonexistent/vessels.csv", KeyOpenDataURL: "https://ais.example.test"})
		require.NotNil(t, p)
		assert.Equal(t, "open_http", p.Name())
	})

	t.Run("commercial discovered last", func(t *testing.T) {
		p := r.Resolve(Settings{KeyMarineTrafficAPIKey: "real-key"})
		require.NotNil(t, p)
		assert.Equal(t, "commercial", p.Name())
	})

	t.Run("nothing configured", func(t *testing.T) {
		assert.Nil(t, r.Resolve(Settings{}))
	})
}
