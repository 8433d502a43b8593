package provider

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultAISHubTimeout = 15 * time.Second
)

// Config is the typed construction parameters of one provider kind.
// Exactly one of the concrete config types below is passed to a factory.
type Config interface {
	ProviderName() string
	Validate() error
}

// SimulatedConfig configures the synthetic generator. A zero Seed draws a
// random one.
type SimulatedConfig struct {
	Seed uint64
}

func (SimulatedConfig) ProviderName() string { return "simulated" }
func (SimulatedConfig) Validate() error      { return nil }

// OpenFileConfig points at a local CSV, JSON or GeoJSON AIS dataset.
type OpenFileConfig struct {
	Path string
}

func (OpenFileConfig) ProviderName() string { return "open_file" }

func (c OpenFileConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("open_file: path is required: %w", ErrConfiguration)
	}
	info, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("open_file: %w: %w", ErrConfiguration, err)
	}
	if info.IsDir() {
		return fmt.Errorf("open_file: %s is a directory: %w", c.Path, ErrConfiguration)
	}
	return nil
}

// OpenHTTPConfig configures a generic JSON endpoint.
type OpenHTTPConfig struct {
	Endpoint       string
	Headers        map[string]string
	Params         map[string]string
	PortQueryParam string
	Timeout        time.Duration
}

func (OpenHTTPConfig) ProviderName() string { return "open_http" }

func (c OpenHTTPConfig) Validate() error {
	if err := validateURL(c.Endpoint); err != nil {
		return fmt.Errorf("open_http: %w", err)
	}
	return nil
}

func (c OpenHTTPConfig) withDefaults() OpenHTTPConfig {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// AISHubConfig configures the AISHub web service client. The search radius
// passed to each fetch is in kilometres and is converted to nautical miles
// before the bounding box is built, so a radius of 50 spans about 27 nm
// either side of the port rather than 50 nm.
type AISHubConfig struct {
	Username      string
	APIKey        string
	Output        string // response encoding, "json" by default
	MessageFormat string // "1" human readable, "0" raw AIS
	Compress      bool
	// ExtraParams are added to every query; a complete latmin/latmax/lonmin/lonmax
	// set replaces the bounding box derived from the port table.
	ExtraParams map[string]string
	// Ports overrides the built-in port coordinate table.
	Ports   map[string]domain.Coordinate
	Timeout time.Duration
}

func (AISHubConfig) ProviderName() string { return "aishub" }

func (c AISHubConfig) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("aishub: username is required: %w", ErrConfiguration)
	}
	return nil
}

func (c AISHubConfig) withDefaults() AISHubConfig {
	if c.Output == "" {
		c.Output = "json"
	}
	if c.MessageFormat == "" {
		c.MessageFormat = "1"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultAISHubTimeout
	}
	return c
}

// CommercialConfig configures the MarineTraffic export API client.
type CommercialConfig struct {
	APIKey   string
	Service  string
	Version  string
	Protocol string
	Filters  map[string]string
	Timeout  time.Duration
}

func (CommercialConfig) ProviderName() string { return "commercial" }

func (c CommercialConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("commercial: api key is required: %w", ErrConfiguration)
	}
	return nil
}

func (c CommercialConfig) withDefaults() CommercialConfig {
	if c.Service == "" {
		c.Service = "exportvessel"
	}
	c.Service = strings.Trim(c.Service, "/")
	if c.Version == "" {
		c.Version = "v:5"
	}
	if c.Protocol == "" {
		c.Protocol = "jsono"
	}
	if c.Filters == nil {
		c.Filters = map[string]string{"timespan": "24"}
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("endpoint is required: %w", ErrConfiguration)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w: %w", raw, ErrConfiguration, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must be http or https: %w", raw, ErrConfiguration)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host: %w", raw, ErrConfiguration)
	}
	return nil
}
