package provider

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
)

const marineTrafficBaseURL = "https://services.marinetraffic.com/api"

// Keys shipped in sample configurations; the service rejects them.
var placeholderKeys = map[string]bool{"demo": true, "demo_key": true}

// Commercial queries the MarineTraffic export API. Parameters are encoded as
// path segments: base/service/version/key/name:value/.../protocol:P.
type Commercial struct {
	source
	baseURL string
	cfg     CommercialConfig
}

// NewCommercial creates a MarineTraffic client. An API key is required.
func NewCommercial(cfg CommercialConfig, opts ...Option) (*Commercial, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	cfg.Filters = maps.Clone(cfg.Filters)
	return &Commercial{
		source:  newSource(cfg.ProviderName(), cfg.Timeout, buildOptions(opts)),
		baseURL: marineTrafficBaseURL,
		cfg:     cfg,
	}, nil
}

func commercialFromSettings(s Settings, opts ...Option) (Provider, error) {
	key := s.Get(KeyMarineTrafficAPIKey)
	if key == "" {
		return nil, nil
	}
	return NewCommercial(CommercialConfig{
		APIKey:  key,
		Timeout: s.Duration(KeyTimeout, defaultTimeout),
	}, opts...)
}

// FetchVessels queries vessels around port. Placeholder keys fail with an
// auth error before any request is made.
func (p *Commercial) FetchVessels(ctx context.Context, port string, radiusKm int) ([]domain.Vessel, error) {
	if placeholderKeys[strings.ToLower(strings.TrimSpace(p.cfg.APIKey))] {
		return nil, newError(p.name, KindAuth, "placeholder api key cannot fetch commercial data")
	}

	body, err := p.get(ctx, p.buildURL(port, radiusKm), nil)
	if err != nil {
		return nil, err
	}
	payload, err := decodeJSON(body)
	if err != nil {
		return nil, newError(p.name, KindMalformed, "%w", err)
	}

	switch t := payload.(type) {
	case []any:
		return p.normalize(t, port), nil
	case map[string]any:
		if data, ok := listUnder(t, "data"); ok {
			return p.normalize(data, port), nil
		}
		if errs, ok := t["errors"]; ok && truthy(errs) {
			return nil, newError(p.name, KindAPI, "%v", errs)
		}
		return p.normalize([]any{t}, port), nil
	default:
		return nil, newError(p.name, KindMalformed, "unexpected %T payload", payload)
	}
}

func (p *Commercial) buildURL(port string, radiusKm int) string {
	segments := []string{p.baseURL, p.cfg.Service, p.cfg.Version, url.PathEscape(p.cfg.APIKey)}

	// Sorted so the URL is stable across calls.
	for _, k := range slices.Sorted(maps.Keys(p.cfg.Filters)) {
		segments = append(segments, fmt.Sprintf("%s:%s", k, url.PathEscape(p.cfg.Filters[k])))
	}
	segments = append(segments, "portname:"+url.PathEscape(port))
	if radiusKm > 0 {
		segments = append(segments, fmt.Sprintf("radius:%d", radiusKm))
	}
	segments = append(segments, "protocol:"+p.cfg.Protocol)
	return strings.Join(segments, "/")
}
