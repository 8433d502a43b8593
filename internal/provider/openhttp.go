package provider

import (
	"context"
	"maps"
	"net/url"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
)

// OpenHTTP fetches vessels from a configurable JSON endpoint.
type OpenHTTP struct {
	source
	endpoint  string
	headers   map[string]string
	params    map[string]string
	portParam string
}

// NewOpenHTTP creates a client for an open AIS endpoint.
func NewOpenHTTP(cfg OpenHTTPConfig, opts ...Option) (*OpenHTTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &OpenHTTP{
		source:    newSource(cfg.ProviderName(), cfg.Timeout, buildOptions(opts)),
		endpoint:  cfg.Endpoint,
		headers:   maps.Clone(cfg.Headers),
		params:    maps.Clone(cfg.Params),
		portParam: cfg.PortQueryParam,
	}, nil
}

func openHTTPFromSettings(s Settings, opts ...Option) (Provider, error) {
	endpoint := s.Get(KeyOpenDataURL)
	if endpoint == "" {
		return nil, nil
	}
	return NewOpenHTTP(OpenHTTPConfig{
		Endpoint:       endpoint,
		Headers:        s.Mapping(KeyOpenDataHeaders),
		Params:         s.Mapping(KeyOpenDataParams),
		PortQueryParam: s.Get(KeyOpenDataPortParam),
		Timeout:        s.Duration(KeyTimeout, defaultTimeout),
	}, opts...)
}

// FetchVessels queries the endpoint, adding the port under the configured
// query parameter. The response may be a list of records, an object holding
// "data" or "results", or a single record object.
func (p *OpenHTTP) FetchVessels(ctx context.Context, port string, _ int) ([]domain.Vessel, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return nil, newError(p.name, KindTransport, "parse endpoint: %w", err)
	}
	q := u.Query()
	for k, v := range p.params {
		q.Set(k, v)
	}
	if p.portParam != "" {
		q.Set(p.portParam, port)
	}
	u.RawQuery = q.Encode()

	body, err := p.get(ctx, u.String(), p.headers)
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
		if results, ok := listUnder(t, "results"); ok {
			return p.normalize(results, port), nil
		}
		return p.normalize([]any{t}, port), nil
	default:
		return nil, newError(p.name, KindUnsupported, "unexpected %T payload", payload)
	}
}
