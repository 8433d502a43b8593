package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
)

const aisHubBaseURL = "https://data.aishub.net/ws.php"

var (
	aisHubBBoxKeys      = []string{"latmin", "latmax", "lonmin", "lonmax"}
	aisHubRecordKeys    = []string{"data", "ais", "rows"}
	aisHubSuccessTokens = map[string]bool{"ok": true, "success": true, "0": true}
	aisHubErrorKeys     = []string{"ERROR", "error"}
	aisHubErrorTextKeys = []string{"ERROR_MESSAGE", "error_message", "message"}
)

// AISHub queries the AISHub web service for vessels inside a bounding box
// around the port.
type AISHub struct {
	source
	baseURL string
	cfg     AISHubConfig
}

// NewAISHub creates an AISHub client. A username is required.
func NewAISHub(cfg AISHubConfig, opts ...Option) (*AISHub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	cfg.ExtraParams = maps.Clone(cfg.ExtraParams)
	return &AISHub{
		source:  newSource(cfg.ProviderName(), cfg.Timeout, buildOptions(opts)),
		baseURL: aisHubBaseURL,
		cfg:     cfg,
	}, nil
}

func aisHubFromSettings(s Settings, opts ...Option) (Provider, error) {
	username := s.Get(KeyAISHubUsername)
	if username == "" {
		return nil, nil
	}
	return NewAISHub(AISHubConfig{
		Username:      username,
		APIKey:        s.Get(KeyAISHubAPIKey),
		Output:        s.GetOr(KeyAISHubOutput, "json"),
		MessageFormat: s.GetOr(KeyAISHubMessageFormat, "1"),
		Compress:      s.Bool(KeyAISHubCompress, false),
		ExtraParams:   s.Mapping(KeyAISHubExtraParams),
		Timeout:       s.Duration(KeyTimeout, defaultAISHubTimeout),
	}, opts...)
}

// FetchVessels queries the service for the area around port.
func (p *AISHub) FetchVessels(ctx context.Context, port string, radiusKm int) ([]domain.Vessel, error) {
	query, err := p.buildQuery(port, radiusKm)
	if err != nil {
		return nil, err
	}

	body, err := p.get(ctx, p.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	payload, err := decodeJSON(body)
	if err != nil {
		text := strings.TrimSpace(string(body))
		if strings.HasPrefix(strings.ToLower(text), "error") {
			return nil, newError(p.name, KindAPI, "%s", truncate([]byte(text)))
		}
		return nil, newError(p.name, KindMalformed, "%w", err)
	}

	records, err := p.extractRecords(payload)
	if err != nil {
		return nil, err
	}
	return p.normalize(records, port), nil
}

func (p *AISHub) buildQuery(port string, radiusKm int) (url.Values, error) {
	q := url.Values{}
	q.Set("username", p.cfg.Username)
	q.Set("format", p.cfg.MessageFormat)
	q.Set("output", p.cfg.Output)
	q.Set("compress", "0")
	if p.cfg.Compress {
		q.Set("compress", "1")
	}
	for k, v := range p.cfg.ExtraParams {
		q.Set(k, v)
	}
	if p.cfg.APIKey != "" && !q.Has("apikey") {
		q.Set("apikey", p.cfg.APIKey)
	}

	if hasAll(q, aisHubBBoxKeys) {
		return q, nil
	}

	center, ok := p.lookupPort(port)
	if !ok {
		return nil, newError(p.name, KindUnknownPort,
			"no coordinates for port %q and no bounding box in extra params", port)
	}
	box := domain.PortBoundingBox(center, radiusKm)
	setDefault(q, "latmin", formatCoord(box.LatMin))
	setDefault(q, "latmax", formatCoord(box.LatMax))
	setDefault(q, "lonmin", formatCoord(box.LonMin))
	setDefault(q, "lonmax", formatCoord(box.LonMax))
	return q, nil
}

func (p *AISHub) lookupPort(port string) (domain.Coordinate, bool) {
	if p.cfg.Ports != nil {
		for name, c := range p.cfg.Ports {
			if strings.EqualFold(name, strings.TrimSpace(port)) {
				return c, true
			}
		}
		return domain.Coordinate{}, false
	}
	return domain.LookupPort(port)
}

// extractRecords unwraps the payload shapes AISHub produces. An error flag
// always fails; a status without a success token fails only when no record
// container is present, since some deployments omit the status on success.
func (p *AISHub) extractRecords(payload any) ([]any, error) {
	switch t := payload.(type) {
	case map[string]any:
		if err := p.checkHeader(t); err != nil {
			return nil, err
		}
		hasContainer := false
		for _, key := range aisHubRecordKeys {
			if _, ok := t[key]; ok {
				hasContainer = true
				break
			}
		}
		if status, ok := t["status"]; ok && status != nil && !hasContainer && !statusSucceeded(status) {
			return nil, newError(p.name, KindAPI, "status %v", status)
		}
		for _, key := range aisHubRecordKeys {
			if list, ok := listUnder(t, key); ok {
				return list, nil
			}
		}
		return []any{t}, nil

	case []any:
		// The documented JSON output is [ {header}, [records...] ].
		var records []any
		for _, item := range t {
			switch v := item.(type) {
			case map[string]any:
				if isHeader(v) {
					if err := p.checkHeader(v); err != nil {
						return nil, err
					}
					continue
				}
				records = append(records, v)
			case []any:
				records = append(records, v...)
			}
		}
		return records, nil

	default:
		return nil, newError(p.name, KindMalformed, "unexpected %T payload", payload)
	}
}

func (p *AISHub) checkHeader(m map[string]any) error {
	for _, key := range aisHubErrorKeys {
		if truthy(m[key]) {
			msg := fmt.Sprint(m[key])
			for _, textKey := range aisHubErrorTextKeys {
				if s, ok := m[textKey].(string); ok && s != "" {
					msg = s
					break
				}
			}
			return newError(p.name, KindAPI, "%s", msg)
		}
	}
	return nil
}

func isHeader(m map[string]any) bool {
	_, hasError := m["ERROR"]
	_, hasMMSI := m["MMSI"]
	return hasError && !hasMMSI
}

func statusSucceeded(status any) bool {
	var tokens []string
	if m, ok := status.(map[string]any); ok {
		for _, v := range m {
			if v != nil {
				tokens = append(tokens, fmt.Sprint(v))
			}
		}
	} else {
		tokens = append(tokens, fmt.Sprint(status))
	}
	for _, tok := range tokens {
		if aisHubSuccessTokens[strings.ToLower(strings.TrimSpace(tok))] {
			return true
		}
	}
	return false
}

// truthy mirrors how AISHub flags errors: booleans, non-zero numbers and
// non-empty strings other than explicit false values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(t)
		return s != "" && ParseBool(s, true)
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func hasAll(q url.Values, keys []string) bool {
	for _, k := range keys {
		if !q.Has(k) {
			return false
		}
	}
	return true
}

func setDefault(q url.Values, key, value string) {
	if !q.Has(key) {
		q.Set(key, value)
	}
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.5f", v)
}
