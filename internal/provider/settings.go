package provider

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings keys understood by the built-in providers.
const (
	KeyProviderMode = "DATA_PROVIDER_MODE"
	KeyTimeout      = "PROVIDER_TIMEOUT"

	KeySimulatedSeed = "SIMULATED_SEED"

	KeyOpenDataFile      = "AIS_OPEN_DATA_FILE"
	KeyOpenDataURL       = "AIS_OPEN_DATA_URL"
	KeyOpenDataHeaders   = "AIS_OPEN_DATA_HEADERS"
	KeyOpenDataParams    = "AIS_OPEN_DATA_PARAMS"
	KeyOpenDataPortParam = "AIS_OPEN_DATA_PORT_PARAM"

	KeyAISHubUsername      = "AIS_HUB_USERNAME"
	KeyAISHubAPIKey        = "AIS_HUB_API_KEY"
	KeyAISHubExtraParams   = "AIS_HUB_EXTRA_PARAMS"
	KeyAISHubOutput        = "AIS_HUB_OUTPUT"
	KeyAISHubMessageFormat = "AIS_HUB_MESSAGE_FORMAT"
	KeyAISHubCompress      = "AIS_HUB_COMPRESS"

	KeyMarineTrafficAPIKey = "MARINETRAFFIC_API_KEY"
)

var settingsKeys = []string{
	KeyProviderMode, KeyTimeout, KeySimulatedSeed,
	KeyOpenDataFile, KeyOpenDataURL, KeyOpenDataHeaders, KeyOpenDataParams, KeyOpenDataPortParam,
	KeyAISHubUsername, KeyAISHubAPIKey, KeyAISHubExtraParams, KeyAISHubOutput,
	KeyAISHubMessageFormat, KeyAISHubCompress,
	KeyMarineTrafficAPIKey,
}

var sensitiveTokens = []string{"api", "token", "key", "secret", "password"}

// Settings is the flat key/value configuration surface used to discover and
// build providers. Any subset of keys may be present.
type Settings map[string]string

// SettingsFromEnv collects the provider keys present in the process environment.
func SettingsFromEnv() Settings {
	s := make(Settings)
	for _, key := range settingsKeys {
		if v, ok := os.LookupEnv(key); ok {
			s[key] = v
		}
	}
	return s
}

// LoadSettingsFile reads provider settings from a YAML document of top-level
// keys. Nested maps are stored as JSON so Mapping can decode them.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider settings: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse provider settings %s: %w", path, err)
	}

	s := make(Settings, len(doc))
	for k, v := range doc {
		switch t := v.(type) {
		case nil:
			continue
		case map[string]any, []any:
			encoded, err := json.Marshal(t)
			if err != nil {
				return nil, fmt.Errorf("encode provider setting %s: %w", k, err)
			}
			s[k] = string(encoded)
		default:
			s[k] = fmt.Sprint(t)
		}
	}
	return s, nil
}

// Get returns the trimmed value of key, or "" when unset.
func (s Settings) Get(key string) string {
	return strings.TrimSpace(s[key])
}

// GetOr returns the value of key, or def when unset or blank.
func (s Settings) GetOr(key, def string) string {
	if v := s.Get(key); v != "" {
		return v
	}
	return def
}

// Mapping decodes a JSON object stored under key. Non-object or invalid JSON
// yields nil.
func (s Settings) Mapping(key string) map[string]string {
	raw := s.Get(key)
	if raw == "" {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil
	}
	out := make(map[string]string, len(decoded))
	for k, v := range decoded {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Bool parses 1/true/yes/on and 0/false/no/off, returning def otherwise.
func (s Settings) Bool(key string, def bool) bool {
	return ParseBool(s[key], def)
}

// Int parses an integer value, returning def when unset or malformed.
func (s Settings) Int(key string, def int) int {
	n, err := strconv.Atoi(s.Get(key))
	if err != nil {
		return def
	}
	return n
}

// Duration parses a Go duration ("15s") or a whole number of seconds,
// returning def when unset, malformed or not positive.
func (s Settings) Duration(key string, def time.Duration) time.Duration {
	raw := s.Get(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

// Merge returns a copy of s overlaid with other; other wins on conflicts.
func (s Settings) Merge(other Settings) Settings {
	out := make(Settings, len(s)+len(other))
	maps.Copy(out, s)
	maps.Copy(out, other)
	return out
}

// Masked returns a copy safe for logging, with secret-looking values masked.
func (s Settings) Masked() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		if isSensitive(k) {
			out[k] = MaskValue(v)
			continue
		}
		out[k] = v
	}
	return out
}

// ParseBool interprets common textual booleans.
func ParseBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// MaskValue hides a secret, keeping the first and last two characters of
// values longer than four characters.
func MaskValue(v string) string {
	r := []rune(strings.TrimSpace(v))
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:2]) + "…" + string(r[len(r)-2:])
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, token := range sensitiveTokens {
		if strings.Contains(k, token) {
			return true
		}
	}
	return false
}
