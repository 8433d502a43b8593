package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Monitoring loop.
	TargetPorts        []string
	SearchRadiusKm     int
	MonitorInterval    time.Duration
	MonitorConcurrency int

	// Analysis parameters.
	MaxBerths               int
	PriorityHours           float64
	ArrivalWindowHours      int
	SeriesProjections       bool
	ProjectionHorizonHours  int
	ProjectionIntervalHours int

	// Vessel cache.
	CacheDir   string
	CacheTTL   time.Duration
	CacheFirst bool

	// Provider selection. Provider-specific keys are read by the provider
	// package directly.
	ProviderMode       string
	ProviderConfigFile string

	// Report publishing.
	KafkaReportsEnabled bool
	KafkaBrokers        []string
	KafkaReportTopic    string
}

const defaultCacheTTLMinutes = 5

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	interval, err := parseDuration("MONITOR_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TargetPorts:     splitList(sharedcfg.EnvOrDefault("TARGET_PORTS", "Naples,Salerno,Civitavecchia")),
		MonitorInterval: interval,

		CacheDir:   sharedcfg.EnvOrDefault("DATA_CACHE_DIR", "data/cache"),
		CacheTTL:   time.Duration(parseCacheTTLMinutes()) * time.Minute,
		CacheFirst: parseBool("DATA_CACHE_FIRST"),

		ProviderMode:       strings.TrimSpace(os.Getenv("DATA_PROVIDER_MODE")),
		ProviderConfigFile: os.Getenv("PROVIDER_CONFIG_FILE"),

		KafkaReportsEnabled: parseBool("KAFKA_REPORTS_ENABLED"),
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:    sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "port-traffic-reports"),

		SeriesProjections: parseBool("ENABLE_SERIES_PROJECTIONS"),
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"SEARCH_RADIUS_KM", 50, &cfg.SearchRadiusKm},
		{"MONITOR_CONCURRENCY", 4, &cfg.MonitorConcurrency},
		{"MAX_BERTHS", 10, &cfg.MaxBerths},
		{"ARRIVAL_WINDOW_HOURS", 6, &cfg.ArrivalWindowHours},
		{"PROJECTION_HORIZON_HOURS", 48, &cfg.ProjectionHorizonHours},
		{"PROJECTION_INTERVAL_HOURS", 6, &cfg.ProjectionIntervalHours},
	}
	for _, f := range ints {
		n, err := parsePositiveInt(f.key, f.def)
		if err != nil {
			return nil, err
		}
		*f.dest = n
	}

	cfg.PriorityHours, err = parsePriorityHours()
	if err != nil {
		return nil, err
	}

	if len(cfg.TargetPorts) == 0 {
		return nil, errors.New("TARGET_PORTS is required")
	}
	if cfg.KafkaReportsEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_REPORTS_ENABLED is true")
		}
		if cfg.KafkaReportTopic == "" {
			return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_REPORTS_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parsePriorityHours() (float64, error) {
	s := os.Getenv("PRIORITY_HOURS")
	if s == "" {
		return 12, nil
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || h < 0 {
		return 0, errors.New("invalid PRIORITY_HOURS: must be a non-negative number")
	}
	return h, nil
}

// parseCacheTTLMinutes falls back to the default on anything unparsable
// rather than failing startup.
func parseCacheTTLMinutes() int {
	if s := os.Getenv("DATA_CACHE_TTL_MINUTES"); s != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return n
		}
	}
	return defaultCacheTTLMinutes
}

// splitList splits a comma-separated value, trimming entries and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
