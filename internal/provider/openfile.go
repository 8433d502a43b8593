package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
)

// OpenFile reads vessels from a local open-data export. The file is re-read
// on every fetch so updated exports are picked up without a restart.
type OpenFile struct {
	source
	path string
}

// NewOpenFile creates a file provider; the file must exist.
func NewOpenFile(cfg OpenFileConfig, opts ...Option) (*OpenFile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &OpenFile{
		source: newSource(cfg.ProviderName(), 0, buildOptions(opts)),
		path:   cfg.Path,
	}, nil
}

func openFileFromSettings(s Settings, opts ...Option) (Provider, error) {
	path := s.Get(KeyOpenDataFile)
	if path == "" {
		return nil, nil
	}
	return NewOpenFile(OpenFileConfig{Path: path}, opts...)
}

// FetchVessels parses the file according to its extension: .csv with a header
// row, .json as a list or an object holding "features" or "data", and
// .geojson feature collections.
func (p *OpenFile) FetchVessels(_ context.Context, port string, _ int) ([]domain.Vessel, error) {
	var (
		records []any
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(p.path)); ext {
	case ".json", ".geojson":
		records, err = p.readJSON()
	case ".csv":
		records, err = p.readCSV()
	default:
		return nil, newError(p.name, KindUnsupported, "unsupported file format %q, use CSV, JSON or GeoJSON", ext)
	}
	if err != nil {
		return nil, err
	}
	return p.normalize(records, port), nil
}

func (p *OpenFile) readJSON() ([]any, error) {
	body, err := os.ReadFile(p.path)
	if err != nil {
		return nil, newError(p.name, KindTransport, "read %s: %w", p.path, err)
	}
	payload, err := decodeJSON(body)
	if err != nil {
		return nil, newError(p.name, KindMalformed, "%s: %w", p.path, err)
	}

	switch t := payload.(type) {
	case []any:
		return t, nil
	case map[string]any:
		if features, ok := listUnder(t, "features"); ok {
			return features, nil
		}
		if data, ok := listUnder(t, "data"); ok {
			return data, nil
		}
	}
	return nil, newError(p.name, KindUnsupported, "%s: expected a list, a feature collection or a data object", p.path)
}

func (p *OpenFile) readCSV() ([]any, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, newError(p.name, KindTransport, "open %s: %w", p.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, newError(p.name, KindMalformed, "%s header: %w", p.path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records []any
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newError(p.name, KindMalformed, "%s line %d: %w", p.path, line, err)
		}
		rec := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
