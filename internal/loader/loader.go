// Package loader reads client portfolio exports and market snapshots from
// disk and cleans them into the typed records the engine consumes.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/models"
	"github.com/bobmcallan/advisor/internal/sector"
)

// Format is the on-disk encoding of a portfolio or market file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unsupported file type %q (want .csv or .json)", models.ErrInvalidInput, filepath.Ext(path))
}

// Loader cleans portfolio and market files. It holds no per-file state and is
// safe for concurrent use.
type Loader struct {
	normalizer    *sector.Normalizer
	marketSectors map[string]string
	logger        *common.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithNormalizer sets the normalizer used to derive *_std sector fields.
func WithNormalizer(n *sector.Normalizer) Option {
	return func(l *Loader) {
		if n != nil {
			l.normalizer = n
		}
	}
}

// WithMarketSectors supplies a security name to sector label table used for
// market rows that carry no sector of their own.
func WithMarketSectors(m map[string]string) Option {
	return func(l *Loader) {
		l.marketSectors = make(map[string]string, len(m))
		for name, label := range m {
			l.marketSectors[nameKey(name)] = label
		}
	}
}

// WithLogger sets the logger for cleaning diagnostics.
func WithLogger(logger *common.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loader with the default normalizer and a silent logger.
func New(opts ...Option) *Loader {
	l := &Loader{
		normalizer: sector.Default(),
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// table is a decoded file: the set of column names plus one map per row, keyed
// by the cleaned column name.
type table struct {
	columns map[string]struct{}
	rows    []map[string]any
}

func (t *table) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// readTable decodes a CSV or JSON (array of objects) stream, renaming each
// column with rename and skipping columns for which rename returns "".
func readTable(r io.Reader, format Format, rename func(string) string) (*table, error) {
	switch format {
	case FormatCSV:
		return readCSV(r, rename)
	case FormatJSON:
		return readJSON(r, rename)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", models.ErrInvalidInput, format)
}

func readCSV(r io.Reader, rename func(string) string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &table{columns: map[string]struct{}{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	names := make([]string, len(header))
	t := &table{columns: make(map[string]struct{}, len(header))}
	for i, h := range header {
		names[i] = rename(strings.TrimPrefix(h, "\ufeff"))
		if names[i] != "" {
			t.columns[names[i]] = struct{}{}
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(t.rows)+1, err)
		}
		row := make(map[string]any, len(names))
		for i, value := range record {
			if i >= len(names) || names[i] == "" {
				continue
			}
			row[names[i]] = value
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func readJSON(r io.Reader, rename func(string) string) (*table, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of objects: %v", models.ErrInvalidInput, err)
	}

	t := &table{columns: map[string]struct{}{}, rows: make([]map[string]any, 0, len(raw))}
	for _, obj := range raw {
		row := make(map[string]any, len(obj))
		for k, v := range obj {
			name := rename(k)
			if name == "" {
				continue
			}
			t.columns[name] = struct{}{}
			row[name] = v
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func openFile(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return f, info, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
