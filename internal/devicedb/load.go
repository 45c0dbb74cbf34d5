package devicedb

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed database.yaml
var defaultDatabase []byte

// document is the top-level shape of a database file.
type document struct {
	Devices []Record `yaml:"devices" json:"devices"`
}

// Format selects the decoder.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// Load decodes a database document from r. Records are returned in file order.
func Load(r io.Reader, format Format) ([]Record, error) {
	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	default:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}
	return doc.Devices, nil
}

// LoadFile reads a database file. Files ending in .json are decoded as
// JSON, anything else as YAML.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("opening device database: %w", err)
	}
	defer f.Close()

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	records, err := Load(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Default returns the records of the built-in database.
func Default() ([]Record, error) {
	return Load(bytes.NewReader(defaultDatabase), FormatYAML)
}
