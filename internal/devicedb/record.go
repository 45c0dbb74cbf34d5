package devicedb

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

// Manufacturers decodes from either a single string or a list of strings.
type Manufacturers []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Manufacturers) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*m = Manufacturers{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*m = list
		return nil
	default:
		return fmt.Errorf("manufacturer: expected string or list at line %d", node.Line)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Manufacturers) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = Manufacturers{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("manufacturer: expected string or list: %w", err)
	}
	*m = list
	return nil
}

// Record describes one database device entry.
type Record struct {
	Manufacturer Manufacturers       `yaml:"manufacturer" json:"manufacturer"`
	Models       []string            `yaml:"models" json:"models"`
	Model        []string            `yaml:"model,omitempty" json:"model,omitempty"`
	Services     []accessory.Service `yaml:"services" json:"services"`
}

// ModelList returns models, falling back to the model alias.
func (r Record) ModelList() []string {
	if len(r.Models) > 0 {
		return r.Models
	}
	return r.Model
}

// Validate checks that the record can be registered.
func (r Record) Validate() error {
	if len(r.Manufacturer) == 0 {
		return fmt.Errorf("%w: missing manufacturer", ErrInvalidRecord)
	}
	for _, m := range r.Manufacturer {
		if m == "" {
			return fmt.Errorf("%w: empty manufacturer", ErrInvalidRecord)
		}
	}
	models := r.ModelList()
	if len(models) == 0 {
		return fmt.Errorf("%w: missing models", ErrInvalidRecord)
	}
	for _, m := range models {
		if m == "" {
			return fmt.Errorf("%w: empty model", ErrInvalidRecord)
		}
	}
	for i, s := range r.Services {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: service %d: %w", ErrInvalidRecord, i, err)
		}
	}
	return nil
}
