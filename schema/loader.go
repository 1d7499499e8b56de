package schema

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/poiesic/recall/core"
)

// tomlConfig mirrors the on-disk configuration format:
//
//	[[collection]]
//	id = "tasks"
//	name = "Task tracker"
//	description = "Sprint task pages"
//
//	[collection.fields.status]
//	source_field = "Status"
//	type = "single_choice"
//	description = "Publication status"
//	filterable = true
type tomlConfig struct {
	Collections []tomlCollection `toml:"collection"`
}

type tomlCollection struct {
	Id          string               `toml:"id"`
	Name        string               `toml:"name"`
	Description string               `toml:"description"`
	Fields      map[string]tomlField `toml:"fields"`
}

type tomlField struct {
	SourceField string `toml:"source_field"`
	Type        string `toml:"type"`
	Description string `toml:"description"`
	Filterable  bool   `toml:"filterable"`
}

// fieldTypeNames is the closed set of declared type spellings.
// Anything else fails loading for its collection; types are never
// inferred from field names or sampled values.
var fieldTypeNames = map[string]core.FieldType{
	"text":          core.FieldTypeText,
	"rich_text":     core.FieldTypeRichText,
	"number":        core.FieldTypeNumber,
	"single_choice": core.FieldTypeSingleChoice,
	"multi_choice":  core.FieldTypeMultiChoice,
	"date":          core.FieldTypeDate,
	"boolean":       core.FieldTypeBool,
}

// Load parses collection configuration from TOML and builds a Registry.
// A collection with an invalid field mapping is dropped with a warning;
// its siblings load normally and stay extractable.
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var parsed tomlConfig
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	configs := make([]CollectionConfig, 0, len(parsed.Collections))
	for _, tc := range parsed.Collections {
		cfg, err := buildCollection(tc)
		if err != nil {
			slog.Warn("dropping misconfigured collection", "collection", tc.Id, "err", err)
			continue
		}
		configs = append(configs, cfg)
	}

	return NewRegistry(configs)
}

// buildCollection checks one collection's field mappings against the
// closed type set.
func buildCollection(tc tomlCollection) (CollectionConfig, error) {
	cfg := CollectionConfig{
		Id:          tc.Id,
		Name:        tc.Name,
		Description: tc.Description,
		Fields:      make(map[string]FieldSpec, len(tc.Fields)),
	}
	for name, tf := range tc.Fields {
		fieldType, ok := fieldTypeNames[tf.Type]
		if !ok {
			return CollectionConfig{}, fmt.Errorf("field %q declares %q: %w",
				name, tf.Type, ErrUnsupportedFieldType)
		}
		if tf.SourceField == "" {
			return CollectionConfig{}, fmt.Errorf("field %q: %w", name, ErrEmptySourceField)
		}
		cfg.Fields[name] = FieldSpec{
			SourceField: tf.SourceField,
			Type:        fieldType,
			Description: tf.Description,
			Filterable:  tf.Filterable,
		}
	}
	return cfg, nil
}

// LoadFile parses collection configuration from a TOML file.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
