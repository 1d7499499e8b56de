// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schema

import (
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/recall/core"
)

// Extractor applies collection configuration to raw source properties,
// producing typed metadata records. Extraction is closed-world: only
// declared fields are considered, and present-but-unparsable values are
// skipped rather than coerced to defaults.
type Extractor struct {
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewExtractor creates a metadata extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: slog.Default().With("component", "metadata-extractor")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds a MetadataRecord for a document from its raw properties.
// cfg may be nil (collection without configuration); the result is then an
// empty record and ingestion proceeds with reduced filterability.
func (e *Extractor) Extract(documentId core.ID, collectionId string, props map[string]any, cfg *CollectionConfig) *core.MetadataRecord {
	record := &core.MetadataRecord{
		DocumentId:   documentId,
		CollectionId: collectionId,
		Fields:       make(map[string]core.FieldValue),
	}
	if cfg == nil {
		return record
	}

	for name, spec := range cfg.Fields {
		raw, present := props[spec.SourceField]
		if !present || raw == nil {
			continue
		}
		value, ok := convertValue(raw, spec.Type)
		if !ok {
			// Type mismatch: skipped, never coerced to a default.
			e.logger.Warn("skipping unparsable metadata value",
				"collection", collectionId, "field", name,
				"sourceField", spec.SourceField, "declaredType", spec.Type.String())
			continue
		}
		record.Fields[name] = value
	}
	return record
}

// convertValue converts one raw property value to its declared type.
// Raw values arrive as JSON-decoded shapes from the workspace source:
// scalars, lists, or objects with conventional keys ("name" for choice
// options, "start"/"end" for date ranges, "plain_text" for rich text runs).
func convertValue(raw any, declared core.FieldType) (core.FieldValue, bool) {
	switch declared {
	case core.FieldTypeText, core.FieldTypeRichText:
		if s, ok := flattenText(raw); ok {
			return core.FieldValue{Type: declared, Text: s}, true
		}
	case core.FieldTypeNumber:
		if n, ok := asNumber(raw); ok {
			return core.FieldValue{Type: declared, Number: n}, true
		}
	case core.FieldTypeSingleChoice:
		if label, ok := asLabel(raw); ok {
			return core.FieldValue{Type: declared, Text: label}, true
		}
	case core.FieldTypeMultiChoice:
		if labels, ok := asLabels(raw); ok {
			return core.FieldValue{Type: declared, Labels: labels}, true
		}
	case core.FieldTypeDate:
		if ts, ok := asDateStart(raw); ok {
			return core.FieldValue{Type: declared, Date: ts}, true
		}
	case core.FieldTypeBool:
		if b, ok := raw.(bool); ok {
			return core.FieldValue{Type: declared, Bool: b}, true
		}
	}
	return core.FieldValue{}, false
}

// flattenText flattens a string, a rich-text run object, or a list of
// runs into a single string.
func flattenText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case map[string]any:
		if s, ok := v["plain_text"].(string); ok {
			return s, true
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := flattenText(item)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ""), true
	}
	return "", false
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// asLabel accepts a bare label or a choice option object.
func asLabel(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case map[string]any:
		if s, ok := v["name"].(string); ok {
			return s, true
		}
	}
	return "", false
}

// asLabels preserves the source ordering of multi-choice options.
func asLabels(raw any) ([]string, bool) {
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	labels := make([]string, 0, len(items))
	for _, item := range items {
		label, ok := asLabel(item)
		if !ok {
			return nil, false
		}
		labels = append(labels, label)
	}
	return labels, true
}

// asDateStart extracts the range start of a date value.
func asDateStart(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case string:
		return parseDate(v)
	case map[string]any:
		if s, ok := v["start"].(string); ok {
			return parseDate(s)
		}
	case time.Time:
		return v, true
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
