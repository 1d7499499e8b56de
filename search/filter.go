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

package search

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// Operator is the closed set of predicate operators.
type Operator int

const (
	// OpEquals matches text, choice, number, boolean, and date fields
	// against a single value.
	OpEquals Operator = iota + 1
	// OpIn matches text and single-choice fields against a label set.
	OpIn
	// OpContains matches multi-choice fields that carry every listed label.
	OpContains
	// OpRange matches number and date fields against inclusive bounds.
	OpRange
)

// Predicate is one metadata constraint. Field names the canonical
// configured field, not the source property.
type Predicate struct {
	Field string
	Op    Operator

	// Value is the OpEquals operand: string, float64, bool, or time.Time
	// to match the field's declared type.
	Value any

	// Values are the OpIn / OpContains operands.
	Values []string

	// Min and Max bound OpRange, each float64 or time.Time. A nil bound
	// is open.
	Min any
	Max any
}

// matches reports whether the record satisfies the predicate. A missing
// field never matches; neither does a type mismatch between the operand
// and the field's declared type.
func (p Predicate) matches(record *core.MetadataRecord) bool {
	fv, ok := record.Fields[p.Field]
	if !ok {
		return false
	}

	switch p.Op {
	case OpEquals:
		return matchEquals(fv, p.Value)
	case OpIn:
		return slices.Contains(p.Values, fieldLabel(fv))
	case OpContains:
		if fv.Type != core.FieldTypeMultiChoice || len(p.Values) == 0 {
			return false
		}
		for _, want := range p.Values {
			if !slices.Contains(fv.Labels, want) {
				return false
			}
		}
		return true
	case OpRange:
		return matchRange(fv, p.Min, p.Max)
	default:
		return false
	}
}

func matchEquals(fv core.FieldValue, operand any) bool {
	switch fv.Type {
	case core.FieldTypeText, core.FieldTypeRichText, core.FieldTypeSingleChoice:
		want, ok := operand.(string)
		return ok && fieldLabel(fv) == want
	case core.FieldTypeNumber:
		want, ok := operand.(float64)
		return ok && fv.Number == want
	case core.FieldTypeBool:
		want, ok := operand.(bool)
		return ok && fv.Bool == want
	case core.FieldTypeDate:
		want, ok := operand.(time.Time)
		return ok && fv.Date.Equal(want)
	default:
		return false
	}
}

func matchRange(fv core.FieldValue, min, max any) bool {
	switch fv.Type {
	case core.FieldTypeNumber:
		if lo, ok := min.(float64); ok && fv.Number < lo {
			return false
		}
		if hi, ok := max.(float64); ok && fv.Number > hi {
			return false
		}
		return min != nil || max != nil
	case core.FieldTypeDate:
		if lo, ok := min.(time.Time); ok && fv.Date.Before(lo) {
			return false
		}
		if hi, ok := max.(time.Time); ok && fv.Date.After(hi) {
			return false
		}
		return min != nil || max != nil
	default:
		return false
	}
}

// fieldLabel is the comparable string form of text-like field values.
func fieldLabel(fv core.FieldValue) string {
	return fv.Text
}

// resolveAllowed builds the hard pre-filter for a request. The returned
// filter is nil when the request carries no constraints. constrained
// distinguishes an unconstrained request from one whose constraints
// matched nothing.
func (s *Searcher) resolveAllowed(ctx context.Context, req Request) (storage.IDFilter, bool, int, error) {
	if len(req.CollectionIDs) == 0 && len(req.Filters) == 0 {
		return nil, false, 0, nil
	}

	allowed := make(map[core.ID]struct{})

	add := func(records []*core.MetadataRecord) {
		for _, record := range records {
			if matchesAll(record, req.Filters) {
				allowed[record.DocumentId] = struct{}{}
			}
		}
	}

	switch {
	case len(req.CollectionIDs) > 0 && len(req.Filters) == 0:
		// Collection scoping alone needs no metadata records.
		for _, collectionId := range req.CollectionIDs {
			ids, err := s.documents.GetDocumentIDsByCollection(ctx, collectionId)
			if err != nil {
				return nil, true, 0, err
			}
			for _, id := range ids {
				allowed[id] = struct{}{}
			}
		}

	case len(req.CollectionIDs) > 0:
		for _, collectionId := range req.CollectionIDs {
			records, err := s.metadata.GetMetadataByCollection(ctx, collectionId)
			if err != nil {
				return nil, true, 0, err
			}
			add(records)
		}

	default:
		// Predicates without collection scoping walk every document.
		err := s.documents.IterateDocuments(ctx, func(doc *core.Document) (bool, error) {
			record, err := s.metadata.GetMetadata(ctx, doc.Id)
			if errors.Is(err, storage.ErrNotFound) {
				return true, nil // documents without metadata never match
			}
			if err != nil {
				return false, err
			}
			if matchesAll(record, req.Filters) {
				allowed[doc.Id] = struct{}{}
			}
			return true, nil
		})
		if err != nil {
			return nil, true, 0, err
		}
	}

	filter := func(id core.ID) bool {
		_, ok := allowed[id]
		return ok
	}
	return filter, true, len(allowed), nil
}

func matchesAll(record *core.MetadataRecord, predicates []Predicate) bool {
	for _, p := range predicates {
		if !p.matches(record) {
			return false
		}
	}
	return true
}
