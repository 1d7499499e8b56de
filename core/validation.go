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

package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ExternalId must not be empty
//   - CollectionId must not be empty
//
// NOT validated (populated by the pipeline):
//   - Content (an empty document is marked unprocessable, not rejected here)
//   - Vectors, Summary, TokenCount, ContentHash
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ExternalId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyExternalID)
	}
	if doc.CollectionId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyCollectionID)
	}
	return nil
}

// ValidateChunkSequence validates that chunks form one legal generation
// for a document: sequence indices contiguous from 0 and character spans
// covering the content without gaps. Spans may overlap backwards by the
// chunker's declared overlap window.
func ValidateChunkSequence(chunks []Chunk, contentLen int) error {
	for i, c := range chunks {
		if c.Seq != i {
			return fmt.Errorf("%w: index %d has seq %d", ErrChunkSequenceGap, i, c.Seq)
		}
		if c.Start < 0 || c.End > contentLen || c.Start >= c.End {
			return fmt.Errorf("%w: chunk %d span [%d,%d) outside content of length %d",
				ErrInvalidChunk, i, c.Start, c.End, contentLen)
		}
	}
	if len(chunks) == 0 {
		return nil
	}
	if chunks[0].Start != 0 {
		return fmt.Errorf("%w: first chunk starts at %d", ErrChunkSpanGap, chunks[0].Start)
	}
	if chunks[len(chunks)-1].End != contentLen {
		return fmt.Errorf("%w: last chunk ends at %d of %d", ErrChunkSpanGap, chunks[len(chunks)-1].End, contentLen)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start > chunks[i-1].End {
			return fmt.Errorf("%w: gap between chunk %d and %d", ErrChunkSpanGap, i-1, i)
		}
	}
	return nil
}

// ValidateFieldType validates that a FieldType belongs to the closed set.
func ValidateFieldType(t FieldType) error {
	if t < FieldTypeText || t > FieldTypeBool {
		return fmt.Errorf("%w: value %d", ErrInvalidFieldType, t)
	}
	return nil
}

// ValidateTransition validates a document state transition.
func ValidateTransition(from, to DocumentState) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}
	return nil
}
