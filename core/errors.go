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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyExternalID indicates the ExternalId field is empty.
	ErrEmptyExternalID = errors.New("external id cannot be empty")

	// ErrEmptyCollectionID indicates the CollectionId field is empty.
	ErrEmptyCollectionID = errors.New("collection id cannot be empty")

	// ErrInvalidState indicates an illegal document state transition.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrChunkSequenceGap indicates chunk sequence indices are not
	// contiguous from zero.
	ErrChunkSequenceGap = errors.New("chunk sequence indices must be contiguous from 0")

	// ErrChunkSpanGap indicates chunk spans do not cover the document
	// content without gaps.
	ErrChunkSpanGap = errors.New("chunk spans must cover the content without gaps")

	// ErrInvalidFieldType indicates a FieldType outside the declared closed set.
	ErrInvalidFieldType = errors.New("invalid field type")
)
