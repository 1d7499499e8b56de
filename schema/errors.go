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

import "errors"

var (
	// ErrUnsupportedFieldType indicates a declared type outside the closed
	// set. Loading fails fast for the offending collection.
	ErrUnsupportedFieldType = errors.New("unsupported field type")

	// ErrEmptyCollectionID indicates a collection entry without an id.
	ErrEmptyCollectionID = errors.New("collection id required")

	// ErrDuplicateCollection indicates two configuration entries share an id.
	ErrDuplicateCollection = errors.New("duplicate collection id")

	// ErrEmptySourceField indicates a field mapping without a native field name.
	ErrEmptySourceField = errors.New("source field required")
)
