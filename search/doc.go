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

// Package search provides hybrid retrieval over documents and chunks.
//
// The Searcher type fans out the similarity signals concurrently:
//   - Document content and document summary embeddings
//   - Chunk embeddings, fusing plain and contextual similarity
//     (0.7 contextual, 0.3 plain) when a chunk carries both
//
// Metadata predicates and collection scoping resolve to a hard
// pre-filter before any candidate is scored. Results are ranked by
// fused score with most-recently-modified documents breaking ties; a
// signal that errors or misses its deadline marks the response partial
// rather than failing the query.
package search
