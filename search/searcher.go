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
	"log/slog"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultLimit is the hit cap when a request leaves Limit zero.
	DefaultLimit = 10

	// DefaultMinSimilarity is the score floor when a request leaves
	// MinSimilarity zero. Candidates below the floor are dropped; the
	// floor is never lowered to fill a short result set.
	DefaultMinSimilarity = 0.60

	// DefaultSignalTimeout bounds each similarity signal. A signal that
	// misses its deadline marks the response partial instead of failing
	// the query.
	DefaultSignalTimeout = 10 * time.Second

	// Fusion weights for chunks carrying both embeddings. The contextual
	// vector dominates because it encodes the chunk's place in the
	// document.
	chunkContextualWeight = 0.7
	chunkContentWeight    = 0.3
)

// Searcher answers hybrid queries over documents and chunks. Each query
// fans out the similarity signals concurrently, applies metadata
// predicates as a hard pre-filter, and fuses the scored candidates into
// one ranked list.
type Searcher struct {
	documents     storage.DocumentRepository
	chunks        storage.ChunkRepository
	metadata      storage.MetadataRepository
	embedder      ai.Embedder
	signalTimeout time.Duration
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithSignalTimeout bounds each similarity signal's scan.
func WithSignalTimeout(timeout time.Duration) Option {
	return func(s *Searcher) error {
		if timeout > 0 {
			s.signalTimeout = timeout
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	metadata storage.MetadataRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if metadata == nil {
		return nil, ErrMetadataRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		documents:     documents,
		chunks:        chunks,
		metadata:      metadata,
		embedder:      provider.Embedder(),
		signalTimeout: DefaultSignalTimeout,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search answers one query, ranked by fused similarity score.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor answers one query with monitoring callbacks at each
// stage. Failing to embed the query is the only fatal error; a signal
// that errors or misses its deadline marks the response partial.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if req.QueryText == "" {
		return nil, ErrEmptyQuery
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.MinSimilarity <= 0 {
		req.MinSimilarity = DefaultMinSimilarity
	}

	monitor.Start(req.QueryText)

	vector, err := s.embedder.EmbedText(ctx, req.QueryText)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", req.QueryText, "err", err)
		return nil, err
	}
	vector = ingestion.NormalizeVector(vector)
	monitor.QueryEmbedded(len(vector))

	allowed, constrained, allowedCount, err := s.resolveAllowed(ctx, req)
	if err != nil {
		return nil, err
	}
	monitor.AllowedResolved(allowedCount, constrained)
	if constrained && allowedCount == 0 {
		response := &Response{Hits: []Hit{}}
		monitor.Finish(response.Hits, false)
		return response, nil
	}

	signals := s.scanSignals(ctx, req, vector, allowed, monitor)

	partial := false
	docBest := make(map[core.ID]*core.SearchResult)
	var chunkHits []*core.SearchResult
	for _, sig := range signals {
		if sig.err != nil {
			s.logger.Warn("similarity signal missed", "signal", sig.name, "err", sig.err)
			monitor.SignalMissed(sig.name, sig.err)
			partial = true
			continue
		}
		monitor.SignalComplete(sig.name, len(sig.results))

		for _, result := range sig.results {
			switch result.Kind {
			case core.KindDocument:
				// Document fusion takes the stronger of the content and
				// summary similarities.
				current, ok := docBest[result.Document.Id]
				if !ok || result.Score > current.Score {
					docBest[result.Document.Id] = result
				}
			case core.KindChunk:
				chunkHits = append(chunkHits, result)
			}
		}
	}

	hits, err := s.buildHits(ctx, req, docBest, chunkHits, monitor)
	if err != nil {
		return nil, err
	}
	if len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}

	monitor.Finish(hits, partial)
	return &Response{Hits: hits, Partial: partial}, nil
}

type signalScan struct {
	name    string
	results []*core.SearchResult
	err     error
}

// scanSignals runs the similarity scans concurrently, each under its
// own deadline. The chunk scan fuses the plain and contextual chunk
// signals in a single pass since fusion needs both similarities for the
// same chunk.
func (s *Searcher) scanSignals(ctx context.Context, req Request, vector []float32, allowed storage.IDFilter, monitor SearchMonitor) []signalScan {
	scans := []signalScan{
		{name: "document_content"},
		{name: "document_summary"},
		{name: "chunks"},
	}

	run := func(idx int, scan func(context.Context) ([]*core.SearchResult, error)) {
		scanCtx, cancel := context.WithTimeout(ctx, s.signalTimeout)
		defer cancel()
		scans[idx].results, scans[idx].err = scan(scanCtx)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		run(0, func(scanCtx context.Context) ([]*core.SearchResult, error) {
			return s.documents.FindSimilar(scanCtx, vector, storage.VectorFieldContent, req.MinSimilarity, req.Limit, allowed)
		})
	}()
	go func() {
		defer wg.Done()
		run(1, func(scanCtx context.Context) ([]*core.SearchResult, error) {
			return s.documents.FindSimilar(scanCtx, vector, storage.VectorFieldSummary, req.MinSimilarity, req.Limit, allowed)
		})
	}()
	go func() {
		defer wg.Done()
		run(2, func(scanCtx context.Context) ([]*core.SearchResult, error) {
			weights := storage.ChunkScoreWeights{
				Content:    chunkContentWeight,
				Contextual: chunkContextualWeight,
			}
			return s.chunks.FindSimilar(scanCtx, vector, weights, req.MinSimilarity, req.Limit, allowed)
		})
	}()
	wg.Wait()

	return scans
}

// buildHits turns scored candidates into ranked hits, fetching parent
// documents for chunk candidates to fill titles, modification times,
// and adjacency.
func (s *Searcher) buildHits(ctx context.Context, req Request, docBest map[core.ID]*core.SearchResult, chunkHits []*core.SearchResult, monitor SearchMonitor) ([]Hit, error) {
	parents := make(map[core.ID]*core.Document, len(docBest))
	for id, result := range docBest {
		parents[id] = result.Document
	}

	missing := make([]core.ID, 0, len(chunkHits))
	for _, result := range chunkHits {
		if _, ok := parents[result.Chunk.DocumentId]; !ok {
			missing = append(missing, result.Chunk.DocumentId)
		}
	}
	if len(missing) > 0 {
		docs, err := s.documents.GetDocuments(ctx, missing...)
		if err != nil {
			s.logger.Error("error retrieving chunk parent documents", "count", len(missing), "err", err)
			return nil, err
		}
		for _, doc := range docs {
			parents[doc.Id] = doc
		}
	}

	hits := make([]Hit, 0, len(docBest)+len(chunkHits))
	modified := make(map[core.ID]time.Time, len(parents))
	for id, doc := range parents {
		modified[id] = doc.ModifiedAt
	}

	for id, result := range docBest {
		doc := result.Document
		monitor.HitScored(core.KindDocument, id, result.Score)
		hits = append(hits, Hit{
			Kind:       core.KindDocument,
			DocumentId: id,
			Seq:        -1,
			Title:      doc.Title,
			Snippet:    makeSnippet(doc.Content, req.QueryText),
			Score:      result.Score,
			Signal:     result.Signal,
		})
	}

	for _, result := range chunkHits {
		c := result.Chunk
		doc, ok := parents[c.DocumentId]
		if !ok {
			// Parent vanished between the scan and the lookup.
			continue
		}
		monitor.HitScored(core.KindChunk, c.DocumentId, result.Score)
		hits = append(hits, Hit{
			Kind:               core.KindChunk,
			DocumentId:         c.DocumentId,
			Seq:                c.Seq,
			Title:              doc.Title,
			Snippet:            makeSnippet(c.Text, req.QueryText),
			Score:              result.Score,
			Signal:             result.Signal,
			HasAdjacentContext: c.Seq > 0 || c.End < utf8.RuneCountInString(doc.Content),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		mi, mj := modified[hits[i].DocumentId], modified[hits[j].DocumentId]
		if !mi.Equal(mj) {
			return mi.After(mj)
		}
		if hits[i].DocumentId != hits[j].DocumentId {
			return hits[i].DocumentId < hits[j].DocumentId
		}
		return hits[i].Seq < hits[j].Seq
	})

	return hits, nil
}
