package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Writes go through DocumentRepository.ReplaceDocument; this repository
// only reads and scans.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetChunk retrieves one chunk by its (documentId, seq) address.
func (r *ChunkRepository) GetChunk(ctx context.Context, documentId core.ID, seq int) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChunkKey(documentId, seq))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalChunk(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// GetChunks retrieves all chunks of a document ordered by sequence.
// BigEndian sequence encoding in the key makes iteration order the
// sequence order.
func (r *ChunkRepository) GetChunks(ctx context.Context, documentId core.ID) ([]core.Chunk, error) {
	var results []core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(documentId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				results = append(results, *chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return results, err
}

// FindSimilar finds chunks similar to the given vector, blending the
// contextual and plain similarities per the weights.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, weights storage.ChunkScoreWeights, minSimilarity float32, limit int, allowed storage.IDFilter) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.ContentVector) == 0 {
				continue
			}
			if allowed != nil && !allowed(chunk.DocumentId) {
				continue
			}

			plain := dotProduct(vector, chunk.ContentVector)
			score := plain
			signal := core.SignalChunkContent
			if chunk.HasContextVector() {
				contextual := dotProduct(vector, chunk.ContextVector)
				score = weights.Contextual*contextual + weights.Content*plain
				signal = core.SignalChunkFused
			}

			if score >= minSimilarity {
				results = append(results, &core.SearchResult{
					Kind:   core.KindChunk,
					Chunk:  chunk,
					Score:  score,
					Signal: signal,
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortResultsByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
