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

package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutDocument upserts a document record and its collection index entry.
func (r *DocumentRepository) PutDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := r.writeDocument(tx, doc); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return doc, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// DeleteDocument removes a document and every derived record.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if err := deleteDerivedRecords(tx, doc); err != nil {
			return err
		}
		if err := tx.Delete(makeCollectionKey(doc.CollectionId, id)); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ReplaceDocument atomically replaces a document's full derived state.
// The document record, the complete chunk set, and the metadata record
// commit together; the prior generation vanishes with the same commit.
func (r *DocumentRepository) ReplaceDocument(ctx context.Context, doc *core.Document, chunks []core.Chunk, record *core.MetadataRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := readDocument(tx, makeDocumentKey(doc.Id))
		if err != nil {
			return err
		}
		if old != nil {
			if err := deleteDerivedRecords(tx, old); err != nil {
				return err
			}
			doc.InsertedAt = old.InsertedAt
		}

		if err := r.writeDocument(tx, doc); err != nil {
			return err
		}

		for i := range chunks {
			chunk := &chunks[i]
			key := makeChunkKey(chunk.DocumentId, chunk.Seq)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}

		if record != nil {
			now := time.Now().UTC()
			record.InsertedAt = now
			record.UpdatedAt = now
			if err := tx.Set(makeMetadataKey(record.DocumentId), storage.MarshalMetadataRecord(record)); err != nil {
				return err
			}
			indexKey := makeMetadataCollectionKey(record.CollectionId, record.DocumentId)
			if err := tx.Set(indexKey, storage.MarshalID(record.DocumentId)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
}

// GetDocumentIDsByCollection retrieves the IDs of all documents in a collection.
func (r *DocumentRepository) GetDocumentIDsByCollection(ctx context.Context, collectionId string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialCollectionKey(collectionId)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}, false)
	return ids, err
}

// IterateDocuments calls fn for every stored document.
func (r *DocumentRepository) IterateDocuments(ctx context.Context, fn func(doc *core.Document) (bool, error)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}

			cont, err := fn(doc)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	}, false)
}

// FindSimilar finds documents whose selected embedding is similar to the
// given vector.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, field storage.VectorField, minSimilarity float32, limit int, allowed storage.IDFilter) ([]*core.SearchResult, error) {
	signal := core.SignalDocumentContent
	if field == storage.VectorFieldSummary {
		signal = core.SignalDocumentSummary
	}

	var results []*core.SearchResult
	err := r.IterateDocuments(ctx, func(doc *core.Document) (bool, error) {
		if allowed != nil && !allowed(doc.Id) {
			return true, nil
		}

		target := doc.ContentVector
		if field == storage.VectorFieldSummary {
			target = doc.SummaryVector
		}
		if len(target) == 0 {
			return true, nil
		}

		similarity := dotProduct(vector, target)
		if similarity >= minSimilarity {
			results = append(results, &core.SearchResult{
				Kind:     core.KindDocument,
				Document: doc,
				Score:    similarity,
				Signal:   signal,
			})
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	sortResultsByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Helper methods

// writeDocument stores the primary record and refreshes the collection
// index. A document moving between collections loses its old index entry
// in the same transaction; it is never listed under two collections.
func (r *DocumentRepository) writeDocument(tx *badger.Txn, doc *core.Document) error {
	now := time.Now().UTC()
	old, err := readDocument(tx, makeDocumentKey(doc.Id))
	if err != nil {
		return err
	}
	if old != nil {
		if doc.InsertedAt.IsZero() {
			doc.InsertedAt = old.InsertedAt
		}
		if old.CollectionId != doc.CollectionId {
			if err := tx.Delete(makeCollectionKey(old.CollectionId, doc.Id)); err != nil {
				return err
			}
		}
	} else if doc.InsertedAt.IsZero() {
		doc.InsertedAt = now
	}
	doc.UpdatedAt = now

	if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
		return err
	}
	indexKey := makeCollectionKey(doc.CollectionId, doc.Id)
	return tx.Set(indexKey, storage.MarshalID(doc.Id))
}

// readDocument reads a document from the transaction.
// Returns nil without error when the key is absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// deleteDerivedRecords removes a document's chunks, metadata record, and
// metadata index entry. The primary record and collection index are left
// for the caller since replacement rewrites them in place.
func deleteDerivedRecords(tx *badger.Txn, doc *core.Document) error {
	prefix := makePartialChunkKey(doc.Id)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	var chunkKeys [][]byte
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		chunkKeys = append(chunkKeys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range chunkKeys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}

	metaKey := makeMetadataKey(doc.Id)
	if _, err := tx.Get(metaKey); err == nil {
		if err := tx.Delete(metaKey); err != nil {
			return err
		}
		indexKey := makeMetadataCollectionKey(doc.CollectionId, doc.Id)
		if err := tx.Delete(indexKey); err != nil {
			return err
		}
	} else if err != badger.ErrKeyNotFound {
		return err
	}

	return nil
}

// sortResultsByScore orders results by score descending.
func sortResultsByScore(results []*core.SearchResult) {
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
}
