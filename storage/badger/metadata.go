package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// MetadataRepository implements storage.MetadataRepository for BadgerDB.
type MetadataRepository struct {
	backend *Backend
}

var _ storage.MetadataRepository = (*MetadataRepository)(nil)

// NewMetadataRepository creates a new MetadataRepository.
func NewMetadataRepository(backend *Backend) (*MetadataRepository, error) {
	return &MetadataRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *MetadataRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *MetadataRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutMetadata upserts the metadata record for a document.
func (r *MetadataRepository) PutMetadata(ctx context.Context, record *core.MetadataRecord) (*core.MetadataRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		old, err := readMetadata(tx, makeMetadataKey(record.DocumentId))
		if err != nil {
			return err
		}
		if old != nil {
			record.InsertedAt = old.InsertedAt
			if old.CollectionId != record.CollectionId {
				if err := tx.Delete(makeMetadataCollectionKey(old.CollectionId, record.DocumentId)); err != nil {
					return err
				}
			}
		} else {
			record.InsertedAt = now
		}
		record.UpdatedAt = now

		if err := tx.Set(makeMetadataKey(record.DocumentId), storage.MarshalMetadataRecord(record)); err != nil {
			return err
		}
		indexKey := makeMetadataCollectionKey(record.CollectionId, record.DocumentId)
		if err := tx.Set(indexKey, storage.MarshalID(record.DocumentId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return record, err
}

// GetMetadata retrieves the metadata record for a document.
func (r *MetadataRepository) GetMetadata(ctx context.Context, documentId core.ID) (*core.MetadataRecord, error) {
	var result *core.MetadataRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMetadata(tx, makeMetadataKey(documentId))
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

// GetMetadataByCollection retrieves every metadata record in a collection.
func (r *MetadataRepository) GetMetadataByCollection(ctx context.Context, collectionId string) ([]*core.MetadataRecord, error) {
	var results []*core.MetadataRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialMetadataCollectionKey(collectionId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var documentId core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				documentId, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			record, err := readMetadata(tx, makeMetadataKey(documentId))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// PutConfigSnapshot records the configuration hash a collection was last
// extracted under.
func (r *MetadataRepository) PutConfigSnapshot(ctx context.Context, snapshot core.ConfigSnapshot) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConfigSnapshotKey(snapshot.CollectionId)
		if err := tx.Set(key, storage.MarshalConfigSnapshot(&snapshot)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetConfigSnapshot retrieves the last recorded configuration snapshot
// for a collection.
func (r *MetadataRepository) GetConfigSnapshot(ctx context.Context, collectionId string) (*core.ConfigSnapshot, error) {
	var result *core.ConfigSnapshot
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeConfigSnapshotKey(collectionId))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalConfigSnapshot(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// readMetadata reads a metadata record from the transaction.
// Returns nil without error when the key is absent.
func readMetadata(tx *badger.Txn, key []byte) (*core.MetadataRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.MetadataRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalMetadataRecord(val)
		return unmarshalErr
	})
	return record, err
}
