// Package storage defines the persistence interfaces for Recall and the
// serialization helpers shared by backend implementations.
//
// Three repositories partition the stored state:
//
//   - DocumentRepository: document records, the collection index, and
//     atomic full replacement of a document's derived state
//   - ChunkRepository: chunk reads and blended-similarity scans
//   - MetadataRepository: extracted metadata and configuration snapshots
//
// Chunks and metadata are written only through
// DocumentRepository.ReplaceDocument, which commits the document record,
// the complete chunk set, and the metadata record in one transaction.
// Readers therefore never observe a document mid-replacement: either the
// entire previous generation is visible or the entire new one is.
//
// Records are serialized with the MUS binary format via the serializers
// in the core package. The badger sub-package provides the BadgerDB
// implementation used in production and, in its in-memory mode, in tests.
package storage
