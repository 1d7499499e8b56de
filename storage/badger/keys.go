package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/recall/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix     = "docrec"
	documentCollectionPrefix = "doccol"
	chunkRecordPrefix        = "chkrec"
	metadataRecordPrefix     = "metrec"
	metadataCollectionPrefix = "metcol"
	configSnapshotPrefix     = "cfgsnp"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeCollectionKey generates a composite key for the collection index.
// Format: prefix:collectionId:id
func makeCollectionKey(collectionId string, id core.ID) []byte {
	buf := makePartialCollectionKey(collectionId)
	idBytes := make([]byte, 8)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(idBytes, uint64(id))
	return append(buf, idBytes...)
}

// makePartialCollectionKey generates a partial key for collection scans.
// Format: prefix:collectionId:
func makePartialCollectionKey(collectionId string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentCollectionPrefix, collectionId))
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentId:seq
func makeChunkKey(documentId core.ID, seq int) []byte {
	buf := makePartialChunkKey(documentId)
	seqBytes := make([]byte, 8)
	// Write in BigEndian order so chunks iterate in sequence order
	binary.BigEndian.PutUint64(seqBytes, uint64(seq))
	return append(buf, seqBytes...)
}

// makePartialChunkKey generates a partial key for scanning a document's chunks.
// Format: prefix:documentId
func makePartialChunkKey(documentId core.ID) []byte {
	prefix := chunkRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeMetadataKey generates a key for a metadata record by document ID.
func makeMetadataKey(documentId core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", metadataRecordPrefix, documentId))
}

// makeMetadataCollectionKey generates a composite key for the metadata
// collection index.
// Format: prefix:collectionId:documentId
func makeMetadataCollectionKey(collectionId string, documentId core.ID) []byte {
	buf := makePartialMetadataCollectionKey(collectionId)
	idBytes := make([]byte, 8)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(idBytes, uint64(documentId))
	return append(buf, idBytes...)
}

// makePartialMetadataCollectionKey generates a partial key for metadata
// collection scans.
// Format: prefix:collectionId:
func makePartialMetadataCollectionKey(collectionId string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", metadataCollectionPrefix, collectionId))
}

// makeConfigSnapshotKey generates a key for a collection's config snapshot.
func makeConfigSnapshotKey(collectionId string) []byte {
	return []byte(fmt.Sprintf("%s:%s", configSnapshotPrefix, collectionId))
}
