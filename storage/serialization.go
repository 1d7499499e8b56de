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

package storage

import (
	"github.com/poiesic/recall/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalMetadataRecord serializes a MetadataRecord to bytes.
func MarshalMetadataRecord(record *core.MetadataRecord) []byte {
	buf := make([]byte, core.MetadataRecordMUS.Size(*record))
	core.MetadataRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalMetadataRecord deserializes a MetadataRecord from bytes.
func UnmarshalMetadataRecord(data []byte) (*core.MetadataRecord, error) {
	record, _, err := core.MetadataRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalConfigSnapshot serializes a ConfigSnapshot to bytes.
func MarshalConfigSnapshot(snapshot *core.ConfigSnapshot) []byte {
	buf := make([]byte, core.ConfigSnapshotMUS.Size(*snapshot))
	core.ConfigSnapshotMUS.Marshal(*snapshot, buf)
	return buf
}

// UnmarshalConfigSnapshot deserializes a ConfigSnapshot from bytes.
func UnmarshalConfigSnapshot(data []byte) (*core.ConfigSnapshot, error) {
	snapshot, _, err := core.ConfigSnapshotMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
