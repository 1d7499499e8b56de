package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the persisted domain types.
// FieldValue is a type-tagged union carried in a map, which the musgen
// struct options cannot express, so the codecs are maintained by hand
// in the generated-code shape. Field order follows struct declaration
// order and must not change without a storage migration.

var (
	vectorMUS      = ord.NewSliceSer[float32](varint.Float32)
	stringSliceMUS = ord.NewSliceSer[string](ord.String)
	timeMUS        = raw.TimeUnixMicro

	// IDMUS serializes core.ID values.
	IDMUS = idMUS{}
	// DocumentMUS serializes core.Document values.
	DocumentMUS = documentMUS{}
	// ChunkMUS serializes core.Chunk values.
	ChunkMUS = chunkMUS{}
	// FieldValueMUS serializes core.FieldValue values.
	FieldValueMUS = fieldValueMUS{}
	// MetadataRecordMUS serializes core.MetadataRecord values.
	MetadataRecordMUS = metadataRecordMUS{}
	// ConfigSnapshotMUS serializes core.ConfigSnapshot values.
	ConfigSnapshotMUS = configSnapshotMUS{}

	fieldsMUS = ord.NewMapSer[string, FieldValue](ord.String, FieldValueMUS)
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.ExternalId, bs[n:])
	n += ord.String.Marshal(d.CollectionId, bs[n:])
	n += ord.String.Marshal(d.Title, bs[n:])
	n += ord.String.Marshal(d.Content, bs[n:])
	n += varint.Int.Marshal(int(d.ContentType), bs[n:])
	n += timeMUS.Marshal(d.CreatedAt, bs[n:])
	n += timeMUS.Marshal(d.ModifiedAt, bs[n:])
	n += vectorMUS.Marshal(d.ContentVector, bs[n:])
	n += ord.String.Marshal(d.Summary, bs[n:])
	n += vectorMUS.Marshal(d.SummaryVector, bs[n:])
	n += varint.Int.Marshal(d.TokenCount, bs[n:])
	n += stringSliceMUS.Marshal(d.MediaRefs, bs[n:])
	n += ord.String.Marshal(d.ContentHash, bs[n:])
	n += varint.Int.Marshal(int(d.State), bs[n:])
	n += ord.String.Marshal(d.StateReason, bs[n:])
	n += timeMUS.Marshal(d.InsertedAt, bs[n:])
	n += timeMUS.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var n1 int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.ExternalId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.CollectionId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var ct int
	if ct, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	d.ContentType = ContentType(ct)
	n += n1
	if d.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.ModifiedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.ContentVector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.SummaryVector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.MediaRefs, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var st int
	if st, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	d.State = DocumentState(st)
	n += n1
	if d.StateReason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (documentMUS) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.ExternalId)
	size += ord.String.Size(d.CollectionId)
	size += ord.String.Size(d.Title)
	size += ord.String.Size(d.Content)
	size += varint.Int.Size(int(d.ContentType))
	size += timeMUS.Size(d.CreatedAt)
	size += timeMUS.Size(d.ModifiedAt)
	size += vectorMUS.Size(d.ContentVector)
	size += ord.String.Size(d.Summary)
	size += vectorMUS.Size(d.SummaryVector)
	size += varint.Int.Size(d.TokenCount)
	size += stringSliceMUS.Size(d.MediaRefs)
	size += ord.String.Size(d.ContentHash)
	size += varint.Int.Size(int(d.State))
	size += ord.String.Size(d.StateReason)
	size += timeMUS.Size(d.InsertedAt)
	size += timeMUS.Size(d.UpdatedAt)
	return size
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.DocumentId, bs)
	n += varint.Int.Marshal(c.Seq, bs[n:])
	n += varint.Int.Marshal(c.Start, bs[n:])
	n += varint.Int.Marshal(c.End, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += ord.String.Marshal(c.Context, bs[n:])
	n += ord.String.Marshal(c.Section, bs[n:])
	n += varint.Int.Marshal(c.TokenCount, bs[n:])
	n += ord.Bool.Marshal(c.Enriched, bs[n:])
	n += vectorMUS.Marshal(c.ContentVector, bs[n:])
	n += vectorMUS.Marshal(c.ContextVector, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.DocumentId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.Seq, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Start, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.End, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Context, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Section, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.Enriched, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.ContentVector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.ContextVector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.DocumentId)
	size += varint.Int.Size(c.Seq)
	size += varint.Int.Size(c.Start)
	size += varint.Int.Size(c.End)
	size += ord.String.Size(c.Text)
	size += ord.String.Size(c.Context)
	size += ord.String.Size(c.Section)
	size += varint.Int.Size(c.TokenCount)
	size += ord.Bool.Size(c.Enriched)
	size += vectorMUS.Size(c.ContentVector)
	size += vectorMUS.Size(c.ContextVector)
	return size
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type fieldValueMUS struct{}

func (fieldValueMUS) Marshal(v FieldValue, bs []byte) (n int) {
	n = varint.Int.Marshal(int(v.Type), bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Float64.Marshal(v.Number, bs[n:])
	n += stringSliceMUS.Marshal(v.Labels, bs[n:])
	n += timeMUS.Marshal(v.Date, bs[n:])
	n += ord.Bool.Marshal(v.Bool, bs[n:])
	return n
}

func (fieldValueMUS) Unmarshal(bs []byte) (v FieldValue, n int, err error) {
	var n1 int
	var t int
	if t, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	v.Type = FieldType(t)
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Number, n1, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Labels, n1, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Date, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Bool, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (fieldValueMUS) Size(v FieldValue) (size int) {
	size = varint.Int.Size(int(v.Type))
	size += ord.String.Size(v.Text)
	size += varint.Float64.Size(v.Number)
	size += stringSliceMUS.Size(v.Labels)
	size += timeMUS.Size(v.Date)
	size += ord.Bool.Size(v.Bool)
	return size
}

func (s fieldValueMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type metadataRecordMUS struct{}

func (metadataRecordMUS) Marshal(r MetadataRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.DocumentId, bs)
	n += ord.String.Marshal(r.CollectionId, bs[n:])
	n += fieldsMUS.Marshal(r.Fields, bs[n:])
	n += timeMUS.Marshal(r.InsertedAt, bs[n:])
	n += timeMUS.Marshal(r.UpdatedAt, bs[n:])
	return n
}

func (metadataRecordMUS) Unmarshal(bs []byte) (r MetadataRecord, n int, err error) {
	var n1 int
	if r.DocumentId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.CollectionId, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if r.Fields, n1, err = fieldsMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if r.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if r.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (metadataRecordMUS) Size(r MetadataRecord) (size int) {
	size = IDMUS.Size(r.DocumentId)
	size += ord.String.Size(r.CollectionId)
	size += fieldsMUS.Size(r.Fields)
	size += timeMUS.Size(r.InsertedAt)
	size += timeMUS.Size(r.UpdatedAt)
	return size
}

func (s metadataRecordMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type configSnapshotMUS struct{}

func (configSnapshotMUS) Marshal(c ConfigSnapshot, bs []byte) (n int) {
	n = ord.String.Marshal(c.CollectionId, bs)
	n += ord.String.Marshal(c.Hash, bs[n:])
	n += timeMUS.Marshal(c.LoadedAt, bs[n:])
	return n
}

func (configSnapshotMUS) Unmarshal(bs []byte) (c ConfigSnapshot, n int, err error) {
	var n1 int
	if c.CollectionId, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if c.Hash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if c.LoadedAt, n1, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (configSnapshotMUS) Size(c ConfigSnapshot) (size int) {
	size = ord.String.Size(c.CollectionId)
	size += ord.String.Size(c.Hash)
	size += timeMUS.Size(c.LoadedAt)
	return size
}

func (s configSnapshotMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
