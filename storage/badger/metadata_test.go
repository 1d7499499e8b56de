package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

func TestPutAndGetMetadata(t *testing.T) {
	_, _, metaRepo := newTestRepos(t)
	ctx := context.Background()

	record := &core.MetadataRecord{
		DocumentId:   core.IDFromContent("page-1"),
		CollectionId: "tasks",
		Fields: map[string]core.FieldValue{
			"status":   {Type: core.FieldTypeSingleChoice, Text: "Published"},
			"priority": {Type: core.FieldTypeNumber, Number: 3},
		},
	}
	_, err := metaRepo.PutMetadata(ctx, record)
	require.NoError(t, err)
	assert.False(t, record.InsertedAt.IsZero())

	got, err := metaRepo.GetMetadata(ctx, record.DocumentId)
	require.NoError(t, err)
	assert.Equal(t, "tasks", got.CollectionId)
	assert.Equal(t, "Published", got.Fields["status"].Text)
	assert.Equal(t, float64(3), got.Fields["priority"].Number)
}

func TestGetMetadataNotFound(t *testing.T) {
	_, _, metaRepo := newTestRepos(t)

	_, err := metaRepo.GetMetadata(context.Background(), core.ID(404))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetMetadataByCollection(t *testing.T) {
	_, _, metaRepo := newTestRepos(t)
	ctx := context.Background()

	for _, ext := range []string{"a", "b"} {
		_, err := metaRepo.PutMetadata(ctx, &core.MetadataRecord{
			DocumentId:   core.IDFromContent(ext),
			CollectionId: "tasks",
			Fields:       map[string]core.FieldValue{},
		})
		require.NoError(t, err)
	}
	_, err := metaRepo.PutMetadata(ctx, &core.MetadataRecord{
		DocumentId:   core.IDFromContent("c"),
		CollectionId: "notes",
		Fields:       map[string]core.FieldValue{},
	})
	require.NoError(t, err)

	records, err := metaRepo.GetMetadataByCollection(ctx, "tasks")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPutMetadataMovesCollectionIndex(t *testing.T) {
	_, _, metaRepo := newTestRepos(t)
	ctx := context.Background()

	record := &core.MetadataRecord{
		DocumentId:   core.IDFromContent("page-1"),
		CollectionId: "tasks",
		Fields:       map[string]core.FieldValue{},
	}
	_, err := metaRepo.PutMetadata(ctx, record)
	require.NoError(t, err)

	record.CollectionId = "archive"
	_, err = metaRepo.PutMetadata(ctx, record)
	require.NoError(t, err)

	records, err := metaRepo.GetMetadataByCollection(ctx, "tasks")
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = metaRepo.GetMetadataByCollection(ctx, "archive")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConfigSnapshotRoundTrip(t *testing.T) {
	_, _, metaRepo := newTestRepos(t)
	ctx := context.Background()

	_, err := metaRepo.GetConfigSnapshot(ctx, "tasks")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	snapshot := core.ConfigSnapshot{
		CollectionId: "tasks",
		Hash:         "abc123",
		LoadedAt:     time.UnixMicro(1771060013000000),
	}
	require.NoError(t, metaRepo.PutConfigSnapshot(ctx, snapshot))

	got, err := metaRepo.GetConfigSnapshot(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Hash)
	assert.Equal(t, snapshot.LoadedAt, got.LoadedAt)
}
