package repository

import (
	"context"
	"testing"
	"time"

	"PellinesFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCRUD(t *testing.T) {
	repo := NewMemoryTrackRepository()
	ctx := context.Background()

	track := &model.Track{
		ID:         "t1",
		StorageKey: "k1",
		Title:      "uno",
		Artist:     "tester",
		UploadedAt: time.Now(),
	}
	require.NoError(t, repo.CreateTrack(ctx, track))

	got, err := repo.GetTrackByID(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "uno", got.Title)

	// 不存在的ID返回 (nil, nil)，不是错误
	missing, err := repo.GetTrackByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.DeleteTrack(ctx, "t1"))
	gone, err := repo.GetTrackByID(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryTrackRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateTrack(ctx, &model.Track{ID: "t1", Title: "original"}))

	got, err := repo.GetTrackByID(ctx, "t1")
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := repo.GetTrackByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title, "callers must not share the stored record")
}

func TestMemoryRepositoryOrdersByUploadTime(t *testing.T) {
	repo := NewMemoryTrackRepository()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateTrack(ctx, &model.Track{ID: "c", UploadedAt: base.Add(2 * time.Minute)}))
	require.NoError(t, repo.CreateTrack(ctx, &model.Track{ID: "a", UploadedAt: base}))
	require.NoError(t, repo.CreateTrack(ctx, &model.Track{ID: "b", UploadedAt: base.Add(time.Minute)}))

	all, err := repo.GetAllTracks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "c", all[2].ID)
}
