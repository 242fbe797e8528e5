package repository

import (
	"context"
	"sort"
	"sync"

	"PellinesFM/model"
)

// memoryTrackRepository keeps track records in process memory. Used when no
// database is configured and throughout the test suite.
type memoryTrackRepository struct {
	mu     sync.RWMutex
	tracks map[string]*model.Track
}

// NewMemoryTrackRepository creates an empty in-memory repository.
func NewMemoryTrackRepository() TrackRepository {
	return &memoryTrackRepository{tracks: make(map[string]*model.Track)}
}

func (r *memoryTrackRepository) CreateTrack(ctx context.Context, track *model.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *track
	r.tracks[track.ID] = &cp
	return nil
}

func (r *memoryTrackRepository) GetTrackByID(ctx context.Context, id string) (*model.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	track, ok := r.tracks[id]
	if !ok {
		return nil, nil // Track not found
	}
	cp := *track
	return &cp, nil
}

func (r *memoryTrackRepository) GetAllTracks(ctx context.Context) ([]*model.Track, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tracks := make([]*model.Track, 0, len(r.tracks))
	for _, track := range r.tracks {
		cp := *track
		tracks = append(tracks, &cp)
	}
	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].UploadedAt.Equal(tracks[j].UploadedAt) {
			return tracks[i].ID < tracks[j].ID
		}
		return tracks[i].UploadedAt.Before(tracks[j].UploadedAt)
	})
	return tracks, nil
}

func (r *memoryTrackRepository) DeleteTrack(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tracks, id)
	return nil
}
