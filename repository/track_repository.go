package repository

import (
	"context"
	"database/sql"
	"fmt"

	"PellinesFM/db"
	"PellinesFM/model"
)

// TrackRepository defines the interface for track metadata operations.
// GetTrackByID returns (nil, nil) when the track does not exist; the
// coordinator layer turns that into its own not-found error.
type TrackRepository interface {
	CreateTrack(ctx context.Context, track *model.Track) error
	GetTrackByID(ctx context.Context, id string) (*model.Track, error)
	GetAllTracks(ctx context.Context) ([]*model.Track, error)
	DeleteTrack(ctx context.Context, id string) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository
// over the shared database connection.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

// CreateTrack adds a new track record to the database.
func (r *mysqlTrackRepository) CreateTrack(ctx context.Context, track *model.Track) error {
	query := `INSERT INTO tracks (id, storage_key, original_name, title, artist, duration, content_type, size, uploaded_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, query,
		track.ID, track.StorageKey, track.OriginalName, track.Title, track.Artist,
		track.Duration, track.ContentType, track.Size, track.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to execute CreateTrack: %w", err)
	}
	return nil
}

// GetTrackByID retrieves a track by its ID.
func (r *mysqlTrackRepository) GetTrackByID(ctx context.Context, id string) (*model.Track, error) {
	query := `SELECT id, storage_key, original_name, title, artist, duration, content_type, size, uploaded_at
	           FROM tracks WHERE id = ?`
	row := r.DB.QueryRowContext(ctx, query, id)

	track := &model.Track{}
	err := row.Scan(&track.ID, &track.StorageKey, &track.OriginalName, &track.Title,
		&track.Artist, &track.Duration, &track.ContentType, &track.Size, &track.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %s: %w", id, err)
	}
	return track, nil
}

// GetAllTracks retrieves all tracks in upload order.
func (r *mysqlTrackRepository) GetAllTracks(ctx context.Context) ([]*model.Track, error) {
	query := `SELECT id, storage_key, original_name, title, artist, duration, content_type, size, uploaded_at
	           FROM tracks ORDER BY uploaded_at ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track := &model.Track{}
		err := rows.Scan(&track.ID, &track.StorageKey, &track.OriginalName, &track.Title,
			&track.Artist, &track.Duration, &track.ContentType, &track.Size, &track.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in GetAllTracks: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllTracks: %w", err)
	}

	return tracks, nil
}

// DeleteTrack removes a track record.
func (r *mysqlTrackRepository) DeleteTrack(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteTrack for ID %s: %w", id, err)
	}
	return nil
}
