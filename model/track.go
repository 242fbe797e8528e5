package model

import "time"

// Track represents an uploaded audio track in the station library.
// A track is immutable after ingestion; the playlist and broadcast state
// reference it by ID only.
type Track struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	StorageKey   string    `json:"-" gorm:"size:255;uniqueIndex"` // Object/file key, not exposed in API
	OriginalName string    `json:"originalName" gorm:"size:255"`
	Title        string    `json:"title" gorm:"size:255"`
	Artist       string    `json:"artist" gorm:"size:255"`
	Duration     float64   `json:"duration"` // Declared duration in seconds, 0 = unknown
	ContentType  string    `json:"-" gorm:"size:64"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// TableName keeps the GORM migration aligned with the raw-SQL repository.
func (Track) TableName() string { return "tracks" }
