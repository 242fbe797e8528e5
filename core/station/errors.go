package station

import "errors"

// Broadcast coordinator error taxonomy. The HTTP layer maps these with
// errors.Is onto status codes; nothing here carries transport concerns.
var (
	// ErrInvalidMediaType is returned when an upload declares a MIME type
	// outside the configured audio allow-list.
	ErrInvalidMediaType = errors.New("invalid media type")

	// ErrSizeExceeded is returned when an upload exceeds the configured
	// maximum size. The payload is rejected before any byte is stored.
	ErrSizeExceeded = errors.New("file size exceeded")

	// ErrTrackNotFound is returned when a referenced track does not exist.
	ErrTrackNotFound = errors.New("track not found")

	// ErrNotInPlaylist is returned when selecting a track that was never
	// added to the playlist. Selection is rejected, not an implicit insert.
	ErrNotInPlaylist = errors.New("track not in playlist")

	// ErrNoActiveTrack is returned when a stream is requested while no
	// playlist track is on air.
	ErrNoActiveTrack = errors.New("no track currently playing")

	// ErrAssetMissing means track metadata exists but the underlying bytes
	// are gone. This is a data-integrity fault, logged distinctly from a
	// plain not-found.
	ErrAssetMissing = errors.New("track asset missing")

	// ErrRangeNotSatisfiable is returned for byte ranges outside the asset
	// bounds or malformed Range headers.
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")
)
