package station

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"PellinesFM/cache"
	"PellinesFM/logger"
	"PellinesFM/model"
	"PellinesFM/repository"
	"PellinesFM/storage"

	"github.com/google/uuid"
)

// Station 是广播协调器，持有全部权威状态：曲目库索引、播放列表和
// 当前播出状态。所有状态变更都在同一把锁内完成，管理操作和自动切歌
// 永远不会交错出不一致的中间态。
type Station struct {
	repo   repository.TrackRepository
	store  storage.AudioStore
	states *cache.StateCache
	hub    *Hub

	defaultMeta    model.LiveMetadata
	defaultAdvance time.Duration
	maxUploadBytes int64
	allowedMime    map[string]bool

	now func() time.Time

	mu              sync.RWMutex
	playlist        *Playlist
	mode            model.BroadcastMode
	currentTrackID  string
	currentDuration float64 // seconds, 0 = unknown
	liveMeta        model.LiveMetadata
	startedAt       time.Time

	streamListeners atomic.Int64
	changed         chan struct{} // 状态变更信号，调度器据此重置定时器
}

// Options configures a Station.
type Options struct {
	Repo                   repository.TrackRepository
	Store                  storage.AudioStore
	StateCache             *cache.StateCache
	DefaultMetadata        model.LiveMetadata
	DefaultAdvanceInterval time.Duration
	MaxUploadBytes         int64
	AllowedMimeTypes       []string
	Now                    func() time.Time // test hook, defaults to time.Now
}

// New creates a Station in IDLE mode with an empty playlist.
func New(opts Options) *Station {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultAdvanceInterval <= 0 {
		opts.DefaultAdvanceInterval = 30 * time.Second
	}

	allowed := make(map[string]bool, len(opts.AllowedMimeTypes))
	for _, m := range opts.AllowedMimeTypes {
		allowed[m] = true
	}

	s := &Station{
		repo:           opts.Repo,
		store:          opts.Store,
		states:         opts.StateCache,
		defaultMeta:    opts.DefaultMetadata,
		defaultAdvance: opts.DefaultAdvanceInterval,
		maxUploadBytes: opts.MaxUploadBytes,
		allowedMime:    allowed,
		now:            opts.Now,
		playlist:       NewPlaylist(),
		mode:           model.ModeIdle,
		liveMeta:       opts.DefaultMetadata,
		startedAt:      opts.Now(),
		changed:        make(chan struct{}, 1),
	}
	s.hub = NewHub(s)
	return s
}

// Hub returns the event fan-out hub.
func (s *Station) Hub() *Hub {
	return s.hub
}

// Store returns the audio byte store; the stream handler opens assets
// through it directly.
func (s *Station) Store() storage.AudioStore {
	return s.store
}

// Ingest validates and stores an uploaded track: bytes first, then the
// metadata record, then the playlist reference, then the track-added event.
// A validation failure rejects the payload before anything is written; a
// record failure rolls the stored bytes back, so no orphan survives.
func (s *Station) Ingest(ctx context.Context, r io.Reader, size int64, contentType, originalName, title, artist string, duration float64) (*model.Track, error) {
	if !s.allowedMime[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMediaType, contentType)
	}
	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrSizeExceeded, size)
	}

	if title == "" {
		title = originalName
	}
	if artist == "" {
		artist = "Unknown Artist"
	}

	key := storage.NewObjectKey(originalName)
	if err := s.store.Save(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}

	track := &model.Track{
		ID:           uuid.NewString(),
		StorageKey:   key,
		OriginalName: originalName,
		Title:        title,
		Artist:       artist,
		Duration:     duration,
		ContentType:  contentType,
		Size:         size,
		UploadedAt:   s.now(),
	}

	if err := s.repo.CreateTrack(ctx, track); err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			logger.Error("failed to roll back stored bytes after record failure",
				logger.String("key", key),
				logger.ErrorField(rmErr))
		}
		return nil, err
	}

	s.mu.Lock()
	s.playlist.Append(track.ID)
	s.mu.Unlock()

	s.persist(ctx)
	s.publish(EventTrackAdded, TrackAddedData{Track: track})

	logger.Info("track ingested",
		logger.String("trackId", track.ID),
		logger.String("title", track.Title),
		logger.Int64("size", track.Size))
	return track, nil
}

// SelectTrack puts the given playlist track on air ("play this now").
func (s *Station) SelectTrack(ctx context.Context, trackID string) (*model.Track, error) {
	track, err := s.repo.GetTrackByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, ErrTrackNotFound
	}

	s.mu.Lock()
	if err := s.playlist.SetCurrent(trackID); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mode = model.ModePlaylist
	s.currentTrackID = trackID
	s.currentDuration = track.Duration
	s.liveMeta = playingMetadata(track)
	s.startedAt = s.now()
	meta := s.liveMeta
	s.mu.Unlock()

	s.persist(ctx)
	s.publish(EventTrackChanged, TrackChangedData{Track: track, Metadata: meta})
	s.signalChanged()

	logger.Info("track selected",
		logger.String("trackId", trackID),
		logger.String("title", track.Title))
	return track, nil
}

// StartLive switches to LIVE mode. Any current-track association is cleared
// and auto-advance stops touching the state until the live feed ends.
func (s *Station) StartLive(ctx context.Context, meta model.LiveMetadata) model.LiveMetadata {
	merged := s.defaultMeta
	if meta.Title != "" {
		merged.Title = meta.Title
	}
	if meta.Artist != "" {
		merged.Artist = meta.Artist
	}
	if meta.Description != "" {
		merged.Description = meta.Description
	}

	s.mu.Lock()
	s.mode = model.ModeLive
	s.currentTrackID = ""
	s.currentDuration = 0
	s.playlist.ClearCurrent()
	s.liveMeta = merged
	s.startedAt = s.now()
	s.mu.Unlock()

	s.persist(ctx)
	s.publish(EventLiveStarted, LiveStartedData{Metadata: merged})
	s.signalChanged()

	logger.Info("live broadcast started", logger.String("title", merged.Title))
	return merged
}

// StopLive returns to IDLE. Resuming the playlist takes an explicit
// SelectTrack; IDLE is the conservative default.
func (s *Station) StopLive(ctx context.Context) {
	s.mu.Lock()
	if s.mode != model.ModeLive {
		s.mu.Unlock()
		return
	}
	s.mode = model.ModeIdle
	s.liveMeta = s.defaultMeta
	s.startedAt = s.now()
	s.mu.Unlock()

	s.persist(ctx)
	s.publish(EventLiveStopped, nil)
	s.signalChanged()

	logger.Info("live broadcast stopped")
}

// Advance moves to the next playlist entry, wrapping after the last. In any
// mode other than PLAYLIST it mutates nothing. An empty playlist transitions
// to IDLE. Manual selection and scheduler ticks both land here, so listeners
// cannot tell them apart.
func (s *Station) Advance(ctx context.Context) (*model.Track, bool) {
	s.mu.Lock()
	if s.mode != model.ModePlaylist {
		s.mu.Unlock()
		return nil, false
	}

	var track *model.Track
	// A dangling reference here means a deletion raced ahead of us; drop the
	// entry and keep going instead of putting a ghost on air.
	for attempts := s.playlist.Len(); attempts > 0; attempts-- {
		id, ok := s.playlist.Advance()
		if !ok {
			break
		}
		t, err := s.repo.GetTrackByID(ctx, id)
		if err != nil {
			logger.Error("failed to resolve next track", logger.String("trackId", id), logger.ErrorField(err))
			break
		}
		if t == nil {
			logger.Warn("dropping dangling playlist reference", logger.String("trackId", id))
			s.playlist.Remove(id)
			continue
		}
		track = t
		break
	}

	if track == nil {
		s.mode = model.ModeIdle
		s.currentTrackID = ""
		s.currentDuration = 0
		s.liveMeta = s.defaultMeta
		s.startedAt = s.now()
		s.mu.Unlock()

		s.persist(ctx)
		s.publishStatus(ctx)
		s.signalChanged()
		return nil, false
	}

	s.currentTrackID = track.ID
	s.currentDuration = track.Duration
	s.liveMeta = playingMetadata(track)
	s.startedAt = s.now()
	meta := s.liveMeta
	s.mu.Unlock()

	s.persist(ctx)
	s.publish(EventTrackChanged, TrackChangedData{Track: track, Metadata: meta})
	s.signalChanged()

	logger.Info("advanced to next track",
		logger.String("trackId", track.ID),
		logger.String("title", track.Title))
	return track, true
}

// RemoveTrack deletes a track as one logical unit: playlist and broadcast
// references are unlinked first under the lock, events go out, and only then
// are the record and the bytes removed. A crash in between can orphan bytes
// but never leaves the state pointing at a nonexistent track.
func (s *Station) RemoveTrack(ctx context.Context, trackID string) error {
	track, err := s.repo.GetTrackByID(ctx, trackID)
	if err != nil {
		return err
	}
	if track == nil {
		return ErrTrackNotFound
	}

	s.mu.Lock()
	_, wasCurrent, newCurrentID := s.playlist.Remove(trackID)

	var next *model.Track
	becameIdle := false
	if wasCurrent && s.mode == model.ModePlaylist {
		if newCurrentID == "" {
			s.mode = model.ModeIdle
			s.currentTrackID = ""
			s.currentDuration = 0
			s.liveMeta = s.defaultMeta
			s.startedAt = s.now()
			becameIdle = true
		} else if t, err := s.repo.GetTrackByID(ctx, newCurrentID); err == nil && t != nil {
			next = t
			s.currentTrackID = t.ID
			s.currentDuration = t.Duration
			s.liveMeta = playingMetadata(t)
			s.startedAt = s.now()
		} else {
			// Next reference did not resolve either; fall back to IDLE.
			s.playlist.ClearCurrent()
			s.mode = model.ModeIdle
			s.currentTrackID = ""
			s.currentDuration = 0
			s.liveMeta = s.defaultMeta
			s.startedAt = s.now()
			becameIdle = true
		}
	} else if s.currentTrackID == trackID {
		s.currentTrackID = ""
		s.currentDuration = 0
	}
	meta := s.liveMeta
	s.mu.Unlock()

	s.persist(ctx)
	s.publish(EventTrackRemoved, TrackRemovedData{TrackID: trackID})
	if next != nil {
		s.publish(EventTrackChanged, TrackChangedData{Track: next, Metadata: meta})
	}
	if becameIdle {
		s.publishStatus(ctx)
	}
	s.signalChanged()

	if err := s.repo.DeleteTrack(ctx, trackID); err != nil {
		logger.Error("failed to delete track record after unlinking references",
			logger.String("trackId", trackID),
			logger.ErrorField(err))
		return err
	}
	if err := s.store.Remove(ctx, track.StorageKey); err != nil {
		// References are gone, so this only orphans bytes. Data-integrity
		// fault: logged, not surfaced to the caller.
		logger.Error("failed to delete track bytes",
			logger.String("trackId", trackID),
			logger.String("key", track.StorageKey),
			logger.ErrorField(err))
	}

	logger.Info("track removed", logger.String("trackId", trackID))
	return nil
}

// HandleAssetMissing reconciles state after an asset's bytes disappeared
// outside the coordinator (watcher callback). The metadata record and every
// reference to it are dropped, same as an administrative delete.
func (s *Station) HandleAssetMissing(key string) {
	ctx := context.Background()

	tracks, err := s.repo.GetAllTracks(ctx)
	if err != nil {
		logger.Error("failed to list tracks during asset sweep", logger.ErrorField(err))
		return
	}

	for _, t := range tracks {
		if t.StorageKey != key {
			continue
		}
		logger.Error("asset bytes missing for known track, clearing references",
			logger.String("trackId", t.ID),
			logger.String("key", key))
		if err := s.RemoveTrack(ctx, t.ID); err != nil {
			logger.Error("asset sweep failed", logger.String("trackId", t.ID), logger.ErrorField(err))
		}
		return
	}
}

// ActiveTrack resolves which asset /stream should serve right now. It is
// called per request, never cached per connection, so a track change is
// picked up by the next request.
func (s *Station) ActiveTrack(ctx context.Context) (*model.Track, error) {
	s.mu.RLock()
	mode := s.mode
	id := s.currentTrackID
	s.mu.RUnlock()

	if mode != model.ModePlaylist || id == "" {
		return nil, ErrNoActiveTrack
	}

	track, err := s.repo.GetTrackByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, ErrNoActiveTrack
	}
	return track, nil
}

// Snapshot returns a consistent, point-in-time view of the broadcast state.
func (s *Station) Snapshot(ctx context.Context) *model.StatusSnapshot {
	s.mu.RLock()
	mode := s.mode
	id := s.currentTrackID
	meta := s.liveMeta
	length := s.playlist.Len()
	startedAt := s.startedAt
	s.mu.RUnlock()

	snap := &model.StatusSnapshot{
		Mode:           mode,
		IsLive:         mode == model.ModeLive,
		Metadata:       meta,
		PlaylistLength: length,
		Listeners:      s.ListenerCount(),
		StartedAt:      startedAt,
	}

	if id != "" {
		if track, err := s.repo.GetTrackByID(ctx, id); err == nil && track != nil {
			snap.CurrentTrack = track
		}
	}
	return snap
}

// PlaylistView returns the ordered playlist with resolved track metadata.
func (s *Station) PlaylistView(ctx context.Context) (*model.PlaylistView, error) {
	s.mu.RLock()
	ids := s.playlist.IDs()
	currentID := s.playlist.CurrentID()
	s.mu.RUnlock()

	view := &model.PlaylistView{Playlist: make([]*model.Track, 0, len(ids))}
	for _, id := range ids {
		track, err := s.repo.GetTrackByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if track == nil {
			continue
		}
		view.Playlist = append(view.Playlist, track)
		if id == currentID {
			view.CurrentTrack = track
		}
	}
	return view, nil
}

// NextAdvanceDelay computes how long the scheduler should sleep before the
// next tick: the remainder of the current track's declared duration, or the
// configured fallback when the duration is unknown or nothing is playing.
func (s *Station) NextAdvanceDelay() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.mode != model.ModePlaylist || s.currentTrackID == "" || s.currentDuration <= 0 {
		return s.defaultAdvance
	}

	remaining := s.startedAt.Add(secondsToDuration(s.currentDuration)).Sub(s.now())
	if remaining < 250*time.Millisecond {
		return 250 * time.Millisecond
	}
	return remaining
}

// AddStreamListener counts an open /stream connection.
func (s *Station) AddStreamListener() {
	s.streamListeners.Add(1)
}

// RemoveStreamListener releases a /stream connection.
func (s *Station) RemoveStreamListener() {
	s.streamListeners.Add(-1)
}

// ListenerCount is a live derived metric: event subscribers plus open
// stream connections.
func (s *Station) ListenerCount() int {
	return s.hub.ClientCount() + int(s.streamListeners.Load())
}

// Restore reloads persisted state and sweeps out references whose track or
// asset no longer exists, so a crash mid-delete cannot leave the state
// pointing at a ghost after restart.
func (s *Station) Restore(ctx context.Context) error {
	if s.states == nil {
		return nil
	}

	saved, err := s.states.LoadState(ctx)
	if err != nil {
		return err
	}
	if saved == nil {
		// Nothing persisted; rebuild the playlist from the track library.
		tracks, err := s.repo.GetAllTracks(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		for _, t := range tracks {
			s.playlist.Append(t.ID)
		}
		s.mu.Unlock()
		return nil
	}

	order := make([]string, 0, len(saved.Order))
	for _, id := range saved.Order {
		track, err := s.repo.GetTrackByID(ctx, id)
		if err != nil {
			return err
		}
		if track == nil {
			logger.Warn("dropping persisted reference to deleted track", logger.String("trackId", id))
			continue
		}
		if src, _, err := s.store.Open(ctx, track.StorageKey); err != nil {
			logger.Error("asset bytes missing on startup, dropping track",
				logger.String("trackId", id),
				logger.String("key", track.StorageKey))
			continue
		} else {
			src.Close()
		}
		order = append(order, id)
	}

	currentID := saved.CurrentTrackID
	mode := saved.Mode
	var currentDuration float64
	if currentID != "" {
		found := false
		for _, id := range order {
			if id == currentID {
				found = true
				break
			}
		}
		if !found {
			logger.Warn("persisted current track no longer exists, clearing pointer",
				logger.String("trackId", currentID))
			currentID = ""
			if mode == model.ModePlaylist {
				mode = model.ModeIdle
			}
		} else if track, err := s.repo.GetTrackByID(ctx, currentID); err == nil && track != nil {
			currentDuration = track.Duration
		}
	}
	// A live feed does not survive a restart.
	if mode == model.ModeLive || mode == "" {
		mode = model.ModeIdle
	}
	if mode == model.ModePlaylist && currentID == "" {
		mode = model.ModeIdle
	}

	s.mu.Lock()
	s.playlist.Restore(order, currentID)
	s.mode = mode
	s.currentTrackID = currentID
	s.currentDuration = currentDuration
	if mode == model.ModeIdle {
		s.liveMeta = s.defaultMeta
	} else {
		s.liveMeta = saved.LiveMetadata
	}
	s.startedAt = s.now()
	s.mu.Unlock()

	s.persist(ctx)
	logger.Info("broadcast state restored",
		logger.String("mode", string(mode)),
		logger.Int("playlistLength", len(order)))
	return nil
}

// TransitionSignal fires after every state transition; the scheduler uses it
// to re-arm its timer against the new current track.
func (s *Station) TransitionSignal() <-chan struct{} {
	return s.changed
}

func (s *Station) signalChanged() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Station) persist(ctx context.Context) {
	if s.states == nil {
		return
	}

	s.mu.RLock()
	state := &cache.PersistedState{
		Mode:           s.mode,
		CurrentTrackID: s.currentTrackID,
		LiveMetadata:   s.liveMeta,
		Order:          s.playlist.IDs(),
		StartedAt:      s.startedAt,
	}
	s.mu.RUnlock()

	if err := s.states.SaveState(ctx, state); err != nil {
		logger.Warn("failed to persist broadcast state", logger.ErrorField(err))
	}
}

func (s *Station) publish(t EventType, payload interface{}) {
	evt, err := newEvent(t, payload)
	if err != nil {
		logger.Error("failed to build event", logger.String("type", string(t)), logger.ErrorField(err))
		return
	}
	s.hub.Publish(evt)
}

func (s *Station) publishStatus(ctx context.Context) {
	s.publish(EventStatus, s.Snapshot(ctx))
}

func playingMetadata(track *model.Track) model.LiveMetadata {
	return model.LiveMetadata{
		Title:       track.Title,
		Artist:      track.Artist,
		Description: fmt.Sprintf("Reproduciendo: %s - %s", track.Title, track.Artist),
	}
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
