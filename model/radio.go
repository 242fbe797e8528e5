package model

import "time"

// BroadcastMode 电台当前的播出模式
type BroadcastMode string

const (
	ModeIdle     BroadcastMode = "idle"
	ModeLive     BroadcastMode = "live"
	ModePlaylist BroadcastMode = "playlist"
)

// LiveMetadata 直播元数据，直播开始时由管理端提供
type LiveMetadata struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Description string `json:"description"`
}

// StatusSnapshot is a read-only, point-in-time view of the broadcast state.
// It is what new subscribers receive on connect and what /status returns.
type StatusSnapshot struct {
	Mode           BroadcastMode `json:"mode"`
	IsLive         bool          `json:"isLive"`
	CurrentTrack   *Track        `json:"currentTrack,omitempty"`
	Metadata       LiveMetadata  `json:"metadata"`
	PlaylistLength int           `json:"playlistLength"`
	Listeners      int           `json:"listeners"`
	StartedAt      time.Time     `json:"startedAt"`
}

// PlaylistView 播放列表的对外视图
type PlaylistView struct {
	Playlist     []*Track `json:"playlist"`
	CurrentTrack *Track   `json:"currentTrack,omitempty"`
}
