package station

import (
	"encoding/json"
	"time"

	"PellinesFM/model"
)

// EventType 事件类型，事件集合是封闭的
type EventType string

const (
	EventTrackAdded   EventType = "track-added"
	EventTrackRemoved EventType = "track-removed"
	EventLiveStarted  EventType = "live-started"
	EventLiveStopped  EventType = "live-stopped"
	EventTrackChanged EventType = "track-changed"
	EventStatus       EventType = "status"
)

// Event 广播事件信封，推送给所有订阅的客户端
type Event struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// TrackAddedData 曲目上传完成
type TrackAddedData struct {
	Track *model.Track `json:"track"`
}

// TrackRemovedData 曲目被删除
type TrackRemovedData struct {
	TrackID string `json:"trackId"`
}

// LiveStartedData 直播开始
type LiveStartedData struct {
	Metadata model.LiveMetadata `json:"metadata"`
}

// TrackChangedData 当前曲目变更（手动选择或自动切换，对听众不可区分）
type TrackChangedData struct {
	Track    *model.Track       `json:"track"`
	Metadata model.LiveMetadata `json:"metadata"`
}

// newEvent wraps a typed payload into the wire envelope. Marshal failures
// cannot happen for the closed payload set, so they only surface in logs.
func newEvent(t EventType, payload interface{}) (*Event, error) {
	evt := &Event{Type: t, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		evt.Data = data
	}
	return evt, nil
}
