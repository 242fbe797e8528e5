package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PellinesFM/db"
	"PellinesFM/model"

	"github.com/redis/go-redis/v9"
)

const (
	broadcastStateKey = "station:state"
	stateTTL          = 7 * 24 * time.Hour
)

// PersistedState 广播状态的持久化形式
// 进程重启后从这里恢复播放列表顺序和当前指针，再做一致性清理
type PersistedState struct {
	Mode           model.BroadcastMode `json:"mode"`
	CurrentTrackID string              `json:"currentTrackId,omitempty"`
	LiveMetadata   model.LiveMetadata  `json:"liveMetadata"`
	Order          []string            `json:"order"`
	StartedAt      time.Time           `json:"startedAt"`
}

// StateCache 广播状态缓存操作
type StateCache struct {
	client *redis.Client
}

// NewStateCache 创建状态缓存；Redis 未配置时所有操作都是空操作
func NewStateCache() *StateCache {
	return &StateCache{client: db.RedisClient}
}

// SaveState 保存广播状态快照
func (c *StateCache) SaveState(ctx context.Context, state *PersistedState) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast state: %w", err)
	}

	if err := c.client.Set(ctx, broadcastStateKey, data, stateTTL).Err(); err != nil {
		return fmt.Errorf("failed to persist broadcast state: %w", err)
	}
	return nil
}

// LoadState 读取持久化的广播状态，不存在时返回 (nil, nil)
func (c *StateCache) LoadState(ctx context.Context) (*PersistedState, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, broadcastStateKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load broadcast state: %w", err)
	}

	state := &PersistedState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal broadcast state: %w", err)
	}
	return state, nil
}

// ClearState 删除持久化的广播状态
func (c *StateCache) ClearState(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, broadcastStateKey).Err()
}
