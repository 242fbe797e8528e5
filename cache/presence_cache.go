package cache

import (
	"context"
	"fmt"
	"time"

	"PellinesFM/db"

	"github.com/redis/go-redis/v9"
)

const (
	listenersKey = "station:listeners" // Sorted Set: listenerID -> 最后心跳时间戳
	presenceTTL  = 60 * time.Second
)

// PresenceCache 听众在线状态缓存
// 本进程内的听众数以 Hub 为准；Redis 中的心跳集合供外部仪表盘读取
type PresenceCache struct {
	client *redis.Client
}

// NewPresenceCache 创建在线状态缓存；Redis 未配置时所有操作都是空操作
func NewPresenceCache() *PresenceCache {
	return &PresenceCache{client: db.RedisClient}
}

// TouchListener 更新听众心跳
func (c *PresenceCache) TouchListener(ctx context.Context, listenerID string) error {
	if c.client == nil {
		return nil
	}

	now := time.Now()
	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, listenersKey, redis.Z{Score: float64(now.UnixMilli()), Member: listenerID})
	// 顺手清理过期的心跳
	cutoff := now.Add(-presenceTTL).UnixMilli()
	pipe.ZRemRangeByScore(ctx, listenersKey, "0", fmt.Sprintf("%d", cutoff))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to touch listener presence: %w", err)
	}
	return nil
}

// RemoveListener 移除听众心跳
func (c *PresenceCache) RemoveListener(ctx context.Context, listenerID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.ZRem(ctx, listenersKey, listenerID).Err()
}

// ActiveListenerCount 返回心跳未过期的听众数量
func (c *PresenceCache) ActiveListenerCount(ctx context.Context) (int64, error) {
	if c.client == nil {
		return 0, nil
	}

	cutoff := time.Now().Add(-presenceTTL).UnixMilli()
	return c.client.ZCount(ctx, listenersKey,
		fmt.Sprintf("%d", cutoff), "+inf").Result()
}
