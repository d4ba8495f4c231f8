package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix     = "room:"
	gamesDealtStatKey = "stats:games_dealt"

	// 房间镜像过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间名册镜像（用于 Redis 序列化，只读旁路，不用于恢复）
type RoomData struct {
	Code    string       `json:"code"`
	Stage   string       `json:"stage"`
	Players []PlayerData `json:"players"`
	SavedAt int64        `json:"saved_at"`
}

// PlayerData 玩家名册条目
type PlayerData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveRoom 保存房间镜像到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + data.Code
	return rs.client.Set(ctx, key, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间镜像
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	key := roomKeyPrefix + code
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间镜像
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	key := roomKeyPrefix + code
	return rs.client.Del(ctx, key).Err()
}

// ListRoomCodes 获取所有房间号
func (rs *RedisStore) ListRoomCodes(ctx context.Context) ([]string, error) {
	keys, err := rs.client.Keys(ctx, roomKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	codes := make([]string, len(keys))
	for i, key := range keys {
		codes[i] = key[len(roomKeyPrefix):]
	}
	return codes, nil
}

// --- 统计 ---

// IncrGamesDealt 玩家开局次数 +1
func (rs *RedisStore) IncrGamesDealt(ctx context.Context, playerName string) error {
	return rs.client.HIncrBy(ctx, gamesDealtStatKey, playerName, 1).Err()
}

// GamesDealt 查询玩家开局次数
func (rs *RedisStore) GamesDealt(ctx context.Context, playerName string) (int64, error) {
	n, err := rs.client.HGet(ctx, gamesDealtStatKey, playerName).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
