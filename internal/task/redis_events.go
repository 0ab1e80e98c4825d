package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	xerrors "TaskManager/internal/errors"
)

// RedisPublisherConfig 描述 Redis 事件列表的连接参数。
type RedisPublisherConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
	MaxLen   int64
}

// RedisPublisher 将事件以 JSON 形式 LPUSH 到 Redis list，并裁剪到固定长度。
type RedisPublisher struct {
	client *redis.Client
	key    string
	maxLen int64
}

// NewRedisPublisher 创建 Redis 事件发布器。
func NewRedisPublisher(ctx context.Context, cfg RedisPublisherConfig) (*RedisPublisher, error) {
	if cfg.Address == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return newRedisPublisher(client, cfg), nil
}

func newRedisPublisher(client *redis.Client, cfg RedisPublisherConfig) *RedisPublisher {
	key := cfg.Key
	if key == "" {
		key = "taskmanager:events"
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &RedisPublisher{client: client, key: key, maxLen: maxLen}
}

// Publish 将事件写入 Redis。
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeEventFailure, err, "序列化事件失败")
	}
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, p.key, payload)
		pipe.LTrim(ctx, p.key, 0, p.maxLen-1)
		return nil
	})
	if err != nil {
		return xerrors.Wrap(xerrors.CodeEventFailure, err, "Redis 发布事件失败")
	}
	return nil
}

// Close 关闭 Redis 连接。
func (p *RedisPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
