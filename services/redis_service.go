package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yoona333/TelephoneSystem/config"
)

// Redis 快照键
const (
	redisKeyRecords = "vphone:call_records"
	redisKeyMerged  = "vphone:merged_records"
)

// RedisService handles Redis operations
// 仅作为记录快照的尽力而为缓存，Redis不可用时所有调用方直接跳过
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
// 未配置Redis时返回nil
func NewRedisService(cfg *config.Config) *RedisService {
	if !cfg.RedisEnabled() {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	return &RedisService{
		Client: client,
		Ctx:    context.Background(),
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheRecordsSnapshot 缓存完整记录日志快照
func (s *RedisService) CacheRecordsSnapshot(records interface{}) error {
	return s.Set(redisKeyRecords, records, 0)
}

// GetRecordsSnapshot 读取记录日志快照
func (s *RedisService) GetRecordsSnapshot(dest interface{}) error {
	return s.Get(redisKeyRecords, dest)
}

// CacheMergedSnapshot 缓存合并视图快照
func (s *RedisService) CacheMergedSnapshot(merged interface{}) error {
	return s.Set(redisKeyMerged, merged, 0)
}
