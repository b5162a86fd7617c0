package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kevmo314/go-bomc1/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// redisClient is the subset of *redis.Client the sink uses.
type redisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Close() error
}

// RedisSink publishes records on a pub/sub channel and keeps the most
// recent ones in a per-device list.
type RedisSink struct {
	client     redisClient
	channel    string
	historyLen int64
	log        logrus.FieldLogger
}

// NewRedisSink connects to the configured server and pings it.
func NewRedisSink(ctx context.Context, cfg config.RedisConfig, log logrus.FieldLogger) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.WithField("addr", cfg.Addr).Info("connected to redis")
	return newRedisSink(client, cfg, log), nil
}

func newRedisSink(client redisClient, cfg config.RedisConfig, log logrus.FieldLogger) *RedisSink {
	return &RedisSink{
		client:     client,
		channel:    cfg.Channel,
		historyLen: cfg.HistoryLen,
		log:        log,
	}
}

func (s *RedisSink) Name() string {
	return "redis"
}

// HistoryKey returns the list a device's records are kept in.
func HistoryKey(deviceID string) string {
	return fmt.Sprintf("bomc1:%s:spectra", deviceID)
}

func (s *RedisSink) Publish(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.channel, err)
	}

	if s.historyLen <= 0 {
		return nil
	}

	// History failures fail the publish even though the channel got the record.
	key := HistoryKey(rec.DeviceID)
	if err := s.client.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append history %s: %w", key, err)
	}
	if err := s.client.LTrim(ctx, key, 0, s.historyLen-1).Err(); err != nil {
		return fmt.Errorf("failed to trim history %s: %w", key, err)
	}
	s.log.WithField("key", key).Debug("spectrum history updated")
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
