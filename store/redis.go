package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/russe11bryan/TripTally-sub000/models"
)

const (
	stateKeyPrefix    = "triptally:state:"
	forecastKeyPrefix = "triptally:forecast:"
	cameraKeyPrefix   = "triptally:camera:"
	cameraSetKey      = "triptally:cameras"
)

// RedisStore implements Store on Redis. Records are JSON blobs; state and
// forecast keys carry the soft TTL so stale data simply disappears.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) SaveCIState(ctx context.Context, state *models.CIState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKeyPrefix+state.CameraID, data, s.ttl).Err()
}

func (s *RedisStore) GetCIState(ctx context.Context, cameraID string) (*models.CIState, error) {
	val, err := s.client.Get(ctx, stateKeyPrefix+cameraID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state models.CIState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveForecast replaces any prior vector for the camera. SET is already a
// full replace, so no delete is needed first.
func (s *RedisStore) SaveForecast(ctx context.Context, forecast *models.CIForecast) error {
	data, err := json.Marshal(forecast)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, forecastKeyPrefix+forecast.CameraID, data, s.ttl).Err()
}

func (s *RedisStore) GetForecast(ctx context.Context, cameraID string) (*models.CIForecast, error) {
	val, err := s.client.Get(ctx, forecastKeyPrefix+cameraID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var forecast models.CIForecast
	if err := json.Unmarshal([]byte(val), &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

func (s *RedisStore) SaveCameraMetadata(ctx context.Context, camera models.Camera) error {
	data, err := json.Marshal(camera)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, cameraKeyPrefix+camera.CameraID, data, 0)
	pipe.SAdd(ctx, cameraSetKey, camera.CameraID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) GetCameraMetadata(ctx context.Context, cameraID string) (*models.Camera, error) {
	val, err := s.client.Get(ctx, cameraKeyPrefix+cameraID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var camera models.Camera
	if err := json.Unmarshal([]byte(val), &camera); err != nil {
		return nil, err
	}
	return &camera, nil
}

func (s *RedisStore) ListCameras(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, cameraSetKey).Result()
}

func (s *RedisStore) HealthCheck(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
