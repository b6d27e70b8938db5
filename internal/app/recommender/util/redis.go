package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"movierec/internal/app/recommender/entity"
	"movierec/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	userDetailsKeyPrefix = "user:details:"
	datasetInfoKey       = "dataset:info"
	movieListKeyPrefix   = "movies:"
)

const serviceName = "recommender"

// RedisClient - клиент кеша поверх Redis
// Кешируются производные представления (детали пользователя, сводка
// датасета, списки top/popular); таблицы-источники живут в PostgreSQL
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func userDetailsKey(userID int64) string {
	return fmt.Sprintf("%s%d", userDetailsKeyPrefix, userID)
}

func (r *RedisClient) GetUserDetails(ctx context.Context, userID int64) (*entity.UserDetailsResponse, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, userDetailsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, userDetailsKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get user details from cache: %w", err)
	}

	var details entity.UserDetailsResponse
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user details: %w", err)
	}

	metrics.RecordCacheHit(serviceName, userDetailsKeyPrefix)
	return &details, nil
}

func (r *RedisClient) SetUserDetails(ctx context.Context, userID int64, details *entity.UserDetailsResponse, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal user details: %w", err)
	}

	if err := r.client.Set(ctx, userDetailsKey(userID), data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set user details in cache: %w", err)
	}

	return nil
}

func (r *RedisClient) GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, datasetInfoKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, datasetInfoKey)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get dataset info from cache: %w", err)
	}

	var info entity.DatasetInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset info: %w", err)
	}

	metrics.RecordCacheHit(serviceName, datasetInfoKey)
	return &info, nil
}

func (r *RedisClient) SetDatasetInfo(ctx context.Context, info *entity.DatasetInfo, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset info: %w", err)
	}

	if err := r.client.Set(ctx, datasetInfoKey, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set dataset info in cache: %w", err)
	}

	return nil
}

func (r *RedisClient) GetMovieList(ctx context.Context, key string) ([]entity.MovieAggregate, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, movieListKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get movie list from cache: %w", err)
	}

	var movies []entity.MovieAggregate
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal movie list: %w", err)
	}

	metrics.RecordCacheHit(serviceName, movieListKeyPrefix)
	return movies, nil
}

func (r *RedisClient) SetMovieList(ctx context.Context, key string, movies []entity.MovieAggregate, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(movies)
	if err != nil {
		return fmt.Errorf("failed to marshal movie list: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set movie list in cache: %w", err)
	}

	return nil
}

// Invalidate удаляет все производные представления после переимпорта
// Обходит известные префиксы через SCAN, чтобы не блокировать Redis
func (r *RedisClient) Invalidate(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	patterns := []string{
		userDetailsKeyPrefix + "*",
		movieListKeyPrefix + "*",
		datasetInfoKey,
	}

	for _, pattern := range patterns {
		iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
				metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
				return fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
	}

	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
