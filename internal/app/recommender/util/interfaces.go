package util

import (
	"context"
	"time"

	"movierec/internal/app/recommender/entity"
)

// Cache интерфейс для работы с Redis кешем
// Используется для dependency injection и упрощения тестирования
type Cache interface {
	GetUserDetails(ctx context.Context, userID int64) (*entity.UserDetailsResponse, error)
	SetUserDetails(ctx context.Context, userID int64, details *entity.UserDetailsResponse, ttl time.Duration) error
	GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error)
	SetDatasetInfo(ctx context.Context, info *entity.DatasetInfo, ttl time.Duration) error
	GetMovieList(ctx context.Context, key string) ([]entity.MovieAggregate, error)
	SetMovieList(ctx context.Context, key string, movies []entity.MovieAggregate, ttl time.Duration) error
	Invalidate(ctx context.Context) error
	Close() error
}

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
