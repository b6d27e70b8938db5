package mocks

import (
	"context"
	"time"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/loader"

	"github.com/stretchr/testify/mock"
)

// MockMovieRepository мок для MovieRepository
type MockMovieRepository struct {
	mock.Mock
}

func (m *MockMovieRepository) ResolveTitles(ctx context.Context, movieIDs []int64) ([]string, error) {
	args := m.Called(ctx, movieIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMovieRepository) GetMovieStats(ctx context.Context, movieID int64) (*entity.MovieAggregate, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MovieAggregate), args.Error(1)
}

func (m *MockMovieRepository) GetTopRated(ctx context.Context, limit int) ([]entity.MovieAggregate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MovieAggregate), args.Error(1)
}

func (m *MockMovieRepository) GetPopular(ctx context.Context, limit int) ([]entity.MovieAggregate, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MovieAggregate), args.Error(1)
}

func (m *MockMovieRepository) Search(ctx context.Context, query string) ([]entity.MovieAggregate, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MovieAggregate), args.Error(1)
}

func (m *MockMovieRepository) GetAggregates(ctx context.Context) ([]entity.MovieAggregate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MovieAggregate), args.Error(1)
}

// MockRatingRepository мок для RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) GetUserMovieRatings(ctx context.Context, userID int64) ([]entity.RatedMovie, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RatedMovie), args.Error(1)
}

func (m *MockRatingRepository) HasRatings(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRatingRepository) GetRatedMovieIDs(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockRatingRepository) GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DatasetInfo), args.Error(1)
}

// MockCache мок для util.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetUserDetails(ctx context.Context, userID int64) (*entity.UserDetailsResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserDetailsResponse), args.Error(1)
}

func (m *MockCache) SetUserDetails(ctx context.Context, userID int64, details *entity.UserDetailsResponse, ttl time.Duration) error {
	args := m.Called(ctx, userID, details, ttl)
	return args.Error(0)
}

func (m *MockCache) GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DatasetInfo), args.Error(1)
}

func (m *MockCache) SetDatasetInfo(ctx context.Context, info *entity.DatasetInfo, ttl time.Duration) error {
	args := m.Called(ctx, info, ttl)
	return args.Error(0)
}

func (m *MockCache) GetMovieList(ctx context.Context, key string) ([]entity.MovieAggregate, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MovieAggregate), args.Error(1)
}

func (m *MockCache) SetMovieList(ctx context.Context, key string, movies []entity.MovieAggregate, ttl time.Duration) error {
	args := m.Called(ctx, key, movies, ttl)
	return args.Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMessagePublisher мок для MessagePublisher (Kafka)
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockScorer мок для service.Scorer
type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, userID int64, limit int) ([]entity.ScoredMovie, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ScoredMovie), args.Error(1)
}

func (m *MockScorer) Train(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDatasetLoader мок для service.DatasetLoader
type MockDatasetLoader struct {
	mock.Mock
}

func (m *MockDatasetLoader) Load(ctx context.Context) (*loader.LoadResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loader.LoadResult), args.Error(1)
}
