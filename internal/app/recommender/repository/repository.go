package repository

import (
	"context"
	"errors"

	"movierec/internal/app/recommender/entity"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrMovieNotFound = errors.New("movie not found")
)

// MovieRepository определяет read-only запросы к таблице movies
type MovieRepository interface {
	ResolveTitles(ctx context.Context, movieIDs []int64) ([]string, error)
	GetMovieStats(ctx context.Context, movieID int64) (*entity.MovieAggregate, error)
	GetTopRated(ctx context.Context, limit int) ([]entity.MovieAggregate, error)
	GetPopular(ctx context.Context, limit int) ([]entity.MovieAggregate, error)
	Search(ctx context.Context, query string) ([]entity.MovieAggregate, error)
	GetAggregates(ctx context.Context) ([]entity.MovieAggregate, error)
}

// RatingRepository определяет read-only запросы к таблице ratings
// Таблицы users нет: пользователь существует, если у него есть хотя бы
// одна строка в ratings
type RatingRepository interface {
	GetUserMovieRatings(ctx context.Context, userID int64) ([]entity.RatedMovie, error)
	HasRatings(ctx context.Context, userID int64) (bool, error)
	GetRatedMovieIDs(ctx context.Context, userID int64) ([]int64, error)
	GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error)
}
