package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/repository"
	"movierec/internal/app/recommender/util"
	"movierec/pkg/logger"
)

const (
	userDetailsCacheTTL = 10 * time.Minute
	movieListCacheTTL   = time.Hour
)

// QueryService обрабатывает read-only запросы к датасету
// Координирует работу репозиториев и Redis кеша; все операции выполняются
// без координации между запросами - таблицы read-only до следующего импорта
type QueryService struct {
	movieRepo  repository.MovieRepository
	ratingRepo repository.RatingRepository
	cache      util.Cache
}

// NewQueryService создает новый query-сервис с внедрением зависимостей
func NewQueryService(
	movieRepo repository.MovieRepository,
	ratingRepo repository.RatingRepository,
	cache util.Cache,
) *QueryService {
	return &QueryService{
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
		cache:      cache,
	}
}

// GetUserDetails возвращает агрегированное представление пользователя:
// количество оценок, средний балл и фильмы с заголовками, отсортированные
// по оценке DESC / movie_id ASC
//
// Пользователь без единой оценки - ErrUserNotFound: "найден, но без
// оценок" невозможно, пользователи выводятся из самих ratings
func (s *QueryService) GetUserDetails(ctx context.Context, userID int64) (*entity.UserDetailsResponse, error) {
	if cached, err := s.cache.GetUserDetails(ctx, userID); err == nil && cached != nil {
		return cached, nil
	}

	rated, err := s.ratingRepo.GetUserMovieRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user details: %w", err)
	}

	if len(rated) == 0 {
		return nil, ErrUserNotFound
	}

	var sum float64
	for _, rm := range rated {
		sum += rm.Rating
	}

	details := &entity.UserDetailsResponse{
		UserID:        userID,
		RatingCount:   len(rated),
		AverageRating: sum / float64(len(rated)),
		Movies:        rated,
	}

	if err := s.cache.SetUserDetails(ctx, userID, details, userDetailsCacheTTL); err != nil {
		// Данные получены из БД, проблемы с кешем не критичны
		logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to cache user details")
	}

	return details, nil
}

// GetDatasetInfo возвращает сводку по датасету с кешированием в Redis
func (s *QueryService) GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error) {
	if cached, err := s.cache.GetDatasetInfo(ctx); err == nil && cached != nil {
		return cached, nil
	}

	info, err := s.ratingRepo.GetDatasetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset info: %w", err)
	}

	if err := s.cache.SetDatasetInfo(ctx, info, movieListCacheTTL); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache dataset info")
	}

	return info, nil
}

// GetMovieDetails возвращает агрегат оценок одного фильма
// Прямой lookup: отсутствующий фильм - ErrMovieNotFound (404),
// в отличие от сентинела на рекомендательном пути
func (s *QueryService) GetMovieDetails(ctx context.Context, movieID int64) (*entity.MovieDetailsResponse, error) {
	agg, err := s.movieRepo.GetMovieStats(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie details: %w", err)
	}

	return &entity.MovieDetailsResponse{
		MovieID:    agg.MovieID,
		Title:      agg.Title,
		AvgRating:  agg.AvgRating,
		NumRatings: agg.RatingCount,
	}, nil
}

// GetTopRated возвращает фильмы с наибольшей средней оценкой (кеш Redis)
func (s *QueryService) GetTopRated(ctx context.Context, limit int) ([]entity.MovieAggregate, error) {
	key := fmt.Sprintf("movies:top_rated:%d", limit)
	if cached, err := s.cache.GetMovieList(ctx, key); err == nil && cached != nil {
		return cached, nil
	}

	movies, err := s.movieRepo.GetTopRated(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top rated movies: %w", err)
	}

	if err := s.cache.SetMovieList(ctx, key, movies, movieListCacheTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to cache movie list")
	}

	return movies, nil
}

// GetPopular возвращает фильмы с наибольшим числом оценок (кеш Redis)
func (s *QueryService) GetPopular(ctx context.Context, limit int) ([]entity.MovieAggregate, error) {
	key := fmt.Sprintf("movies:popular:%d", limit)
	if cached, err := s.cache.GetMovieList(ctx, key); err == nil && cached != nil {
		return cached, nil
	}

	movies, err := s.movieRepo.GetPopular(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular movies: %w", err)
	}

	if err := s.cache.SetMovieList(ctx, key, movies, movieListCacheTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to cache movie list")
	}

	return movies, nil
}

// SearchMovies ищет фильмы по подстроке заголовка
func (s *QueryService) SearchMovies(ctx context.Context, query string) ([]entity.MovieAggregate, error) {
	movies, err := s.movieRepo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}

	return movies, nil
}
