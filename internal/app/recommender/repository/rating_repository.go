package repository

import (
	"context"
	"fmt"

	"movierec/internal/app/recommender/entity"
	"movierec/pkg/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ratingRepository struct {
	db *pgxpool.Pool // Пул соединений с PostgreSQL
}

// NewRatingRepository создает новый репозиторий оценок
func NewRatingRepository(db *pgxpool.Pool) RatingRepository {
	return &ratingRepository{db: db}
}

// GetUserMovieRatings получает оценки пользователя с заголовками фильмов
// Единственный join-запрос; порядок: rating DESC, movie_id ASC - детерминированный
// тай-брейк. Пустой результат означает, что пользователя нет
// (оценок без фильма быть не может - загрузчик отбрасывает сироты)
func (r *ratingRepository) GetUserMovieRatings(ctx context.Context, userID int64) ([]entity.RatedMovie, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "ratings")
	defer timer.ObserveDuration()

	query := `
		SELECT r.movie_id, m.title, r.rating
		FROM ratings r
		JOIN movies m ON m.movie_id = r.movie_id
		WHERE r.user_id = $1
		ORDER BY r.rating DESC, r.movie_id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get user ratings: %w", err)
	}
	defer rows.Close()

	var rated []entity.RatedMovie
	for rows.Next() {
		var rm entity.RatedMovie
		if err := rows.Scan(&rm.MovieID, &rm.Title, &rm.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan user rating: %w", err)
		}
		rated = append(rated, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user ratings: %w", err)
	}

	return rated, nil
}

// HasRatings проверяет наличие хотя бы одной оценки у пользователя
// Используется адаптером рекомендаций до вызова скорера
func (r *ratingRepository) HasRatings(ctx context.Context, userID int64) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "ratings")
	defer timer.ObserveDuration()

	query := `SELECT EXISTS(SELECT 1 FROM ratings WHERE user_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return false, fmt.Errorf("failed to check user ratings: %w", err)
	}

	return exists, nil
}

// GetRatedMovieIDs получает идентификаторы фильмов, оцененных пользователем
// Скорер исключает их из кандидатов
func (r *ratingRepository) GetRatedMovieIDs(ctx context.Context, userID int64) ([]int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "ratings")
	defer timer.ObserveDuration()

	query := `SELECT movie_id FROM ratings WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get rated movie ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan movie id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movie ids: %w", err)
	}

	return ids, nil
}

// GetDatasetInfo получает сводку по загруженному датасету
func (r *ratingRepository) GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "ratings")
	defer timer.ObserveDuration()

	query := `
		SELECT (SELECT COUNT(DISTINCT user_id) FROM ratings),
		       (SELECT COUNT(*) FROM movies),
		       (SELECT COUNT(*) FROM ratings)
	`

	var info entity.DatasetInfo
	if err := r.db.QueryRow(ctx, query).Scan(&info.NumUsers, &info.NumMovies, &info.NumRatings); err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get dataset info: %w", err)
	}

	return &info, nil
}
