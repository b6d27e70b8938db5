package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"movierec/internal/app/recommender/entity"
	"movierec/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceName = "recommender"

type movieRepository struct {
	db *pgxpool.Pool // Пул соединений с PostgreSQL
}

// NewMovieRepository создает новый репозиторий фильмов
func NewMovieRepository(db *pgxpool.Pool) MovieRepository {
	return &movieRepository{db: db}
}

// ResolveTitles разрешает идентификаторы фильмов в заголовки одним
// set-based запросом (не N одиночных lookup'ов). Порядок и дубликаты
// входа сохраняются; для id без строки в movies возвращается сентинел
// entity.UnknownTitle вместо ошибки
func (r *movieRepository) ResolveTitles(ctx context.Context, movieIDs []int64) ([]string, error) {
	titles := make([]string, len(movieIDs))
	if len(movieIDs) == 0 {
		return titles, nil
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "movies")
	defer timer.ObserveDuration()

	query := `SELECT movie_id, title FROM movies WHERE movie_id = ANY($1)`

	rows, err := r.db.Query(ctx, query, movieIDs)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to resolve titles: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]string, len(movieIDs))
	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		byID[id] = title
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating titles: %w", err)
	}

	for i, id := range movieIDs {
		title, ok := byID[id]
		if !ok {
			title = entity.UnknownTitle
		}
		titles[i] = title
	}

	return titles, nil
}

// GetMovieStats получает агрегат оценок одного фильма
// LEFT JOIN: фильм без оценок - валидный результат с нулевым счётчиком,
// отсутствующий в movies id - ErrMovieNotFound
func (r *movieRepository) GetMovieStats(ctx context.Context, movieID int64) (*entity.MovieAggregate, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "movies")
	defer timer.ObserveDuration()

	query := `
		SELECT m.movie_id, m.title,
		       COUNT(r.rating) AS rating_count,
		       COALESCE(AVG(r.rating), 0) AS avg_rating
		FROM movies m
		LEFT JOIN ratings r ON r.movie_id = m.movie_id
		WHERE m.movie_id = $1
		GROUP BY m.movie_id, m.title
	`

	var agg entity.MovieAggregate
	err := r.db.QueryRow(ctx, query, movieID).Scan(
		&agg.MovieID,
		&agg.Title,
		&agg.RatingCount,
		&agg.AvgRating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get movie stats: %w", err)
	}

	return &agg, nil
}

// GetTopRated получает фильмы с наибольшей средней оценкой
// Тай-брейк по movie_id ASC для детерминированной выдачи
func (r *movieRepository) GetTopRated(ctx context.Context, limit int) ([]entity.MovieAggregate, error) {
	query := `
		SELECT m.movie_id, m.title,
		       COUNT(r.rating) AS rating_count,
		       AVG(r.rating) AS avg_rating
		FROM movies m
		JOIN ratings r ON r.movie_id = m.movie_id
		GROUP BY m.movie_id, m.title
		ORDER BY avg_rating DESC, m.movie_id ASC
		LIMIT $1
	`
	return r.queryAggregates(ctx, query, limit)
}

// GetPopular получает фильмы с наибольшим количеством оценок
func (r *movieRepository) GetPopular(ctx context.Context, limit int) ([]entity.MovieAggregate, error) {
	query := `
		SELECT m.movie_id, m.title,
		       COUNT(r.rating) AS rating_count,
		       AVG(r.rating) AS avg_rating
		FROM movies m
		JOIN ratings r ON r.movie_id = m.movie_id
		GROUP BY m.movie_id, m.title
		ORDER BY rating_count DESC, m.movie_id ASC
		LIMIT $1
	`
	return r.queryAggregates(ctx, query, limit)
}

// Search ищет фильмы по подстроке заголовка без учета регистра
func (r *movieRepository) Search(ctx context.Context, query string) ([]entity.MovieAggregate, error) {
	sql := `
		SELECT m.movie_id, m.title,
		       COUNT(r.rating) AS rating_count,
		       COALESCE(AVG(r.rating), 0) AS avg_rating
		FROM movies m
		LEFT JOIN ratings r ON r.movie_id = m.movie_id
		WHERE m.title ILIKE '%' || $1 || '%'
		GROUP BY m.movie_id, m.title
		ORDER BY m.movie_id ASC
	`
	return r.queryAggregates(ctx, sql, strings.TrimSpace(query))
}

// GetAggregates получает агрегаты всех оцененных фильмов
// Используется скорером при обучении модели
func (r *movieRepository) GetAggregates(ctx context.Context) ([]entity.MovieAggregate, error) {
	query := `
		SELECT m.movie_id, m.title,
		       COUNT(r.rating) AS rating_count,
		       AVG(r.rating) AS avg_rating
		FROM movies m
		JOIN ratings r ON r.movie_id = m.movie_id
		GROUP BY m.movie_id, m.title
		ORDER BY m.movie_id ASC
	`
	return r.queryAggregates(ctx, query)
}

func (r *movieRepository) queryAggregates(ctx context.Context, query string, args ...interface{}) ([]entity.MovieAggregate, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "movies")
	defer timer.ObserveDuration()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to query movie aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []entity.MovieAggregate
	for rows.Next() {
		var agg entity.MovieAggregate
		if err := rows.Scan(&agg.MovieID, &agg.Title, &agg.RatingCount, &agg.AvgRating); err != nil {
			return nil, fmt.Errorf("failed to scan movie aggregate: %w", err)
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movie aggregates: %w", err)
	}

	return aggregates, nil
}
