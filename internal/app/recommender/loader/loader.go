package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"movierec/internal/app/recommender/entity"
	"movierec/pkg/logger"
	"movierec/pkg/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 1000

// LoadResult - счётчики строк по итогам загрузки, основной наблюдаемый
// контракт загрузчика
type LoadResult struct {
	MoviesLoaded    int `json:"movies_loaded"`
	MoviesSkipped   int `json:"movies_skipped"`
	RatingsLoaded   int `json:"ratings_loaded"`
	RatingsSkipped  int `json:"ratings_skipped"`
	RatingsRejected int `json:"ratings_rejected"`
}

// Loader загружает два табличных источника (movies.csv, ratings.csv)
// в реляционную схему PostgreSQL
//
// Гарантии:
//   - фильмы применяются раньше оценок (референциальный инвариант);
//   - оценки с movie_id без строки в movies отклоняются и считаются,
//     таблица movies никогда не создается из строки оценки;
//   - повторная загрузка тех же источников идемпотентна: upsert по
//     movie_id и по (user_id, movie_id), политика last-write-wins;
//   - вся запись выполняется в одной транзакции - читатели видят либо
//     состояние до импорта, либо полностью после.
type Loader struct {
	db          *gorm.DB
	moviesPath  string
	ratingsPath string
}

// New создает новый загрузчик датасета
func New(db *gorm.DB, moviesPath, ratingsPath string) *Loader {
	return &Loader{
		db:          db,
		moviesPath:  moviesPath,
		ratingsPath: ratingsPath,
	}
}

// Migrate создает схему и индексы
// Повторный вызов безопасен: AutoMigrate и CREATE INDEX IF NOT EXISTS
func (l *Loader) Migrate(ctx context.Context) error {
	db := l.db.WithContext(ctx)

	if err := db.AutoMigrate(&entity.Movie{}, &entity.Rating{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Индексы по образцу исходного импорта: выборки ratings идут
	// по user_id (детали пользователя) и movie_id (join на movies)
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_ratings_user ON ratings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_movie ON ratings(movie_id)`,
		`ALTER TABLE ratings DROP CONSTRAINT IF EXISTS fk_ratings_movie`,
		`ALTER TABLE ratings ADD CONSTRAINT fk_ratings_movie FOREIGN KEY (movie_id) REFERENCES movies(movie_id)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	return nil
}

// Load выполняет полную загрузку обоих источников
// Недоступный файл - фатальная ошибка всей загрузки (до открытия
// транзакции, частичной схемы не остается); некорректная строка -
// восстановимый пропуск со счётчиком
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	moviesFile, err := os.Open(l.moviesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open movies source: %w", err)
	}
	defer moviesFile.Close()

	ratingsFile, err := os.Open(l.ratingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings source: %w", err)
	}
	defer ratingsFile.Close()

	movies, moviesSkipped, err := parseMovies(moviesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse movies source: %w", err)
	}

	ratings, ratingsSkipped, err := parseRatings(ratingsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ratings source: %w", err)
	}

	result := &LoadResult{
		MoviesSkipped:  moviesSkipped,
		RatingsSkipped: ratingsSkipped,
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Фильмы коммитятся до оценок - иначе нарушится FK
		if len(movies) > 0 {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "movie_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "genres"}),
			}).CreateInBatches(movies, insertBatchSize)
			if res.Error != nil {
				return fmt.Errorf("failed to upsert movies: %w", res.Error)
			}
		}
		result.MoviesLoaded = len(movies)

		// Валидные movie_id берем из самой таблицы внутри транзакции:
		// учитываются и фильмы этой загрузки, и оставшиеся от прошлых
		knownIDs, err := knownMovieIDs(tx)
		if err != nil {
			return err
		}

		accepted := make([]entity.Rating, 0, len(ratings))
		for _, rating := range ratings {
			if _, ok := knownIDs[rating.MovieID]; !ok {
				result.RatingsRejected++
				logger.Debug().
					Int64("user_id", rating.UserID).
					Int64("movie_id", rating.MovieID).
					Msg("Rejected rating: movie not present in metadata")
				continue
			}
			accepted = append(accepted, rating)
		}

		if len(accepted) > 0 {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"rating", "rated_at"}),
			}).CreateInBatches(accepted, insertBatchSize)
			if res.Error != nil {
				return fmt.Errorf("failed to upsert ratings: %w", res.Error)
			}
		}
		result.RatingsLoaded = len(accepted)

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordImportRows("movies", result.MoviesLoaded, result.MoviesSkipped, 0)
	metrics.RecordImportRows("ratings", result.RatingsLoaded, result.RatingsSkipped, result.RatingsRejected)

	logger.Info().
		Int("movies_loaded", result.MoviesLoaded).
		Int("movies_skipped", result.MoviesSkipped).
		Int("ratings_loaded", result.RatingsLoaded).
		Int("ratings_skipped", result.RatingsSkipped).
		Int("ratings_rejected", result.RatingsRejected).
		Msg("Dataset load completed")

	return result, nil
}

func knownMovieIDs(tx *gorm.DB) (map[int64]struct{}, error) {
	var ids []int64
	if err := tx.Model(&entity.Movie{}).Pluck("movie_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load known movie ids: %w", err)
	}

	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

// parseMovies читает источник метаданных: movieId,title[,genres]
// Строки с нечисловым id или пустым заголовком пропускаются и считаются.
// Дубликаты movie_id схлопываются по last-write-wins ещё до вставки,
// иначе ON CONFLICT не может дважды обновить одну строку в батче
func parseMovies(r io.Reader) ([]entity.Movie, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var order []int64
	byID := make(map[int64]entity.Movie)
	skipped := 0
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				logger.Debug().Int("line", line).Err(err).Msg("Skipped malformed movies row")
				continue
			}
			return nil, 0, fmt.Errorf("failed to read movies source: %w", err)
		}

		if line == 1 && isHeader(record) {
			continue
		}

		if len(record) < 2 {
			skipped++
			logger.Debug().Int("line", line).Msg("Skipped movies row: not enough columns")
			continue
		}

		movieID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			skipped++
			logger.Debug().Int("line", line).Str("movie_id", record[0]).Msg("Skipped movies row: non-numeric id")
			continue
		}

		title := strings.TrimSpace(record[1])
		if title == "" {
			skipped++
			logger.Debug().Int("line", line).Int64("movie_id", movieID).Msg("Skipped movies row: empty title")
			continue
		}

		genres := ""
		if len(record) > 2 {
			genres = strings.TrimSpace(record[2])
		}

		if _, seen := byID[movieID]; !seen {
			order = append(order, movieID)
		} else {
			skipped++
		}
		byID[movieID] = entity.Movie{MovieID: movieID, Title: title, Genres: genres}
	}

	movies := make([]entity.Movie, 0, len(order))
	for _, id := range order {
		movies = append(movies, byID[id])
	}

	return movies, skipped, nil
}

// parseRatings читает источник оценок: userId,movieId,rating[,timestamp]
// Оценки вне шкалы 1-5 считаются некорректными и пропускаются.
// Дубликаты (user_id, movie_id) схлопываются по last-write-wins
func parseRatings(r io.Reader) ([]entity.Rating, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	type ratingKey struct {
		userID  int64
		movieID int64
	}

	var order []ratingKey
	byKey := make(map[ratingKey]entity.Rating)
	skipped := 0
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				logger.Debug().Int("line", line).Err(err).Msg("Skipped malformed ratings row")
				continue
			}
			return nil, 0, fmt.Errorf("failed to read ratings source: %w", err)
		}

		if line == 1 && isHeader(record) {
			continue
		}

		if len(record) < 3 {
			skipped++
			logger.Debug().Int("line", line).Msg("Skipped ratings row: not enough columns")
			continue
		}

		userID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			skipped++
			logger.Debug().Int("line", line).Str("user_id", record[0]).Msg("Skipped ratings row: non-numeric user id")
			continue
		}

		movieID, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if err != nil {
			skipped++
			logger.Debug().Int("line", line).Str("movie_id", record[1]).Msg("Skipped ratings row: non-numeric movie id")
			continue
		}

		score, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil || score < 1 || score > 5 {
			skipped++
			logger.Debug().Int("line", line).Str("rating", record[2]).Msg("Skipped ratings row: invalid rating value")
			continue
		}

		var ratedAt int64
		if len(record) > 3 {
			// Отсутствующий или кривой timestamp не делает строку невалидной
			ratedAt, _ = strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		}

		key := ratingKey{userID: userID, movieID: movieID}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		} else {
			skipped++
		}
		byKey[key] = entity.Rating{UserID: userID, MovieID: movieID, Rating: score, RatedAt: ratedAt}
	}

	ratings := make([]entity.Rating, 0, len(order))
	for _, key := range order {
		ratings = append(ratings, byKey[key])
	}

	return ratings, skipped, nil
}

// isHeader определяет заголовочную строку источника (movieId,... / userId,...)
func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64); err == nil {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "movieid" || first == "userid" || first == "movie_id" || first == "user_id"
}
