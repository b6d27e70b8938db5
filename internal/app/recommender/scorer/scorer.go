package scorer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/repository"
	"movierec/pkg/logger"
	"movierec/pkg/metrics"
)

// dampingFactor - вес глобального среднего в байесовской оценке
// Фильм с малым числом оценок притягивается к глобальному среднему,
// чтобы один восторженный зритель не выводил его в топ
const dampingFactor = 5.0

// Baseline - базовая реализация скорера: байесовски сглаженный средний
// рейтинг фильма, обученный по агрегатам всего датасета
//
// Модель держится в памяти и атомарно подменяется при переобучении;
// Score никогда не ходит в таблицу movies - только за историей пользователя,
// чтобы исключить уже оцененные фильмы из кандидатов
type Baseline struct {
	movieRepo  repository.MovieRepository
	ratingRepo repository.RatingRepository

	mu    sync.RWMutex
	model []entity.ScoredMovie // Кандидаты, отсортированные по score DESC
}

// NewBaseline создает необученный базовый скорер
func NewBaseline(movieRepo repository.MovieRepository, ratingRepo repository.RatingRepository) *Baseline {
	return &Baseline{
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
	}
}

// Train перестраивает модель из агрегатов оценок
// Вызывается на старте, по POST /train, по cron-расписанию и после импорта
func (s *Baseline) Train(ctx context.Context) error {
	timer := metrics.NewTimer()

	aggregates, err := s.movieRepo.GetAggregates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load movie aggregates: %w", err)
	}

	var totalRatings int64
	var weightedSum float64
	for _, agg := range aggregates {
		totalRatings += agg.RatingCount
		weightedSum += agg.AvgRating * float64(agg.RatingCount)
	}

	globalMean := 0.0
	if totalRatings > 0 {
		globalMean = weightedSum / float64(totalRatings)
	}

	model := make([]entity.ScoredMovie, 0, len(aggregates))
	for _, agg := range aggregates {
		count := float64(agg.RatingCount)
		score := (count*agg.AvgRating + dampingFactor*globalMean) / (count + dampingFactor)
		model = append(model, entity.ScoredMovie{MovieID: agg.MovieID, Score: score})
	}

	sort.Slice(model, func(i, j int) bool {
		if model[i].Score != model[j].Score {
			return model[i].Score > model[j].Score
		}
		return model[i].MovieID < model[j].MovieID
	})

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	metrics.ScorerTrainDuration.Observe(timer.Seconds())
	logger.Info().
		Int("movies", len(model)).
		Float64("global_mean", globalMean).
		Msg("Scorer model trained")

	return nil
}

// Score возвращает упорядоченных кандидатов для пользователя, исключая
// уже оцененные им фильмы. Пустая выдача - валидный результат
func (s *Baseline) Score(ctx context.Context, userID int64, limit int) ([]entity.ScoredMovie, error) {
	ratedIDs, err := s.ratingRepo.GetRatedMovieIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user history: %w", err)
	}

	rated := make(map[int64]struct{}, len(ratedIDs))
	for _, id := range ratedIDs {
		rated[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]entity.ScoredMovie, 0, limit)
	for _, scored := range s.model {
		if _, ok := rated[scored.MovieID]; ok {
			continue
		}
		candidates = append(candidates, scored)
		if len(candidates) == limit {
			break
		}
	}

	return candidates, nil
}
