package service

import (
	"context"
	"fmt"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/repository"
	"movierec/pkg/metrics"
)

// RecommendService - адаптер над внешней скоринговой функцией
// Переводит выдачу скорера (идентификаторы) в пользовательский результат
// (заголовки), сохраняя ранжирование скорера
type RecommendService struct {
	movieRepo  repository.MovieRepository
	ratingRepo repository.RatingRepository
	scorer     Scorer
}

// NewRecommendService создает новый сервис рекомендаций с внедрением зависимостей
func NewRecommendService(
	movieRepo repository.MovieRepository,
	ratingRepo repository.RatingRepository,
	scorer Scorer,
) *RecommendService {
	return &RecommendService{
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
		scorer:     scorer,
	}
}

// Recommend возвращает ранжированный список рекомендаций для пользователя
//
// Пользователь без истории оценок отсекается до вызова скорера
// (ErrUserNotFound): скорер без исторического входа не может дать
// осмысленное ранжирование. Пустая выдача скорера - пустой список,
// не ошибка. Заголовки разрешаются одним батчем; кандидат без строки
// в movies получает сентинел, запрос не падает
func (s *RecommendService) Recommend(ctx context.Context, userID int64, limit int) (*entity.RecommendResponse, error) {
	hasRatings, err := s.ratingRepo.HasRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user history: %w", err)
	}
	if !hasRatings {
		return nil, ErrUserNotFound
	}

	candidates, err := s.scorer.Score(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to score candidates: %w", err)
	}

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.MovieID
	}

	titles, err := s.movieRepo.ResolveTitles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve titles: %w", err)
	}

	recommendations := make([]entity.Recommendation, len(candidates))
	for i, c := range candidates {
		recommendations[i] = entity.Recommendation{
			MovieID: c.MovieID,
			Title:   titles[i],
			Score:   c.Score,
		}
	}

	metrics.RecommendationsServed.Inc()

	return &entity.RecommendResponse{
		UserID:          userID,
		Recommendations: recommendations,
	}, nil
}

// Train переобучает скоринговую модель
func (s *RecommendService) Train(ctx context.Context) error {
	if err := s.scorer.Train(ctx); err != nil {
		return fmt.Errorf("failed to train scorer: %w", err)
	}
	return nil
}
