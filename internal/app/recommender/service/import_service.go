package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/util"
	"movierec/pkg/logger"

	"github.com/google/uuid"
)

// ImportService управляет переимпортом датасета
//
// Единственный write-путь сервиса. Импорт сериализован: конкурирующий
// запрос отклоняется с ErrImportInProgress, а не ставится в очередь.
// Атомарность для читателей обеспечивает транзакция загрузчика
type ImportService struct {
	loader   DatasetLoader
	cache    util.Cache
	producer util.MessagePublisher
	scorer   Scorer

	mu sync.Mutex
}

// NewImportService создает новый сервис импорта с внедрением зависимостей
func NewImportService(
	loader DatasetLoader,
	cache util.Cache,
	producer util.MessagePublisher,
	scorer Scorer,
) *ImportService {
	return &ImportService{
		loader:   loader,
		cache:    cache,
		producer: producer,
		scorer:   scorer,
	}
}

// Run выполняет полный переимпорт и возвращает счётчики строк
// После успешной загрузки инвалидирует кеши, переобучает скорер и
// отправляет событие DATASET_IMPORTED в Kafka
func (s *ImportService) Run(ctx context.Context) (*entity.ImportResponse, error) {
	if !s.mu.TryLock() {
		return nil, ErrImportInProgress
	}
	defer s.mu.Unlock()

	importID := uuid.NewString()
	logger.Info().Str("import_id", importID).Msg("Dataset import started")

	result, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset import failed: %w", err)
	}

	// Кеши считаются устаревшими целиком: агрегаты могли измениться
	// для любого пользователя и фильма
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate caches after import")
	}

	if err := s.scorer.Train(ctx); err != nil {
		// Скорер продолжит отдавать прошлую модель до следующего train
		logger.Warn().Err(err).Msg("Failed to retrain scorer after import")
	}

	event := entity.ImportEvent{
		EventType:       entity.EventTypeDatasetImported,
		ImportID:        importID,
		MoviesLoaded:    result.MoviesLoaded,
		MoviesSkipped:   result.MoviesSkipped,
		RatingsLoaded:   result.RatingsLoaded,
		RatingsSkipped:  result.RatingsSkipped,
		RatingsRejected: result.RatingsRejected,
		Timestamp:       time.Now(),
	}
	if err := s.publishImportEvent(ctx, event); err != nil {
		// Импорт уже применён, проблемы с Kafka не критичны
		logger.Warn().Err(err).Msg("Failed to publish import event")
	}

	return &entity.ImportResponse{
		ImportID:        importID,
		MoviesLoaded:    result.MoviesLoaded,
		MoviesSkipped:   result.MoviesSkipped,
		RatingsLoaded:   result.RatingsLoaded,
		RatingsSkipped:  result.RatingsSkipped,
		RatingsRejected: result.RatingsRejected,
	}, nil
}

// publishImportEvent отправляет событие об импорте в Kafka
func (s *ImportService) publishImportEvent(ctx context.Context, event entity.ImportEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal import event: %w", err)
	}

	if err := s.producer.PublishMessage(ctx, event.ImportID, eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
