package processor

import (
	"context"

	"movierec/internal/app/recommender/service"
	"movierec/pkg/logger"

	"github.com/robfig/cron/v3"
)

// cronLogger адаптирует интерфейс cron.Logger к общему zerolog-логгеру,
// чтобы события планировщика шли тем же JSON-потоком, что и остальные логи
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Info().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// CronScheduler периодически переобучает скоринговую модель,
// чтобы выдача отражала свежезагруженные рейтинги
type CronScheduler struct {
	cron         *cron.Cron
	recommendSvc service.RecommendServiceInterface
}

func NewCronScheduler(recommendSvc service.RecommendServiceInterface) *CronScheduler {
	c := cron.New(cron.WithLogger(cronLogger{}))

	return &CronScheduler{
		cron:         c,
		recommendSvc: recommendSvc,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Info().Msg("Cron job triggered: retraining scorer model")

		if err := s.recommendSvc.Train(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to retrain scorer model")
		} else {
			logger.Info().Msg("Cron job completed: scorer model retrained")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
