package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"movierec/internal/app/recommender/entity"
	"movierec/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter("recommender-test", "error", io.Discard)
	os.Exit(m.Run())
}

// MockRecommendService мок для RecommendServiceInterface
type MockRecommendService struct {
	mock.Mock
}

func (m *MockRecommendService) Recommend(ctx context.Context, userID int64, limit int) (*entity.RecommendResponse, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RecommendResponse), args.Error(1)
}

func (m *MockRecommendService) Train(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ===================== cronLogger Tests =====================

func TestCronLogger_StructuredOutput(t *testing.T) {
	// Планировщик логирует через общий zerolog-логгер, а не через log.Default()
	var buf bytes.Buffer
	logger.InitWithWriter("recommender-test", "debug", &buf)
	defer logger.InitWithWriter("recommender-test", "error", io.Discard)

	cronLogger{}.Info("schedule", "entry", 1)
	cronLogger{}.Error(errors.New("connection refused"), "job failed")

	out := buf.String()
	assert.Contains(t, out, `"message":"schedule"`)
	assert.Contains(t, out, `"entry":1`)
	assert.Contains(t, out, `"error":"connection refused"`)
	assert.Contains(t, out, `"message":"job failed"`)
	assert.Contains(t, out, `"service":"recommender-test"`)
}

// ===================== NewCronScheduler Tests =====================

func TestNewCronScheduler(t *testing.T) {
	// Arrange
	mockSvc := new(MockRecommendService)

	// Act
	scheduler := NewCronScheduler(mockSvc)

	// Assert
	assert.NotNil(t, scheduler)
	assert.NotNil(t, scheduler.cron)
	assert.Equal(t, mockSvc, scheduler.recommendSvc)
}

// ===================== Start Tests =====================

func TestCronScheduler_Start_Success(t *testing.T) {
	// Arrange
	mockSvc := new(MockRecommendService)
	scheduler := NewCronScheduler(mockSvc)

	// Act
	err := scheduler.Start(context.Background(), "@hourly")

	// Assert
	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1) // Одна задача добавлена

	// Cleanup
	scheduler.Stop()
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	// Arrange
	mockSvc := new(MockRecommendService)
	scheduler := NewCronScheduler(mockSvc)

	// Act
	err := scheduler.Start(context.Background(), "invalid cron expression")

	// Assert
	assert.Error(t, err)
}

// ===================== Stop Tests =====================

func TestCronScheduler_Stop(t *testing.T) {
	// Arrange
	mockSvc := new(MockRecommendService)
	scheduler := NewCronScheduler(mockSvc)

	scheduler.Start(context.Background(), "@hourly")

	// Act
	scheduler.Stop()

	// Assert
	assert.NotNil(t, scheduler.cron)
}

// ===================== Cron Job Execution Tests =====================

func TestCronScheduler_JobExecution(t *testing.T) {
	// Тестируем что cron job вызывает Train
	// Arrange
	mockSvc := new(MockRecommendService)
	scheduler := NewCronScheduler(mockSvc)

	mockSvc.On("Train", mock.Anything).Return(nil)

	// Используем @every для быстрого теста
	err := scheduler.Start(context.Background(), "@every 100ms")
	assert.NoError(t, err)

	// Ждём выполнения cron job
	time.Sleep(350 * time.Millisecond)

	// Cleanup
	scheduler.Stop()

	// Assert - должно быть минимум 2 срабатывания
	assert.GreaterOrEqual(t, len(mockSvc.Calls), 2)
}

func TestCronScheduler_JobExecution_WithError(t *testing.T) {
	// Cron job продолжает работать даже при ошибках переобучения
	// Arrange
	mockSvc := new(MockRecommendService)
	scheduler := NewCronScheduler(mockSvc)

	mockSvc.On("Train", mock.Anything).Return(errors.New("connection refused"))

	err := scheduler.Start(context.Background(), "@every 100ms")
	assert.NoError(t, err)

	time.Sleep(350 * time.Millisecond)

	scheduler.Stop()

	// Assert - несмотря на ошибки, вызовы продолжаются
	assert.GreaterOrEqual(t, len(mockSvc.Calls), 2)
}
