package service

import (
	"context"
	"errors"
	"testing"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===================== Recommend Tests =====================

func TestRecommendService_Recommend_PreservesScorerOrder(t *testing.T) {
	// Arrange
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	// Скорер отдает фильм B раньше A - выдача обязана сохранить этот порядок
	candidates := []entity.ScoredMovie{
		{MovieID: 2, Score: 4.8},
		{MovieID: 1, Score: 4.5},
	}

	mockRatingRepo.On("HasRatings", mock.Anything, int64(7)).Return(true, nil)
	mockScorer.On("Score", mock.Anything, int64(7), 2).Return(candidates, nil)
	mockMovieRepo.On("ResolveTitles", mock.Anything, []int64{2, 1}).
		Return([]string{"Jumanji (1995)", "Toy Story (1995)"}, nil)

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	// Act
	resp, err := svc.Recommend(context.Background(), 7, 2)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int64(7), resp.UserID)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, int64(2), resp.Recommendations[0].MovieID)
	assert.Equal(t, "Jumanji (1995)", resp.Recommendations[0].Title)
	assert.Equal(t, 4.8, resp.Recommendations[0].Score)
	assert.Equal(t, int64(1), resp.Recommendations[1].MovieID)
	assert.Equal(t, "Toy Story (1995)", resp.Recommendations[1].Title)

	mockMovieRepo.AssertExpectations(t)
	mockScorer.AssertExpectations(t)
}

func TestRecommendService_Recommend_UserWithoutHistory(t *testing.T) {
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	mockRatingRepo.On("HasRatings", mock.Anything, int64(99)).Return(false, nil)

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	resp, err := svc.Recommend(context.Background(), 99, 5)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, resp)

	// Скорер не вызывается для пользователя без истории
	mockScorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommendService_Recommend_EmptyScorerResult(t *testing.T) {
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	// Пользователь оценил весь каталог - кандидатов не осталось
	mockRatingRepo.On("HasRatings", mock.Anything, int64(7)).Return(true, nil)
	mockScorer.On("Score", mock.Anything, int64(7), 5).Return([]entity.ScoredMovie{}, nil)
	mockMovieRepo.On("ResolveTitles", mock.Anything, []int64{}).Return([]string{}, nil)

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	resp, err := svc.Recommend(context.Background(), 7, 5)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Empty(t, resp.Recommendations)
}

func TestRecommendService_Recommend_UnknownTitleSentinel(t *testing.T) {
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	candidates := []entity.ScoredMovie{{MovieID: 500, Score: 4.2}}

	mockRatingRepo.On("HasRatings", mock.Anything, int64(7)).Return(true, nil)
	mockScorer.On("Score", mock.Anything, int64(7), 1).Return(candidates, nil)
	// Репозиторий подставляет сентинел для фильма без метаданных
	mockMovieRepo.On("ResolveTitles", mock.Anything, []int64{500}).
		Return([]string{entity.UnknownTitle}, nil)

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	resp, err := svc.Recommend(context.Background(), 7, 1)

	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, entity.UnknownTitle, resp.Recommendations[0].Title)
}

func TestRecommendService_Recommend_ScorerError(t *testing.T) {
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	mockRatingRepo.On("HasRatings", mock.Anything, int64(7)).Return(true, nil)
	mockScorer.On("Score", mock.Anything, int64(7), 5).Return(nil, errors.New("model not ready"))

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	resp, err := svc.Recommend(context.Background(), 7, 5)

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "failed to score candidates")
}

func TestRecommendService_Recommend_HistoryCheckError(t *testing.T) {
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	mockRatingRepo.On("HasRatings", mock.Anything, int64(7)).Return(false, errors.New("connection refused"))

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	resp, err := svc.Recommend(context.Background(), 7, 5)

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

// ===================== Train Tests =====================

func TestRecommendService_Train_Success(t *testing.T) {
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	mockScorer.On("Train", mock.Anything).Return(nil)

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	err := svc.Train(context.Background())

	assert.NoError(t, err)
	mockScorer.AssertExpectations(t)
}

func TestRecommendService_Train_Error(t *testing.T) {
	mockMovieRepo := new(mocks.MockMovieRepository)
	mockRatingRepo := new(mocks.MockRatingRepository)
	mockScorer := new(mocks.MockScorer)

	mockScorer.On("Train", mock.Anything).Return(errors.New("connection refused"))

	svc := NewRecommendService(mockMovieRepo, mockRatingRepo, mockScorer)

	err := svc.Train(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to train scorer")
}
