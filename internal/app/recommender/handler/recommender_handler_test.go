package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/loader"
	"movierec/internal/app/recommender/repository"
	"movierec/internal/app/recommender/repository/mocks"
	"movierec/internal/app/recommender/service"
	"movierec/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("recommender-test", "error", io.Discard)
	os.Exit(m.Run())
}

// Хелперы для создания тестового окружения

type testEnv struct {
	router     *gin.Engine
	movieRepo  *mocks.MockMovieRepository
	ratingRepo *mocks.MockRatingRepository
	cache      *mocks.MockCache
	scorer     *mocks.MockScorer
	loader     *mocks.MockDatasetLoader
	producer   *mocks.MockMessagePublisher
}

func setupTestRouter() *testEnv {
	movieRepo := new(mocks.MockMovieRepository)
	ratingRepo := new(mocks.MockRatingRepository)
	cache := new(mocks.MockCache)
	scorer := new(mocks.MockScorer)
	datasetLoader := new(mocks.MockDatasetLoader)
	producer := new(mocks.MockMessagePublisher)

	queryService := service.NewQueryService(movieRepo, ratingRepo, cache)
	recommendService := service.NewRecommendService(movieRepo, ratingRepo, scorer)
	importService := service.NewImportService(datasetLoader, cache, producer, scorer)

	h := NewRecommenderHandler(queryService, recommendService, importService, 5, 50)

	return &testEnv{
		router:     SetupRoutes(h),
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
		cache:      cache,
		scorer:     scorer,
		loader:     datasetLoader,
		producer:   producer,
	}
}

func performRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

// ==================== GetUserDetails Tests ====================

func TestGetUserDetails_Success(t *testing.T) {
	env := setupTestRouter()

	rated := []entity.RatedMovie{
		{MovieID: 1, Title: "Toy Story (1995)", Rating: 5.0},
		{MovieID: 2, Title: "Jumanji (1995)", Rating: 3.0},
	}
	env.cache.On("GetUserDetails", mock.Anything, int64(7)).Return(nil, nil)
	env.ratingRepo.On("GetUserMovieRatings", mock.Anything, int64(7)).Return(rated, nil)
	env.cache.On("SetUserDetails", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(nil)

	w := performRequest(env.router, http.MethodGet, "/user/7/details")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.UserDetailsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.UserID)
	assert.Equal(t, 2, resp.RatingCount)
	assert.Equal(t, 4.0, resp.AverageRating)
	require.Len(t, resp.Movies, 2)
	assert.Equal(t, "Toy Story (1995)", resp.Movies[0].Title)
}

func TestGetUserDetails_NotFound_NamesUserID(t *testing.T) {
	env := setupTestRouter()

	env.cache.On("GetUserDetails", mock.Anything, int64(99)).Return(nil, nil)
	env.ratingRepo.On("GetUserMovieRatings", mock.Anything, int64(99)).Return([]entity.RatedMovie{}, nil)

	w := performRequest(env.router, http.MethodGet, "/user/99/details")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// Сообщение называет именно запрошенный идентификатор
	assert.Contains(t, resp.Message, "99")
}

func TestGetUserDetails_NonNumericID(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/user/abc/details")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserDetails_RepositoryError(t *testing.T) {
	env := setupTestRouter()

	env.cache.On("GetUserDetails", mock.Anything, int64(7)).Return(nil, nil)
	env.ratingRepo.On("GetUserMovieRatings", mock.Anything, int64(7)).
		Return(nil, errors.New("connection refused"))

	w := performRequest(env.router, http.MethodGet, "/user/7/details")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ==================== Recommend Tests ====================

func TestRecommend_Success(t *testing.T) {
	env := setupTestRouter()

	candidates := []entity.ScoredMovie{
		{MovieID: 2, Score: 4.8},
		{MovieID: 1, Score: 4.5},
	}
	env.ratingRepo.On("HasRatings", mock.Anything, int64(7)).Return(true, nil)
	env.scorer.On("Score", mock.Anything, int64(7), 2).Return(candidates, nil)
	env.movieRepo.On("ResolveTitles", mock.Anything, []int64{2, 1}).
		Return([]string{"Jumanji (1995)", "Toy Story (1995)"}, nil)

	w := performRequest(env.router, http.MethodGet, "/recommend?user_id=7&limit=2")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.RecommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.UserID)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "Jumanji (1995)", resp.Recommendations[0].Title)
	assert.Equal(t, "Toy Story (1995)", resp.Recommendations[1].Title)
}

func TestRecommend_DefaultLimit(t *testing.T) {
	env := setupTestRouter()

	env.ratingRepo.On("HasRatings", mock.Anything, int64(7)).Return(true, nil)
	// limit не передан - применяется дефолт 5
	env.scorer.On("Score", mock.Anything, int64(7), 5).Return([]entity.ScoredMovie{}, nil)
	env.movieRepo.On("ResolveTitles", mock.Anything, []int64{}).Return([]string{}, nil)

	w := performRequest(env.router, http.MethodGet, "/recommend?user_id=7")

	assert.Equal(t, http.StatusOK, w.Code)
	env.scorer.AssertExpectations(t)
}

func TestRecommend_UserWithoutHistory(t *testing.T) {
	env := setupTestRouter()

	env.ratingRepo.On("HasRatings", mock.Anything, int64(99)).Return(false, nil)

	w := performRequest(env.router, http.MethodGet, "/recommend?user_id=99")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "99")
}

func TestRecommend_MissingUserID(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/recommend")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommend_LimitAboveMax(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/recommend?user_id=7&limit=100")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "between 1 and 50")
}

func TestRecommend_ExplicitZeroLimit(t *testing.T) {
	// Явный limit=0 - это не "параметр отсутствует": дефолт не подставляется
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/recommend?user_id=7&limit=0")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "between 1 and 50")
	env.scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_NegativeLimit(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/recommend?user_id=7&limit=-3")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommend_NonNumericUserID(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/recommend?user_id=abc")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== GetDatasetInfo Tests ====================

func TestGetDatasetInfo_Success(t *testing.T) {
	env := setupTestRouter()

	info := &entity.DatasetInfo{NumUsers: 671, NumMovies: 9066, NumRatings: 100004}
	env.cache.On("GetDatasetInfo", mock.Anything).Return(nil, nil)
	env.ratingRepo.On("GetDatasetInfo", mock.Anything).Return(info, nil)
	env.cache.On("SetDatasetInfo", mock.Anything, info, mock.Anything).Return(nil)

	w := performRequest(env.router, http.MethodGet, "/dataset/info")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.DatasetInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(671), resp.NumUsers)
	assert.Equal(t, int64(9066), resp.NumMovies)
	assert.Equal(t, int64(100004), resp.NumRatings)
}

// ==================== GetMovieDetails Tests ====================

func TestGetMovieDetails_Success(t *testing.T) {
	env := setupTestRouter()

	agg := &entity.MovieAggregate{MovieID: 1, Title: "Toy Story (1995)", RatingCount: 247, AvgRating: 3.87}
	env.movieRepo.On("GetMovieStats", mock.Anything, int64(1)).Return(agg, nil)

	w := performRequest(env.router, http.MethodGet, "/movie/1/details")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.MovieDetailsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Toy Story (1995)", resp.Title)
	assert.Equal(t, int64(247), resp.NumRatings)
}

func TestGetMovieDetails_NotFound(t *testing.T) {
	env := setupTestRouter()

	env.movieRepo.On("GetMovieStats", mock.Anything, int64(999)).
		Return(nil, repository.ErrMovieNotFound)

	w := performRequest(env.router, http.MethodGet, "/movie/999/details")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "999")
}

// ==================== Movies List Tests ====================

func TestGetTopRated_Success(t *testing.T) {
	env := setupTestRouter()

	movies := []entity.MovieAggregate{
		{MovieID: 1, Title: "Toy Story (1995)", RatingCount: 247, AvgRating: 3.87},
	}
	env.cache.On("GetMovieList", mock.Anything, "movies:top_rated:10").Return(nil, nil)
	env.movieRepo.On("GetTopRated", mock.Anything, 10).Return(movies, nil)
	env.cache.On("SetMovieList", mock.Anything, "movies:top_rated:10", movies, mock.Anything).Return(nil)

	w := performRequest(env.router, http.MethodGet, "/movies/top_rated?limit=10")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.MovieListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestGetPopular_InvalidLimit(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/movies/popular?limit=0")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchMovies_Success(t *testing.T) {
	env := setupTestRouter()

	movies := []entity.MovieAggregate{
		{MovieID: 1, Title: "Toy Story (1995)", RatingCount: 247, AvgRating: 3.87},
	}
	env.movieRepo.On("Search", mock.Anything, "toy").Return(movies, nil)

	w := performRequest(env.router, http.MethodGet, "/movies/search?query=toy")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchMovies_MissingQuery(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/movies/search")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== Train / Import Tests ====================

func TestTrain_Success(t *testing.T) {
	env := setupTestRouter()

	env.scorer.On("Train", mock.Anything).Return(nil)

	w := performRequest(env.router, http.MethodPost, "/train")

	assert.Equal(t, http.StatusOK, w.Code)
	env.scorer.AssertExpectations(t)
}

func TestTrain_Error(t *testing.T) {
	env := setupTestRouter()

	env.scorer.On("Train", mock.Anything).Return(errors.New("connection refused"))

	w := performRequest(env.router, http.MethodPost, "/train")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestImport_Success(t *testing.T) {
	env := setupTestRouter()

	env.loader.On("Load", mock.Anything).
		Return(&loader.LoadResult{MoviesLoaded: 10, RatingsLoaded: 100}, nil)
	env.cache.On("Invalidate", mock.Anything).Return(nil)
	env.scorer.On("Train", mock.Anything).Return(nil)
	env.producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w := performRequest(env.router, http.MethodPost, "/import")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp entity.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ImportID)
	assert.Equal(t, 10, resp.MoviesLoaded)
	assert.Equal(t, 100, resp.RatingsLoaded)
}

func TestImport_LoaderError(t *testing.T) {
	env := setupTestRouter()

	env.loader.On("Load", mock.Anything).Return(nil, errors.New("failed to open movies source"))

	w := performRequest(env.router, http.MethodPost, "/import")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ==================== Health Check Tests ====================

func TestHealthCheck(t *testing.T) {
	env := setupTestRouter()

	w := performRequest(env.router, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
