package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RecommenderHandler обрабатывает HTTP запросы сервиса рекомендаций
type RecommenderHandler struct {
	queryService     service.QueryServiceInterface
	recommendService service.RecommendServiceInterface
	importService    service.ImportServiceInterface
	validator        *validator.Validate
	defaultLimit     int
	maxLimit         int
}

// NewRecommenderHandler создает новый обработчик с внедрением зависимостей
func NewRecommenderHandler(
	queryService service.QueryServiceInterface,
	recommendService service.RecommendServiceInterface,
	importService service.ImportServiceInterface,
	defaultLimit int,
	maxLimit int,
) *RecommenderHandler {
	return &RecommenderHandler{
		queryService:     queryService,
		recommendService: recommendService,
		importService:    importService,
		validator:        validator.New(),
		defaultLimit:     defaultLimit,
		maxLimit:         maxLimit,
	}
}

// GetUserDetails обрабатывает GET /user/:user_id/details
// 400 - нечисловой id, 404 - пользователь без истории оценок
func (h *RecommenderHandler) GetUserDetails(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID: must be numeric")
		return
	}

	details, err := h.queryService.GetUserDetails(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, fmt.Sprintf("No rating history found for user %d", userID))
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get user details")
		return
	}

	c.JSON(http.StatusOK, details)
}

// Recommend обрабатывает GET /recommend?user_id=&limit=
// Семантика 404 совпадает с маршрутом деталей: нет истории - нет рекомендаций
func (h *RecommenderHandler) Recommend(c *gin.Context) {
	var req entity.RecommendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	limit := h.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 1 || limit > h.maxLimit {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Limit must be between 1 and %d", h.maxLimit))
		return
	}

	resp, err := h.recommendService.Recommend(c.Request.Context(), req.UserID, limit)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, fmt.Sprintf("No rating history found for user %d", req.UserID))
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get recommendations")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDatasetInfo обрабатывает GET /dataset/info
func (h *RecommenderHandler) GetDatasetInfo(c *gin.Context) {
	info, err := h.queryService.GetDatasetInfo(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get dataset info")
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetMovieDetails обрабатывает GET /movie/:movie_id/details
func (h *RecommenderHandler) GetMovieDetails(c *gin.Context) {
	movieID, err := strconv.ParseInt(c.Param("movie_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid movie ID: must be numeric")
		return
	}

	details, err := h.queryService.GetMovieDetails(c.Request.Context(), movieID)
	if err != nil {
		if errors.Is(err, service.ErrMovieNotFound) {
			respondError(c, http.StatusNotFound, fmt.Sprintf("Movie %d not found", movieID))
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get movie details")
		return
	}

	c.JSON(http.StatusOK, details)
}

// GetTopRated обрабатывает GET /movies/top_rated?limit=
func (h *RecommenderHandler) GetTopRated(c *gin.Context) {
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}

	movies, err := h.queryService.GetTopRated(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get top rated movies")
		return
	}

	c.JSON(http.StatusOK, entity.MovieListResponse{Movies: movies, Total: len(movies)})
}

// GetPopular обрабатывает GET /movies/popular?limit=
func (h *RecommenderHandler) GetPopular(c *gin.Context) {
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}

	movies, err := h.queryService.GetPopular(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get popular movies")
		return
	}

	c.JSON(http.StatusOK, entity.MovieListResponse{Movies: movies, Total: len(movies)})
}

// SearchMovies обрабатывает GET /movies/search?query=
func (h *RecommenderHandler) SearchMovies(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		respondError(c, http.StatusBadRequest, "Query parameter is required")
		return
	}

	movies, err := h.queryService.SearchMovies(c.Request.Context(), query)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to search movies")
		return
	}

	c.JSON(http.StatusOK, entity.MovieListResponse{Movies: movies, Total: len(movies)})
}

// Train обрабатывает POST /train
func (h *RecommenderHandler) Train(c *gin.Context) {
	if err := h.recommendService.Train(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to train model")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Model trained successfully"})
}

// Import обрабатывает POST /import - операционный триггер переимпорта
// 409 - импорт уже выполняется (write-путь сериализован)
func (h *RecommenderHandler) Import(c *gin.Context) {
	result, err := h.importService.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrImportInProgress) {
			respondError(c, http.StatusConflict, "Dataset import already in progress")
			return
		}
		respondError(c, http.StatusInternalServerError, "Dataset import failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseLimit разбирает limit для списочных маршрутов
func (h *RecommenderHandler) parseLimit(c *gin.Context) (int, bool) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(h.defaultLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > h.maxLimit {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Limit must be between 1 and %d", h.maxLimit))
		return 0, false
	}
	return limit, true
}

// === HELPER FUNCTIONS ===

// respondError отправляет структурированный ответ об ошибке
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
