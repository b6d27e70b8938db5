package entity

// RecommendRequest - параметры запроса GET /recommend
// Limit - указатель: nil означает "параметр не передан" (применяется дефолт),
// а явный 0 или отрицательное значение отклоняются в handler'е
type RecommendRequest struct {
	UserID int64 `form:"user_id" validate:"required,min=1"`
	Limit  *int  `form:"limit"`
}

// UserDetailsResponse - агрегированное представление пользователя,
// вычисленное join'ом ratings ⋈ movies (материализованной таблицы users нет)
type UserDetailsResponse struct {
	UserID        int64        `json:"user_id"`
	RatingCount   int          `json:"rating_count"`
	AverageRating float64      `json:"average_rating"`
	Movies        []RatedMovie `json:"movies"`
}

// RecommendResponse - ранжированный список рекомендаций для пользователя
type RecommendResponse struct {
	UserID          int64            `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
}

// MovieDetailsResponse - агрегат оценок одного фильма
type MovieDetailsResponse struct {
	MovieID    int64   `json:"movie_id"`
	Title      string  `json:"title"`
	AvgRating  float64 `json:"avg_rating"`
	NumRatings int64   `json:"num_ratings"`
}

// MovieListResponse - список фильмов (top_rated, popular, search)
type MovieListResponse struct {
	Movies []MovieAggregate `json:"movies"`
	Total  int              `json:"total"`
}

// ImportResponse - счётчики строк по итогам загрузки датасета
type ImportResponse struct {
	ImportID        string `json:"import_id"`
	MoviesLoaded    int    `json:"movies_loaded"`
	MoviesSkipped   int    `json:"movies_skipped"`
	RatingsLoaded   int    `json:"ratings_loaded"`
	RatingsSkipped  int    `json:"ratings_skipped"`
	RatingsRejected int    `json:"ratings_rejected"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
