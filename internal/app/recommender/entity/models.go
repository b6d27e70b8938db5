package entity

import "time"

// Movie представляет фильм из датасета метаданных (movies.csv)
// Заполняется только загрузчиком, для остальных компонентов read-only
type Movie struct {
	MovieID int64  `json:"movie_id" gorm:"primaryKey;autoIncrement:false;column:movie_id"`
	Title   string `json:"title" gorm:"type:varchar(255);not null"`
	Genres  string `json:"genres" gorm:"type:varchar(255)"`
}

func (Movie) TableName() string {
	return "movies"
}

// Rating представляет оценку фильма пользователем (ratings.csv)
// Составной первичный ключ (user_id, movie_id) обеспечивает политику
// last-write-wins при повторной загрузке дубликатов
type Rating struct {
	UserID  int64   `json:"user_id" gorm:"primaryKey;autoIncrement:false;column:user_id"`
	MovieID int64   `json:"movie_id" gorm:"primaryKey;autoIncrement:false;column:movie_id"`
	Rating  float64 `json:"rating" gorm:"type:decimal(2,1);not null"`
	RatedAt int64   `json:"rated_at" gorm:"column:rated_at"`
}

func (Rating) TableName() string {
	return "ratings"
}

// RatedMovie - строка join'а ratings ⋈ movies для деталей пользователя
type RatedMovie struct {
	MovieID int64   `json:"movie_id"`
	Title   string  `json:"title"`
	Rating  float64 `json:"rating"`
}

// MovieAggregate - агрегат оценок одного фильма, вход для скорера
type MovieAggregate struct {
	MovieID     int64   `json:"movie_id"`
	Title       string  `json:"title"`
	RatingCount int64   `json:"rating_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// ScoredMovie - кандидат рекомендации от скорера (id + предсказанная оценка)
type ScoredMovie struct {
	MovieID int64   `json:"movie_id"`
	Score   float64 `json:"score"`
}

// Recommendation - элемент итогового ответа: id кандидата, разрешённый
// заголовок и оценка скорера в порядке ранжирования
type Recommendation struct {
	MovieID int64   `json:"movie_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}

// DatasetInfo - сводка по загруженному датасету
type DatasetInfo struct {
	NumUsers   int64 `json:"num_users"`
	NumMovies  int64 `json:"num_movies"`
	NumRatings int64 `json:"num_ratings"`
}

// ImportEvent представляет событие завершения импорта датасета для Kafka
type ImportEvent struct {
	EventType       string    `json:"event_type"` // DATASET_IMPORTED
	ImportID        string    `json:"import_id"`
	MoviesLoaded    int       `json:"movies_loaded"`
	MoviesSkipped   int       `json:"movies_skipped"`
	RatingsLoaded   int       `json:"ratings_loaded"`
	RatingsSkipped  int       `json:"ratings_skipped"`
	RatingsRejected int       `json:"ratings_rejected"`
	Timestamp       time.Time `json:"timestamp"`
}

const EventTypeDatasetImported = "DATASET_IMPORTED"

// UnknownTitle - сентинел для кандидатов, не нашедших строку в movies
// Возвращается вместо ошибки: частичное покрытие метаданных - штатная ситуация
const UnknownTitle = "Unknown Title"
