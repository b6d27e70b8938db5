package service

import (
	"context"

	"movierec/internal/app/recommender/entity"
	"movierec/internal/app/recommender/loader"
)

type QueryServiceInterface interface {
	GetUserDetails(ctx context.Context, userID int64) (*entity.UserDetailsResponse, error)
	GetDatasetInfo(ctx context.Context) (*entity.DatasetInfo, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*entity.MovieDetailsResponse, error)
	GetTopRated(ctx context.Context, limit int) ([]entity.MovieAggregate, error)
	GetPopular(ctx context.Context, limit int) ([]entity.MovieAggregate, error)
	SearchMovies(ctx context.Context, query string) ([]entity.MovieAggregate, error)
}

type RecommendServiceInterface interface {
	Recommend(ctx context.Context, userID int64, limit int) (*entity.RecommendResponse, error)
	Train(ctx context.Context) error
}

type ImportServiceInterface interface {
	Run(ctx context.Context) (*entity.ImportResponse, error)
}

// Scorer - контракт внешней скоринговой функции
// Возвращает упорядоченных кандидатов; сама функция ранжирования -
// подключаемая, адаптер отвечает только за разрешение заголовков
type Scorer interface {
	Score(ctx context.Context, userID int64, limit int) ([]entity.ScoredMovie, error)
	Train(ctx context.Context) error
}

// DatasetLoader - контракт загрузчика датасета для Import service
type DatasetLoader interface {
	Load(ctx context.Context) (*loader.LoadResult, error)
}
