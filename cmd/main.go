package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"movierec/internal/app/recommender/config"
	"movierec/internal/app/recommender/handler"
	"movierec/internal/app/recommender/loader"
	"movierec/internal/app/recommender/processor"
	"movierec/internal/app/recommender/repository"
	"movierec/internal/app/recommender/scorer"
	"movierec/internal/app/recommender/service"
	"movierec/internal/app/recommender/util"
	"movierec/pkg/logger"
)

func main() {
	// === ИНИЦИАЛИЗАЦИЯ ЛОГГЕРА И КОНФИГУРАЦИИ ===
	logLevel := os.Getenv("LOG_LEVEL")
	if logstashAddr := os.Getenv("LOGSTASH_ADDR"); logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, "recommender", logLevel); err != nil {
			logger.Init("recommender", logLevel)
			logger.Warn().Err(err).Msg("Failed to connect to logstash, logging to stdout only")
		}
	} else {
		logger.Init("recommender", logLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL (GORM) ===
	// gorm используется загрузчиком датасета: миграции и batch upsert
	gormDB, err := connectGorm(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database via gorm")
	}
	logger.Info().Msg("Successfully connected to PostgreSQL (gorm)")

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL (PGX POOL) ===
	// pgx pool обслуживает read-path: join-запросы и агрегаты
	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database via pgx")
	}
	defer pool.Close()
	logger.Info().Msg("Successfully connected to PostgreSQL (pgx pool)")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Redis кеширует детали пользователя, сводку датасета и списки фильмов
	redisClient, err := util.NewRedisClient(
		cfg.Redis.Address(),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Successfully connected to Redis")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	// Producer отправляет событие DATASET_IMPORTED по завершении импорта
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Msg("Successfully initialized Kafka producer")

	// === МИГРАЦИИ И ЗАГРУЗКА ДАТАСЕТА ===
	datasetLoader := loader.New(gormDB, cfg.Dataset.MoviesPath, cfg.Dataset.RatingsPath)

	if err := datasetLoader.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info().Msg("Database migrations applied")

	if cfg.Dataset.ImportOnStart {
		logger.Info().
			Str("movies", cfg.Dataset.MoviesPath).
			Str("ratings", cfg.Dataset.RatingsPath).
			Msg("Importing dataset on startup")

		result, err := datasetLoader.Load(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to import dataset")
		}
		logger.Info().
			Int("movies_loaded", result.MoviesLoaded).
			Int("movies_skipped", result.MoviesSkipped).
			Int("ratings_loaded", result.RatingsLoaded).
			Int("ratings_skipped", result.RatingsSkipped).
			Int("ratings_rejected", result.RatingsRejected).
			Msg("Dataset import completed")
	}

	// === ИНИЦИАЛИЗАЦИЯ СЛОЯ РЕПОЗИТОРИЕВ ===
	movieRepo := repository.NewMovieRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)

	// === ОБУЧЕНИЕ СКОРИНГОВОЙ МОДЕЛИ ===
	// Модель обязана быть готова до приёма трафика: без неё /recommend
	// отдавал бы пустую выдачу
	baseline := scorer.NewBaseline(movieRepo, ratingRepo)
	if err := baseline.Train(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to train scorer model")
	}
	logger.Info().Msg("Scorer model trained")

	// === ИНИЦИАЛИЗАЦИЯ БИЗНЕС-ЛОГИКИ ===
	queryService := service.NewQueryService(movieRepo, ratingRepo, redisClient)
	recommendService := service.NewRecommendService(movieRepo, ratingRepo, baseline)
	importService := service.NewImportService(datasetLoader, redisClient, kafkaProducer, baseline)

	// === ПЕРИОДИЧЕСКОЕ ПЕРЕОБУЧЕНИЕ ===
	cronScheduler := processor.NewCronScheduler(recommendService)
	if err := cronScheduler.Start(ctx, cfg.Recommend.TrainSchedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cron scheduler")
	}
	defer cronScheduler.Stop()

	// === ИНИЦИАЛИЗАЦИЯ HTTP HANDLERS И МАРШРУТОВ ===
	recommenderHandler := handler.NewRecommenderHandler(
		queryService,
		recommendService,
		importService,
		cfg.Recommend.DefaultLimit,
		cfg.Recommend.MaxLimit,
	)
	router := handler.SetupRoutes(recommenderHandler)

	// === НАСТРОЙКА HTTP СЕРВЕРА ===
	// Production-ready настройки с таймаутами
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second, // Таймаут чтения запроса
		WriteTimeout: 15 * time.Second, // Таймаут записи ответа
		IdleTimeout:  60 * time.Second, // Таймаут idle соединений
	}

	// === ЗАПУСК HTTP СЕРВЕРА ===
	// Запускаем сервер в отдельной горутине для graceful shutdown
	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("Starting Recommender Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	// Ожидаем сигнала завершения (SIGINT или SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Recommender Service...")

	// Даем серверу 30 секунд на завершение текущих запросов
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Recommender Service stopped gracefully")
}

// connectGorm открывает gorm-соединение для миграций и загрузчика датасета
// Retry logic нужна при запуске в Docker, когда PostgreSQL ещё не готов
func connectGorm(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			return db, nil
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}

// connectDB устанавливает соединение с PostgreSQL используя pgx connection pool
// Использует retry logic с 10 попытками для устойчивости при запуске в Docker
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, err
	}

	// Оптимальные настройки пула для production
	poolConfig.MaxConns = 25                       // Максимум соединений в пуле
	poolConfig.MinConns = 5                        // Минимум соединений (держим открытыми)
	poolConfig.MaxConnLifetime = 5 * time.Minute   // Время жизни соединения
	poolConfig.MaxConnIdleTime = 1 * time.Minute   // Время простоя перед закрытием
	poolConfig.HealthCheckPeriod = 1 * time.Minute // Периодичность health checks

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
