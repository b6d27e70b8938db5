package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config содержит все настройки Recommender Service
// Включает конфигурацию для HTTP сервера, PostgreSQL, Redis, Kafka,
// источников датасета и параметров рекомендаций
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Dataset   DatasetConfig
	Recommend RecommendConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8080)
}

// DatabaseConfig - настройки подключения к PostgreSQL
// Одна и та же конфигурация используется загрузчиком и query-слоем,
// чтобы оба компонента гарантированно работали с одним хранилищем
type DatabaseConfig struct {
	Host     string // Хост PostgreSQL
	Port     string // Порт PostgreSQL
	User     string // Имя пользователя БД
	Password string // Пароль БД
	DBName   string // Имя базы данных
	SSLMode  string // Режим SSL (disable/require/verify-full)
}

// RedisConfig - настройки подключения к Redis для кеширования
// Кешируются детали пользователя, сводка датасета и списки top/popular
type RedisConfig struct {
	Host     string // Хост Redis
	Port     string // Порт Redis
	Password string // Пароль Redis (опционально)
	DB       int    // Номер БД Redis (0-15)
}

// KafkaConfig - настройки Kafka для отправки событий
// Событие DATASET_IMPORTED отправляется по завершении импорта датасета
type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для событий импорта
}

// DatasetConfig - источники датасета и поведение импорта
type DatasetConfig struct {
	MoviesPath    string // Путь к movies.csv (movieId,title,genres)
	RatingsPath   string // Путь к ratings.csv (userId,movieId,rating,timestamp)
	ImportOnStart bool   // Выполнять ли загрузку при старте сервиса
}

// RecommendConfig - параметры выдачи рекомендаций
type RecommendConfig struct {
	DefaultLimit  int    // Размер выдачи, если limit не передан
	MaxLimit      int    // Верхняя граница limit (больше - 400)
	TrainSchedule string // Cron-расписание периодического переобучения скорера
}

// Load загружает конфигурацию из переменных окружения
// Возвращает ошибку, если не удалось распарсить значения
func Load() (*Config, error) {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	defaultLimit, err := strconv.Atoi(getEnv("RECOMMEND_DEFAULT_LIMIT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMEND_DEFAULT_LIMIT value: %w", err)
	}

	maxLimit, err := strconv.Atoi(getEnv("RECOMMEND_MAX_LIMIT", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECOMMEND_MAX_LIMIT value: %w", err)
	}

	importOnStart, err := strconv.ParseBool(getEnv("IMPORT_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMPORT_ON_START value: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "movies"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "dataset_events"),
		},
		Dataset: DatasetConfig{
			MoviesPath:    getEnv("DATASET_MOVIES_PATH", "/data/movies.csv"),
			RatingsPath:   getEnv("DATASET_RATINGS_PATH", "/data/ratings.csv"),
			ImportOnStart: importOnStart,
		},
		Recommend: RecommendConfig{
			DefaultLimit:  defaultLimit,
			MaxLimit:      maxLimit,
			TrainSchedule: getEnv("TRAIN_SCHEDULE", "@hourly"),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает строку подключения к PostgreSQL в формате URL для pgx
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port для HTTP сервера
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port для подключения
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
