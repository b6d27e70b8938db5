package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movierec/pkg/logger"
	"movierec/pkg/metrics"
)

// SetupRoutes настраивает все маршруты Recommender Service с использованием Gin
func SetupRoutes(recommenderHandler *RecommenderHandler) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("recommender"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "recommender",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Основные маршруты: детали пользователя и рекомендации
	router.GET("/user/:user_id/details", recommenderHandler.GetUserDetails)
	router.GET("/recommend", recommenderHandler.Recommend)

	// Датасет и фильмы
	router.GET("/dataset/info", recommenderHandler.GetDatasetInfo)
	router.GET("/movie/:movie_id/details", recommenderHandler.GetMovieDetails)

	movies := router.Group("/movies")
	{
		movies.GET("/top_rated", recommenderHandler.GetTopRated) // Лучшие по средней оценке
		movies.GET("/popular", recommenderHandler.GetPopular)    // Лучшие по числу оценок
		movies.GET("/search", recommenderHandler.SearchMovies)   // Поиск по заголовку
	}

	// Операционные триггеры
	router.POST("/train", recommenderHandler.Train)   // Переобучение скорера
	router.POST("/import", recommenderHandler.Import) // Переимпорт датасета

	return router
}
