package main

import (
	"agrointel-service/internal/advisor"
	"agrointel-service/internal/classifier"
	"agrointel-service/internal/handler"
	"agrointel-service/internal/middleware"
	"agrointel-service/internal/weather"
	"agrointel-service/pkg/config"
	"agrointel-service/pkg/database"
	"agrointel-service/pkg/jwtutil"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting farm management service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// The crop model is required: refusing to start beats answering
	// predictions with a missing model.
	if err := classifier.Initialize(&cfg.Model); err != nil {
		log.Fatal("Failed to load crop model", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	log.Info("Crop model loaded", zap.String("path", cfg.Model.Path))

	// Initialize the weather client
	weather.Initialize(&cfg.Weather)
	log.Info("Weather client initialized", zap.String("base_url", cfg.Weather.BaseURL))

	// The advisor is optional: without an API key the service starts and
	// the advisor endpoints answer 503.
	advisor.Initialize(&cfg.Advisor)
	if cfg.Advisor.APIKey == "" {
		log.Warn("DEEPSEEK_API_KEY not set, advisor endpoints will answer 503")
	} else {
		log.Info("Advisor client initialized", zap.String("model", cfg.Advisor.Model))
	}

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.POST("/register", handler.Register)
	e.POST("/login", handler.Login)

	// Stateless analysis routes - no tenant data involved
	e.POST("/predict", handler.Predict)
	e.GET("/meteo", handler.Forecast)
	e.POST("/irrigar", handler.Irrigate)
	e.POST("/analise-completa", handler.FullAnalysis)

	// Authenticated routes - tenant scope comes from the token
	authed := e.Group("")
	authed.Use(middleware.AuthMiddleware)
	authed.GET("/me", handler.Me)
	authed.POST("/chat", handler.Chat)

	fazenda := authed.Group("/fazenda")
	fazenda.PUT("/polygon", handler.UpdatePolygon)
	fazenda.GET("/zones", handler.ListZones)
	fazenda.POST("/zones", handler.CreateZone)
	fazenda.PUT("/zones/:id", handler.UpdateZone)
	fazenda.DELETE("/zones/:id", handler.DeleteZone)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
