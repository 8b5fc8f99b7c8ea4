package main

import (
	"context"

	"pricing-service/internal/handler"
	mid "pricing-service/internal/middleware"
	"pricing-service/internal/pricing"
	"pricing-service/internal/store"
	"pricing-service/pkg/config"
	"pricing-service/pkg/database"
	"pricing-service/pkg/jwtutil"
	"pricing-service/pkg/logger"
	"pricing-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// meteredQuoter wraps the predictor so fallback substitutions show up
// in the metrics.
type meteredQuoter struct {
	quoter pricing.Quoter
}

func (m meteredQuoter) Quote(ctx context.Context, in pricing.PredictionInput) pricing.PriceQuote {
	quote := m.quoter.Quote(ctx, in)
	if quote.Source == pricing.QuoteFallback {
		prometheus.RecordPredictorFallback()
	}
	return quote
}

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting pricing-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire stores and pricing services
	db := database.GetDB()
	catalog := store.NewCatalog(db)
	optimalResults := store.NewOptimalResults(db)
	tarificationResults := store.NewTarificationResults(db)

	predictor := pricing.NewPredictor(appConfig.Predictor.BaseURL, appConfig.Predictor.Timeout, log)
	normalizer := pricing.NewNormalizer(predictor)
	optimalService := pricing.NewOptimalService(catalog, optimalResults, meteredQuoter{predictor}, normalizer, log)
	tarificationEngine := pricing.NewTarificationEngine(catalog, tarificationResults, log)
	log.Info("Pricing services initialized",
		zap.String("predictor_base_url", appConfig.Predictor.BaseURL))

	productHandler := &handler.ProductHandler{Catalog: catalog}
	pricingHandler := &handler.PricingHandler{Service: optimalService}
	tarificationHandler := &handler.TarificationHandler{Engine: tarificationEngine}
	authHandler := &handler.AuthHandler{
		Catalog:             catalog,
		OptimalResults:      optimalResults,
		TarificationResults: tarificationResults,
	}

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Routes
	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.PUT("/auth/update", authHandler.UpdateUser, mid.AuthMiddleware)
	e.DELETE("/auth/delete", authHandler.DeleteUser, mid.AuthMiddleware)

	// Product API routes
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", productHandler.ListProducts)
	productAPI.GET("/:id", productHandler.GetProduct)
	productAPI.POST("", productHandler.CreateProduct)
	productAPI.PUT("/:id", productHandler.UpdateProduct)
	productAPI.DELETE("/:id", productHandler.DeleteProduct)

	// Optimal pricing routes
	pricingAPI := e.Group("/api/pricing", mid.AuthMiddleware)
	pricingAPI.POST("/:productId", pricingHandler.ComputeOptimal)
	pricingAPI.GET("/history", pricingHandler.History)
	pricingAPI.GET("/history/:productId", pricingHandler.ProductHistory)

	// Tarification strategy routes
	tarificationAPI := e.Group("/api/tarification", mid.AuthMiddleware)
	tarificationAPI.POST("/skimming/:productId", tarificationHandler.Skimming)
	tarificationAPI.POST("/penetration/:productId", tarificationHandler.Penetration)
	tarificationAPI.POST("/matching/:productId", tarificationHandler.Matching)
	tarificationAPI.POST("/future/:productId", tarificationHandler.Future)
	tarificationAPI.GET("/history", tarificationHandler.History)
	tarificationAPI.GET("/history/:productId", tarificationHandler.ProductHistory)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
