package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danfoguide/route-finder/internal/config"
	"github.com/danfoguide/route-finder/internal/database"
	"github.com/danfoguide/route-finder/internal/handlers"
	"github.com/danfoguide/route-finder/internal/middleware"
	"github.com/danfoguide/route-finder/internal/services"
	"github.com/danfoguide/route-finder/internal/tracing"
	"github.com/danfoguide/route-finder/pkg/places"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

// networkStore is everything the services need from a busstop and route backend
type networkStore interface {
	services.StopStore
	services.RouteStore
	services.Catalog
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Danfo Route Finder")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize tracing
	shutdownTracing, err := tracing.Init(cfg.Tracing, version, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracing()
	if cfg.Tracing.Enabled {
		logger.WithField("endpoint", cfg.Tracing.Endpoint).Info("Tracing enabled")
	}

	// Initialize busstop and route store
	var (
		db         database.DB
		store      networkStore
		searchLogs services.SearchLogger
	)

	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
		db, err = database.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Info("Database connection established")

		store = database.NewNetwork(db, cfg.Routing.SimilarityThreshold)
		searchLogs = database.NewSearchLogRepository(db)
	case config.StoreBackendMemory:
		logger.WithField("file", cfg.Store.NetworkFile).Info("Loading network file...")
		memoryStore, err := database.LoadNetworkFile(cfg.Store.NetworkFile, cfg.Routing.SimilarityThreshold)
		if err != nil {
			logger.Fatalf("Failed to load network file: %v", err)
		}
		routeIDs, err := memoryStore.ListRouteIDs()
		if err != nil {
			logger.Fatalf("Failed to list routes: %v", err)
		}
		logger.WithField("routes", len(routeIDs)).Info("Network loaded into memory (search analytics disabled)")
		store = memoryStore
	}

	// Initialize places gateway
	var gateway places.Gateway
	if cfg.Places.Mode == config.PlacesModeGoogle {
		gateway = places.NewGoogleGateway(places.GoogleConfig{
			APIKey:  cfg.Places.APIKey,
			BaseURL: cfg.Places.BaseURL,
			Timeout: cfg.Places.Timeout,
		}, logger)
	} else {
		logger.Info("Places gateway disabled (fuzzy locations will not match any busstop)")
		gateway = places.NewDisabledGateway()
	}
	logger.WithField("gateway", gateway.GetName()).Info("Places gateway initialized")

	// Initialize services
	logger.Info("Initializing services...")
	resolver := services.NewStopResolver(store, gateway, services.StopResolverConfig{
		RadiusMeters: cfg.Places.RadiusMeters,
		FallbackCity: cfg.Places.FallbackCity,
	}, logger)
	engine := services.NewRouteEngine(store, cfg.Routing.CostBand, logger)
	searchService := services.NewSearchService(resolver, engine, store, searchLogs, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(searchService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  cfg.CORS.AllowedMethods,
		AllowHeaders:  cfg.CORS.AllowedHeaders,
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, cfg.Store.Backend))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	searchHandler.RegisterRoutes(v1)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)

		// Log errors with more details
		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		// Log based on status code
		status := c.Writer.Status()
		if status >= 500 {
			entry.Error("Request completed with server error")
		} else if status >= 400 {
			entry.Warn("Request completed with client error")
		} else {
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint. db is nil for the memory backend.
func healthCheckHandler(db database.DB, backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "not_configured"
		if db != nil {
			dbStatus = "healthy"
			if err := db.Ping(); err != nil {
				dbStatus = "unhealthy"
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"database": dbStatus,
					"error":    err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"store":     backend,
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
