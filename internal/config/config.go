package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Places gateway modes
const (
	PlacesModeDisabled = "disabled"
	PlacesModeGoogle   = "google"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Busstop and route data source
	Store StoreConfig

	// External places lookup used for fuzzy locations
	Places PlacesConfig

	// Route finding tuning
	Routing RoutingConfig

	// CORS configuration
	CORS CORSConfig

	// OpenTelemetry trace export
	Tracing TracingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string
	Environment    string        // development, staging, production
	LogLevel       string        // debug, info, warn, error
	RequestTimeout time.Duration // Deadline applied to every request context
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver             string // "postgres" (lib/pq) or "pgx"
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// StoreConfig selects where busstops and routes are read from
type StoreConfig struct {
	Backend     string // "postgres" or "memory"
	NetworkFile string // YAML network file for the memory backend
}

// PlacesConfig holds places gateway configuration
type PlacesConfig struct {
	Mode         string // "disabled" or "google"
	APIKey       string
	BaseURL      string
	RadiusMeters int    // Search radius around a fuzzy location
	FallbackCity string // Area appended to fuzzy locations typed without one
	Timeout      time.Duration
}

// RoutingConfig holds route engine and matching configuration
type RoutingConfig struct {
	CostBand            int     // Paths costing min+CostBand or more are dropped
	SimilarityThreshold float64 // Minimum trigram similarity for busstop name matches
}

// TracingConfig holds OTLP trace export configuration
type TracingConfig struct {
	Enabled     bool
	Endpoint    string // OTLP/HTTP collector host:port
	ServiceName string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 20)) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:             getEnv("DATABASE_DRIVER", "postgres"),
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Store: StoreConfig{
			Backend:     getEnv("STORE_BACKEND", StoreBackendPostgres),
			NetworkFile: getEnv("NETWORK_FILE", ""),
		},
		Places: PlacesConfig{
			Mode:         getEnv("PLACES_MODE", PlacesModeDisabled),
			APIKey:       getEnv("GOOGLE_PLACES_API_KEY", ""),
			BaseURL:      getEnv("GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"),
			RadiusMeters: getEnvAsInt("PLACES_RADIUS_METERS", 800),
			FallbackCity: getEnv("PLACES_FALLBACK_CITY", "lagos"),
			Timeout:      time.Duration(getEnvAsInt("PLACES_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Routing: RoutingConfig{
			CostBand:            getEnvAsInt("ROUTE_COST_BAND", 5),
			SimilarityThreshold: getEnvAsFloat("BUSSTOP_SIMILARITY_THRESHOLD", 0.3),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "danfo-route-finder"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "X-Request-ID"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store backend")
		}
	case StoreBackendMemory:
		if c.Store.NetworkFile == "" {
			return fmt.Errorf("NETWORK_FILE is required for the memory store backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be 'postgres' or 'memory')", c.Store.Backend)
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("invalid database driver: %s (must be 'postgres' or 'pgx')", c.Database.Driver)
	}

	switch c.Places.Mode {
	case PlacesModeDisabled:
	case PlacesModeGoogle:
		if c.Places.APIKey == "" {
			return fmt.Errorf("GOOGLE_PLACES_API_KEY is required when PLACES_MODE is google")
		}
	default:
		return fmt.Errorf("invalid places mode: %s (must be 'disabled' or 'google')", c.Places.Mode)
	}

	if c.Places.RadiusMeters <= 0 {
		return fmt.Errorf("PLACES_RADIUS_METERS must be positive")
	}

	if c.Routing.CostBand <= 0 {
		return fmt.Errorf("ROUTE_COST_BAND must be positive")
	}

	if c.Routing.SimilarityThreshold <= 0 || c.Routing.SimilarityThreshold > 1 {
		return fmt.Errorf("BUSSTOP_SIMILARITY_THRESHOLD must be in (0, 1]")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
