package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Log      LogConfig
	Auth     AuthConfig
	Fare     FareConfig
	Geo      GeoConfig
	Kafka    KafkaConfig
	Stripe   StripeConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string
}

// AuthConfig holds the shared secret used to verify caller tokens.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// FareConfig holds the pricing constants.
type FareConfig struct {
	BaseFare   float64
	PerKmRate  float64
	RiderShare float64
	// DefaultRequestFare replaces a stored fare <= 0 when grouping. 0 disables it.
	DefaultRequestFare float64
}

// GeoConfig holds geocoding and routing configuration.
type GeoConfig struct {
	GoogleMapsAPIKey string
	RouterProvider   string // "osrm" or "google"
	OSRMEndpoint     string
	Region           string
	HTTPTimeout      time.Duration
	FallbackLat      float64
	FallbackLng      float64
	FallbackRadiusKm float64
	RouteCacheTTL    time.Duration
}

// KafkaConfig holds the event publisher configuration.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// StripeConfig holds the card processor configuration.
type StripeConfig struct {
	APIKey   string
	Currency string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "carpool"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "carpool-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getDurationEnv("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Fare: FareConfig{
			BaseFare:           getFloatEnv("FARE_BASE", 30),
			PerKmRate:          getFloatEnv("FARE_PER_KM", 8),
			RiderShare:         getFloatEnv("FARE_RIDER_SHARE", 0.6),
			DefaultRequestFare: getFloatEnv("FARE_DEFAULT_REQUEST", 0),
		},
		Geo: GeoConfig{
			GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
			RouterProvider:   getEnv("ROUTER_PROVIDER", "osrm"),
			OSRMEndpoint:     getEnv("OSRM_ENDPOINT", "https://router.project-osrm.org"),
			Region:           getEnv("GEO_REGION", "in"),
			HTTPTimeout:      getDurationEnv("GEO_HTTP_TIMEOUT", 3*time.Second),
			FallbackLat:      getFloatEnv("GEO_FALLBACK_LAT", 10.8505),
			FallbackLng:      getFloatEnv("GEO_FALLBACK_LNG", 76.2711),
			FallbackRadiusKm: getFloatEnv("GEO_FALLBACK_RADIUS_KM", 10),
			RouteCacheTTL:    getDurationEnv("GEO_ROUTE_CACHE_TTL", 6*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "carpool.events"),
		},
		Stripe: StripeConfig{
			APIKey:   getEnv("STRIPE_API_KEY", ""),
			Currency: getEnv("STRIPE_CURRENCY", "inr"),
		},
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Fare.BaseFare < 0 || c.Fare.PerKmRate < 0 {
		errs = append(errs, errors.New("fare constants must not be negative"))
	}
	if c.Fare.RiderShare <= 0 || c.Fare.RiderShare > 1 {
		errs = append(errs, fmt.Errorf("FARE_RIDER_SHARE must be in (0, 1], got %v", c.Fare.RiderShare))
	}
	if c.Fare.DefaultRequestFare < 0 {
		errs = append(errs, errors.New("FARE_DEFAULT_REQUEST must not be negative"))
	}
	switch c.Geo.RouterProvider {
	case "osrm":
	case "google":
		if c.Geo.GoogleMapsAPIKey == "" {
			errs = append(errs, errors.New("ROUTER_PROVIDER=google requires GOOGLE_MAPS_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ROUTER_PROVIDER %q", c.Geo.RouterProvider))
	}
	if c.Geo.FallbackRadiusKm < 0 {
		errs = append(errs, errors.New("GEO_FALLBACK_RADIUS_KM must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
