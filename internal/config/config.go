// Package config loads application configuration from the environment.
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

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreFirebase = "firebase"
	StoreMongo    = "mongo"
)

// Auth providers.
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

// Config holds application configuration
type Config struct {
	// Server
	Env                string
	Port               string
	LogLevel           string
	CORSAllowedOrigins []string

	// Record store
	StoreBackend string
	SQLitePath   string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Mongo
	MongoURI      string
	MongoDatabase string

	// Firebase
	FirebaseDatabaseURL     string
	FirebaseProjectID       string
	FirebaseCredentials     []byte
	FirebaseCredentialsFile string

	// Auth
	AuthProvider     string
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Exchange rates
	RatesURL         string
	RatesBase        string
	RatesTTL         time.Duration
	RequestTimeout   time.Duration
	AllowUnconverted bool

	// Dashboard sessions
	DashboardMaxSessions int
	DashboardIdleTTL     time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreSQLite)),
		SQLitePath:   getEnv("SQLITE_PATH", "spendlens.db"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "spendlens"),
		DBPassword: getEnv("DB_PASSWORD", "spendlens"),
		DBName:     getEnv("DB_NAME", "spendlens"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "spendlens"),

		FirebaseDatabaseURL:     os.Getenv("FIREBASE_DATABASE_URL"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_SERVICE_ACCOUNT_FILE"),

		AuthProvider: strings.ToLower(getEnv("AUTH_PROVIDER", AuthJWT)),
		JWTSecret:    getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		RatesURL:  strings.TrimRight(getEnv("RATES_URL", "https://api.exchangerate-api.com/v4/latest"), "/"),
		RatesBase: strings.ToUpper(getEnv("RATES_BASE", "USD")),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	switch cfg.StoreBackend {
	case StoreSQLite, StorePostgres, StoreFirebase, StoreMongo:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be sqlite, postgres, firebase, or mongo", cfg.StoreBackend)
	}

	switch cfg.AuthProvider {
	case AuthJWT, AuthFirebase:
	default:
		return nil, fmt.Errorf("invalid AUTH_PROVIDER %q: must be jwt or firebase", cfg.AuthProvider)
	}

	creds, err := firebaseCredentials()
	if err != nil {
		return nil, err
	}
	cfg.FirebaseCredentials = creds

	if cfg.StoreBackend == StoreFirebase && cfg.FirebaseDatabaseURL == "" {
		return nil, fmt.Errorf("FIREBASE_DATABASE_URL is required when STORE_BACKEND=firebase")
	}

	if cfg.JWTExpirationDur, err = parseDuration("JWT_EXPIRES_IN", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RatesTTL, err = parseDuration("RATES_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DashboardIdleTTL, err = parseDuration("DASHBOARD_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DashboardMaxSessions, err = parsePositiveInt("DASHBOARD_MAX_SESSIONS", 1000); err != nil {
		return nil, err
	}
	if cfg.AllowUnconverted, err = parseBool(os.Getenv("ALLOW_UNCONVERTED"), false); err != nil {
		return nil, fmt.Errorf("invalid ALLOW_UNCONVERTED value: %w", err)
	}

	return cfg, nil
}

// PostgresDSN returns the gorm connection string for the postgres backend.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// PostgresURL returns the URL form of the postgres connection used by migrate.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}

func parseBool(s string, defaultVal bool) (bool, error) {
	if s == "" {
		return defaultVal, nil
	}
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("must be true, false, 1, or 0, got %q", s)
	}
}
