package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects where derivative images are written.
// Backend is "local" (default) or "minio". LocalDir is the public root that
// holds the uploads/ and profiles/ collections.
type StorageConfig struct {
	Backend  string
	LocalDir string
}

// GeminiConfig configures the vision model used as the classification oracle.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// ClassifierConfig bounds how hard a single batch may hit the oracle.
type ClassifierConfig struct {
	Concurrency      int
	RatePerSecond    float64
	Burst            int
	CallTimeout      time.Duration
	RetryMaxAttempts int
	BreakerEnabled   bool
}

// AuthConfig holds the secret shared with the token issuer.
type AuthConfig struct {
	JWTSecret string
}

// NATSConfig configures post-commit event publishing. An empty URL disables it.
type NATSConfig struct {
	URL     string
	Subject string
}

// UploadConfig holds per-batch input limits.
type UploadConfig struct {
	MaxFiles    int
	MaxFileSize int64
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	LogLevel   string
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Storage    StorageConfig
	Gemini     GeminiConfig
	Classifier ClassifierConfig
	Auth       AuthConfig
	NATS       NATSConfig
	Upload     UploadConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", "local"),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "./public"),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: getEnvDuration("GEMINI_TIMEOUT_SEC", 60*time.Second),
		},
		Classifier: ClassifierConfig{
			Concurrency:      getEnvInt("CLASSIFIER_CONCURRENCY", 4),
			RatePerSecond:    getEnvFloat("CLASSIFIER_RATE_PER_SEC", 5),
			Burst:            getEnvInt("CLASSIFIER_BURST", 4),
			CallTimeout:      getEnvDuration("CLASSIFIER_CALL_TIMEOUT_SEC", 45*time.Second),
			RetryMaxAttempts: getEnvInt("CLASSIFIER_RETRY_MAX_ATTEMPTS", 2),
			BreakerEnabled:   getEnvBool("CLASSIFIER_BREAKER_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "documents.ingested"),
		},
		Upload: UploadConfig{
			MaxFiles:    getEnvInt("UPLOAD_MAX_FILES", 10),
			MaxFileSize: int64(getEnvInt("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration reads a whole number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil && i > 0 {
			return time.Duration(i) * time.Second
		}
	}
	return def
}
