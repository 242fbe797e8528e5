package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the broadcast coordinator configuration.
// Values come from environment variables (optionally via a .env file) with defaults
// that let the server run standalone, like the original deployment.
type Config struct {
	ListenAddr string // e.g., ":3001"

	// Track store
	UploadDir       string   // Directory for uploaded audio files (file backend)
	MaxUploadBytes  int64    // Reject uploads larger than this (default 100 MB)
	AllowedMimeList []string // Audio MIME allow-list for /upload

	// Station identity, shown while nothing specific is on air
	StationTitle       string
	StationArtist      string
	StationDescription string

	// Auto-advance fallback when a track carries no usable duration
	DefaultAdvanceInterval time.Duration

	// Storage backend: "file" (default) or "minio"
	StorageBackend string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// MySQL track metadata store; when DBHost is empty the in-memory
	// repository is used instead.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis: broadcast-state snapshot persistence and listener presence. Optional.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Admin auth boundary. When AdminPasswordHash is empty the administrative
	// endpoints are open, matching the original deployment.
	JWTSecret         string
	AdminPasswordHash string // bcrypt hash of the admin password
	TokenTTL          time.Duration

	// Logging
	LogLevel  string
	LogOutput string // file path for rotated logs, empty = stdout only
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvInt64 gets an environment variable as int64 or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvSeconds gets an environment variable expressed in seconds as a duration.
func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() does not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	uploadBase := getEnv("UPLOAD_DIR", "uploads")

	mimeList := strings.Split(getEnv("ALLOWED_AUDIO_TYPES",
		"audio/mpeg,audio/mp3,audio/wav,audio/aac,audio/ogg"), ",")
	for i := range mimeList {
		mimeList[i] = strings.TrimSpace(mimeList[i])
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":3001"),

		UploadDir:       filepath.Join(uploadBase, "audio"),
		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 100*1024*1024),
		AllowedMimeList: mimeList,

		StationTitle:       getEnv("STATION_TITLE", "Radio Comunitaria Pinto Los Pellines"),
		StationArtist:      getEnv("STATION_ARTIST", "Comunidad Local"),
		StationDescription: getEnv("STATION_DESCRIPTION", "Estación de radio comunitaria de Pinto Los Pellines"),

		DefaultAdvanceInterval: getEnvSeconds("DEFAULT_ADVANCE_SECONDS", 30*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", "file"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "pellinesfm"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		DBHost:     os.Getenv("DB_HOST"), // empty = in-memory repository
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "pellinesfm"),

		RedisHost:     os.Getenv("REDIS_HOST"), // empty = Redis disabled
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		TokenTTL:          getEnvSeconds("TOKEN_TTL_SECONDS", 24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogOutput: getEnv("LOG_OUTPUT", ""),
	}
}
