// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration knobs for the HTTP server and the document store.
type Config struct {
	AppEnv          string
	Port            string
	HostURL         string
	BasePath        string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	Store           Store
}

// Store selects and configures the document store backend.
type Store struct {
	Driver string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string

	FirestoreProjectID string
}

// DSN returns the postgres connection string. DATABASE_URL wins when set.
func (s Store) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName, s.DBSSLMode)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func levelenv(key string, def slog.Level) slog.Level {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return def
	}
	return lvl
}

// normalizeBasePath ensures a leading slash and strips trailing ones; "/" becomes "".
func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// LoadEnv loads .env.local when APP_ENV is "local". It returns the effective APP_ENV.
func LoadEnv() string {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}
	if appEnv == "local" {
		if err := godotenv.Load(".env.local"); err != nil {
			slog.Warn("env_file_not_loaded", "file", ".env.local", "error", err)
		} else {
			slog.Info("env_file_loaded", "file", ".env.local")
		}
	}
	return appEnv
}

// Load collects configuration from environment with defaults.
func Load() Config {
	appEnv := LoadEnv()
	port := getenv("PORT", "8080")
	return Config{
		AppEnv:          appEnv,
		Port:            port,
		HostURL:         getenv("HOST_URL", "http://localhost:"+port),
		BasePath:        normalizeBasePath(getenv("API_BASE_PATH", "/api")),
		LogLevel:        levelenv("LOG_LEVEL", slog.LevelInfo),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),
		Store: Store{
			Driver:             strings.ToLower(getenv("STORE_DRIVER", "memory")),
			DatabaseURL:        getenv("DATABASE_URL", ""),
			DBHost:             getenv("DB_HOST", "localhost"),
			DBPort:             getenv("DB_PORT", "5432"),
			DBUser:             getenv("DB_USER", ""),
			DBPassword:         getenv("DB_PASSWORD", ""),
			DBName:             getenv("DB_NAME", ""),
			DBSSLMode:          getenv("DB_SSLMODE", "disable"),
			RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:      getenv("REDIS_PASSWORD", ""),
			RedisDB:            atoienv("REDIS_DB", 0),
			MongoURI:           getenv("MONGO_URI", ""),
			MongoDatabase:      getenv("MONGO_DATABASE", "products_api"),
			FirestoreProjectID: getenv("FIRESTORE_PROJECT_ID", ""),
		},
	}
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + c.Port
}
