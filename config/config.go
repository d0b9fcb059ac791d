package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string
	StorageDriver  string
	RunMigrations  bool
	JWTSecretKey   string
	ServerPort     int
	AllowedOrigins []string

	// Блокировки матчей. Без Redis используется хранилище в памяти процесса.
	RedisURL      string
	RedisAddr     string
	RedisPassword string
	MatchLockTTL  time.Duration

	// Архив снапшотов сетки в Cloudflare R2. Пустой бакет отключает архив.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
	R2Endpoint        string
	ArchivePrefix     string
}

// ArchiveEnabled reports whether bracket snapshots should be archived.
func (c *Config) ArchiveEnabled() bool {
	return c.R2BucketName != ""
}

// RedisEnabled reports whether match locks live in Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из произвольного источника переменных.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:       getenv("DATABASE_URL"),
		StorageDriver:     strings.ToLower(getenv("STORAGE_DRIVER")),
		JWTSecretKey:      getenv("JWT_SECRET_KEY"),
		RedisURL:          getenv("REDIS_URL"),
		RedisAddr:         getenv("REDIS_ADDR"),
		RedisPassword:     getenv("REDIS_PASSWORD"),
		R2AccountID:       getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
		R2Endpoint:        getenv("R2_ENDPOINT"),
		ArchivePrefix:     getenv("ARCHIVE_PREFIX"),
	}

	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageDriverPostgres
	}
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL environment variable is not set")
		}
	case StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (expected %s or %s)", cfg.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}

	if cfg.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080" // Порт по умолчанию
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	cfg.RunMigrations = true
	if v := getenv("RUN_MIGRATIONS"); v != "" {
		cfg.RunMigrations, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RUN_MIGRATIONS environment variable: %w", err)
		}
	}

	if v := getenv("MATCH_LOCK_TTL"); v != "" {
		cfg.MatchLockTTL, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MATCH_LOCK_TTL environment variable: %w", err)
		}
		if cfg.MatchLockTTL <= 0 {
			return nil, fmt.Errorf("MATCH_LOCK_TTL must be positive, got %s", cfg.MatchLockTTL)
		}
	}

	if origins := getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.ArchiveEnabled() {
		if cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || (cfg.R2AccountID == "" && cfg.R2Endpoint == "") {
			return nil, errors.New("R2_BUCKET_NAME is set but R2 credentials or account are missing")
		}
		if cfg.ArchivePrefix == "" {
			cfg.ArchivePrefix = "brackets"
		}
	}

	return cfg, nil
}
