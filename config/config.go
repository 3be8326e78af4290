package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "default_secret_CHANGE_ME"

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DBUrl         string
	JWTSecret     string
	AllowedOrigin string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Search
	SearchTimeout         time.Duration
	SearchDefaultPageSize int
	SearchMaxPageSize     int
	SearchMaxCandidateIDs int
	// Attribute cache maintenance
	CacheRebuildChunkSize int
	CacheReconcileCron    string // empty disables the scheduled reconcile
	CacheRebuildTimeout   time.Duration
	CatalogCacheTTL       time.Duration
	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadConfig reads .env (or CONFIG_FILE) and the process environment.
func LoadConfig() *Config {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// In docker/prod there is usually no .env; system env vars are used instead.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from the current environment without loading files or validating.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		SearchTimeout:         getDurationEnv("SEARCH_TIMEOUT", 5*time.Second),
		SearchDefaultPageSize: getIntEnv("SEARCH_DEFAULT_PAGE_SIZE", 20),
		SearchMaxPageSize:     getIntEnv("SEARCH_MAX_PAGE_SIZE", 100),
		SearchMaxCandidateIDs: getIntEnv("SEARCH_MAX_CANDIDATE_IDS", 5000),

		CacheRebuildChunkSize: getIntEnv("CACHE_REBUILD_CHUNK_SIZE", 200),
		CacheReconcileCron:    getEnv("CACHE_RECONCILE_CRON", ""),
		CacheRebuildTimeout:   getDurationEnv("CACHE_REBUILD_TIMEOUT", 30*time.Minute),
		CatalogCacheTTL:       getDurationEnv("CATALOG_CACHE_TTL", 10*time.Minute),

		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func (c *Config) Validate() error {
	if c.DBUrl == "" {
		return errors.New("DB_DSN environment variable is required")
	}
	if c.SearchDefaultPageSize <= 0 || c.SearchMaxPageSize < c.SearchDefaultPageSize {
		return errors.New("SEARCH_DEFAULT_PAGE_SIZE must be positive and not exceed SEARCH_MAX_PAGE_SIZE")
	}
	if c.SearchMaxCandidateIDs <= 0 {
		return errors.New("SEARCH_MAX_CANDIDATE_IDS must be positive")
	}
	if c.CacheRebuildChunkSize <= 0 {
		return errors.New("CACHE_REBUILD_CHUNK_SIZE must be positive")
	}
	if c.JWTSecret == defaultJWTSecret {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}
