package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	CORSOrigins []string

	CatalogPath    string
	DetailsDir     string
	CatalogWorkers int

	StorageDriver string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	BadgerPath    string

	AIProvider   string
	AIURL        string
	AIKey        string
	AIKeyHeader  string
	AIModel      string
	AIRPS        int
	AIRetries    int
	AITimeout    time.Duration
	AICacheTTL   time.Duration
	AIRatePerMin int
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		CORSOrigins: splitCSV(env("CORS_ORIGINS", "*")),

		CatalogPath:    env("CATALOG_PATH", ""),
		DetailsDir:     env("DETAILS_DIR", ""),
		CatalogWorkers: atoi("CATALOG_WORKERS", 8),

		StorageDriver: strings.ToLower(env("STORAGE_DRIVER", "memory")),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/explorer?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		BadgerPath:    env("BADGER_PATH", "./data/badger"),

		AIProvider:   strings.ToLower(env("AI_PROVIDER", "http")),
		AIURL:        env("COMPLETION_URL", ""),
		AIKey:        env("COMPLETION_KEY", ""),
		AIKeyHeader:  env("COMPLETION_KEY_HEADER", "X-API-Key"),
		AIModel:      env("AI_MODEL", ""),
		AIRPS:        atoi("AI_RPS", 2),
		AIRetries:    atoi("AI_RETRIES", 0),
		AITimeout:    time.Duration(atoi("AI_TIMEOUT_SECONDS", 30)) * time.Second,
		AICacheTTL:   time.Duration(atoi("AI_CACHE_TTL_SECONDS", 900)) * time.Second,
		AIRatePerMin: atoi("AI_RATE_PER_MINUTE", 20),
	}
	if c.AIKey == "" {
		log.Warn().Msg("COMPLETION_KEY is empty")
	}
	if c.StorageDriver == "redis" && c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	return c
}

// AIEnabled reports whether an AI backend is configured at all.
func (c Config) AIEnabled() bool {
	switch c.AIProvider {
	case "openai", "gemini":
		return c.AIKey != ""
	}
	return c.AIURL != ""
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
