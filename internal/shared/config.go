package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	SQLitePath  string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	GSCClientID     string
	GSCClientSecret string
	GSCRedirectURI  string
	GSCProperty     string
	GSCBase         string

	OpenAIKey   string
	OpenAIBase  string
	OpenAIModel string

	Workers  int
	CacheTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		SQLitePath:  env("SQLITE_PATH", "./prometrix.db"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		GSCClientID:     env("GSC_CLIENT_ID", ""),
		GSCClientSecret: env("GSC_CLIENT_SECRET", ""),
		GSCRedirectURI:  env("GSC_REDIRECT_URI", "http://localhost:8080/api/gsc/oauth/callback"),
		GSCProperty:     env("GSC_DEFAULT_PROPERTY", ""),
		GSCBase:         env("GSC_BASE_URL", "https://searchconsole.googleapis.com/webmasters/v3"),

		OpenAIKey:   env("OPENAI_API_KEY", ""),
		OpenAIBase:  env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel: env("OPENAI_MODEL", "gpt-3.5-turbo"),

		Workers:  atoi("IMPORT_WORKERS", 8),
		CacheTTL: time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.GSCClientID == "" {
		log.Warn().Msg("GSC_CLIENT_ID is empty; Search Console features disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
