package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv            string
	HTTPAddr          string
	MetricsAddr       string
	MySQLDSN          string
	RedisAddr         string
	RedisDB           int
	RedisPass         string
	HostawayBase      string
	HostawayAccountID string
	HostawayAuth      string
	ProviderRPS       int
	FallbackDataset   string
	CacheTTL          time.Duration
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
		AppEnv:            env("APP_ENV", "prod"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ":9100"),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		HostawayBase:      env("HOSTAWAY_API_URL", "https://api.hostaway.com/v1"),
		HostawayAccountID: env("HOSTAWAY_ACCOUNT_ID", ""),
		HostawayAuth:      env("HOSTAWAY_AUTH", ""),
		ProviderRPS:       atoi("HOSTAWAY_RPS", 5),
		FallbackDataset:   env("FALLBACK_DATASET", "data/mock-reviews.json"),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
	if c.HostawayAuth == "" {
		log.Warn().Msg("HOSTAWAY_AUTH is empty; provider calls will fail and reads will use the fallback dataset")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
