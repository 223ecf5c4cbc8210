package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	PostgresDSN    string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RabbitURL      string
	JWTSecret      string
	TokenTTL       time.Duration
	ResetTokenTTL  time.Duration
	IdempotencyTTL time.Duration
	ItemCacheTTL   time.Duration
	OTLPEndpoint   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Addr:           getenv("ADDR", ":8080"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDB:        getenv("MONGO_DB", "marketplace"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       getduration("TOKEN_TTL", 24*time.Hour),
		ResetTokenTTL:  getduration("RESET_TOKEN_TTL", time.Hour),
		IdempotencyTTL: getduration("IDEMPOTENCY_TTL", time.Hour),
		ItemCacheTTL:   getduration("ITEM_CACHE_TTL", 5*time.Minute),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d == 0 {
		return fallback
	}
	return d
}
