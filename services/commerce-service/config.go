package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "github.com/b2bconnect/commerce-backend/pkg/aws"
	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	Environment      string
	MongoURI         string
	MongoDB          string
	RedisURL         string
	KafkaBrokers     []string
	OrderEventsTopic string
	SNSTopicArn      string
	InvoiceBucket    string
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	PriceTimezone    string
	RequestTimeout   time.Duration
	AllowedOrigins   string
	RateLimitPerMin  int
	RateLimitBurst   int
	CloudWatch       bool
	AWSUseSecrets    bool
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8090"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "b2b_commerce"),
		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "commerce.order-events"),
		SNSTopicArn:      os.Getenv("SNS_TOPIC_ARN"),
		InvoiceBucket:    os.Getenv("INVOICE_BUCKET"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenTTL:   getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		PriceTimezone:    getEnv("PRICE_TIMEZONE", "Asia/Kolkata"),
		RequestTimeout:   getDuration("REQUEST_TIMEOUT", 30*time.Second),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
		RateLimitPerMin:  getInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:   getInt("RATE_LIMIT_BURST", 40),
		CloudWatch:       os.Getenv("CLOUDWATCH_ENABLED") == "true",
		AWSUseSecrets:    os.Getenv("AWS_USE_SECRETS") == "true",
	}

	if cfg.AWSUseSecrets {
		if err := cfg.applySecrets(context.Background()); err != nil {
			return nil, err
		}
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := time.LoadLocation(cfg.PriceTimezone); err != nil {
		return nil, fmt.Errorf("invalid PRICE_TIMEZONE %q: %w", cfg.PriceTimezone, err)
	}
	return cfg, nil
}

// applySecrets overrides database and JWT settings from Secrets Manager
func (cfg *Config) applySecrets(ctx context.Context) error {
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config for secrets: %w", err)
	}
	sm := awspkg.NewSecretsClient(awsCfg)

	if m, err := sm.GetSecretJSON(ctx, "commerce/DB_CREDENTIALS"); err == nil {
		if v := m["MONGO_URI"]; v != "" {
			cfg.MongoURI = v
		}
		if v := m["MONGO_DB"]; v != "" {
			cfg.MongoDB = v
		}
		if v := m["REDIS_URL"]; v != "" {
			cfg.RedisURL = v
		}
	}
	if m, err := sm.GetSecretJSON(ctx, "commerce/JWT"); err == nil {
		if v := m["JWT_SECRET"]; v != "" {
			cfg.JWTSecret = v
		}
	}
	return nil
}

func (cfg *Config) IsProduction() bool {
	return cfg.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
