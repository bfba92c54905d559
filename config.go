package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	aws_pkg "github.com/drme990/manasik-v2-sub001/pkg/aws"
	"github.com/joho/godotenv"
)

const serviceSecretName = "manasik/SERVICE_SECRETS"

// Config holds all configuration for the service.
type Config struct {
	Port           string
	Env            string
	RequestTimeout time.Duration

	MongoURI string
	MongoDB  string
	RedisURL string

	RateCacheTTL        time.Duration
	ExchangeRateAPIURL  string
	ExchangeRateAPIKey  string
	SupportedCurrencies []string

	JWTSecret        string
	PaymobHMACSecret string

	EventsSNSTopicARN string
	AllowedOrigins    []string

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string

	ValidateRatePerMinute int
	ValidateRateBurst     int
}

// secretSource is the slice of Secrets Manager the config needs.
type secretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads configuration from the environment (and a .env file in
// development) with an optional Secrets Manager override.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("APP_ENV", "development"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "manasik"),
		RedisURL:            os.Getenv("REDIS_URL"),
		ExchangeRateAPIURL:  getEnv("EXCHANGE_RATE_API_URL", "https://v6.exchangerate-api.com/v6"),
		ExchangeRateAPIKey:  os.Getenv("EXCHANGE_RATE_API_KEY"),
		SupportedCurrencies: splitList(os.Getenv("SUPPORTED_CURRENCIES")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		PaymobHMACSecret:    os.Getenv("PAYMOB_HMAC_SECRET"),
		EventsSNSTopicARN:   os.Getenv("EVENTS_SNS_TOPIC_ARN"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Manasik"),
		CloudWatchLogGroup:  os.Getenv("CLOUDWATCH_LOG_GROUP"),
	}
	if len(cfg.SupportedCurrencies) == 0 {
		cfg.SupportedCurrencies = models.DefaultSupportedCurrencies
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateCacheTTL, err = getDuration("RATE_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ValidateRatePerMinute, err = getInt("VALIDATE_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.ValidateRateBurst, err = getInt("VALIDATE_RATE_BURST", 10); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySecrets overrides credentials with values from the service secret.
// A missing or unreadable secret leaves the env values in place.
func applySecrets(ctx context.Context, cfg *Config, src secretSource) {
	m, err := src.GetSecretMap(ctx, serviceSecretName)
	if err != nil {
		return
	}
	overrides := map[string]*string{
		"MONGO_URI":             &cfg.MongoURI,
		"REDIS_URL":             &cfg.RedisURL,
		"JWT_SECRET":            &cfg.JWTSecret,
		"PAYMOB_HMAC_SECRET":    &cfg.PaymobHMACSecret,
		"EXCHANGE_RATE_API_KEY": &cfg.ExchangeRateAPIKey,
	}
	for key, dst := range overrides {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.PaymobHMACSecret == "" {
		missing = append(missing, "PAYMOB_HMAC_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
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
