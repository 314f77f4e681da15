package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	IdentitySecret string

	BackendBaseURL string
	BackendAPIKey  string
	BackendTimeout time.Duration

	HomeChain string

	AbuseWindow    time.Duration
	AbuseThreshold int
	AbuseBlockFor  time.Duration
	AbuseRetention time.Duration

	WriteQueueSize int

	TracingEnabled     bool
	OTLPEndpoint       string
	OTLPInsecure       bool
	ServiceName        string
	TraceSamplingRatio float64

	ReceiptsEndpoint  string
	ReceiptsAccessKey string
	ReceiptsSecretKey string
	ReceiptsBucket    string
	ReceiptsUseSSL    bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		IdentitySecret: os.Getenv("IDENTITY_JWT_SECRET"),
		BackendBaseURL: os.Getenv("PAYMENT_BACKEND_URL"),
		BackendAPIKey:  os.Getenv("PAYMENT_BACKEND_API_KEY"),
		HomeChain:      getEnv("HOME_CHAIN", "ethereum"),
		AbuseThreshold: getEnvInt("ABUSE_BLOCK_THRESHOLD", 50),
		WriteQueueSize: getEnvInt("WRITE_QUEUE_SIZE", 256),

		TracingEnabled:     getEnvBool("OTEL_TRACING_ENABLED", false),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:       getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:        getEnv("OTEL_SERVICE_NAME", "payment-control-plane"),
		TraceSamplingRatio: getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),

		ReceiptsEndpoint:  os.Getenv("RECEIPTS_ENDPOINT"),
		ReceiptsAccessKey: os.Getenv("RECEIPTS_ACCESS_KEY"),
		ReceiptsSecretKey: os.Getenv("RECEIPTS_SECRET_KEY"),
		ReceiptsBucket:    getEnv("RECEIPTS_BUCKET", "payment-receipts"),
		ReceiptsUseSSL:    getEnvBool("RECEIPTS_USE_SSL", true),
	}

	var err error
	if cfg.BackendTimeout, err = getEnvDuration("PAYMENT_BACKEND_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.AbuseWindow, err = getEnvDuration("ABUSE_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AbuseBlockFor, err = getEnvDuration("ABUSE_BLOCK_DURATION", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AbuseRetention, err = getEnvDuration("ABUSE_RETENTION", time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.BackendBaseURL == "" {
		errs = append(errs, "PAYMENT_BACKEND_URL is required")
	}
	if c.BackendTimeout <= 0 || c.BackendTimeout > 5*time.Minute {
		errs = append(errs, "PAYMENT_BACKEND_TIMEOUT must be between 1s and 5m")
	}
	if c.AbuseThreshold <= 0 {
		errs = append(errs, "ABUSE_BLOCK_THRESHOLD must be > 0")
	}
	if c.WriteQueueSize <= 0 {
		errs = append(errs, "WRITE_QUEUE_SIZE must be > 0")
	}
	if c.TracingEnabled && c.OTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}
	if c.TraceSamplingRatio < 0 || c.TraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be within [0, 1]")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ReceiptsConfigured reports whether object storage for receipts is set up.
func (c *Config) ReceiptsConfigured() bool {
	return c.ReceiptsEndpoint != "" && c.ReceiptsAccessKey != "" && c.ReceiptsSecretKey != ""
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.New("parse " + key + ": " + err.Error())
	}
	return d, nil
}
