package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	JWTSecret               string
	DBHost                  string
	DBPort                  string
	DBUser                  string
	DBPass                  string
	DBName                  string
	DBNameTest              string
	RedisHost               string
	RedisPort               string
	RedisPassword           string
	RedisDB                 int
	MinioHost               string
	MinioPort               string
	MinioUsername           string
	MinioPassword           string
	BucketName              string
	BucketNameTest          string
	RabbitMQURL             string
	RabbitMQPrefetch        int
	NotifyWorkerConcurrency int
	NotifyRate              float64
	NotifyBurst             int
	NotifyRetryMax          int
	NotifyRetryDelays       []time.Duration
	MaterialCacheTTL        time.Duration
	SweepInterval           time.Duration
	PresignExpiry           time.Duration
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// InitConfig loads configuration from the environment.
func InitConfig() {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	retryDelays := getEnvDurationList(
		"NOTIFY_RETRY_DELAYS",
		[]time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Minute},
	)
	AppConfig = Config{
		JWTSecret:               getEnv("JWT_SECRET", "l=ax+b"),
		DBHost:                  getEnv("DB_HOST", "localhost"),
		DBPort:                  getEnv("DB_PORT", "3306"),
		DBUser:                  getEnv("DB_USER", "root"),
		DBPass:                  getEnv("DB_PASS", "root"),
		DBName:                  getEnv("DB_NAME", "StudyVault"),
		DBNameTest:              getEnv("DB_NAME_TEST", "StudyVault_Test"),
		RedisHost:               getEnv("REDIS_HOST", "localhost"),
		RedisPort:               getEnv("REDIS_PORT", "6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 0,
		MinioHost:               getEnv("MINIO_HOST", "localhost"),
		MinioPort:               getEnv("MINIO_PORT", "9000"),
		MinioUsername:           getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword:           getEnv("MINIO_PASSWORD", "minioadmin"),
		BucketName:              getEnv("BUCKET_NAME", "studyvault"),
		BucketNameTest:          getEnv("BUCKET_NAME_TEST", "studyvault-test"),
		RabbitMQURL:             rabbitURL,
		RabbitMQPrefetch:        getEnvInt("RABBITMQ_PREFETCH", 8),
		NotifyWorkerConcurrency: getEnvInt("NOTIFY_WORKER_CONCURRENCY", 4),
		NotifyRate:              getEnvFloat("NOTIFY_RATE", 2),
		NotifyBurst:             getEnvInt("NOTIFY_BURST", 4),
		NotifyRetryMax:          getEnvInt("NOTIFY_RETRY_MAX", 3),
		NotifyRetryDelays:       retryDelays,
		MaterialCacheTTL:        getEnvDuration("MATERIAL_CACHE_TTL", 10*time.Minute),
		SweepInterval:           getEnvDuration("SWEEP_INTERVAL", time.Hour),
		PresignExpiry:           getEnvDuration("PRESIGN_EXPIRY", 15*time.Minute),
	}
}
