package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends, выбираемые через CREDITS_STORAGE.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config описывает настройки запуска сервиса.
// Значения читаются из окружения с префиксом CREDITS_; локально
// можно положить их в .env рядом с бинарником.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	Storage     string
	PostgresDSN string

	KafkaBrokers    string
	KafkaMaxRetries int

	CustomerAPIURL string
	ProductAPIURL  string
	ShipmentAPIURL string
}

// LoadConfig читает конфигурацию из окружения (и .env, если он есть).
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        getEnv("CREDITS_HTTP_ADDR", ":8080"),
		ShutdownTimeout: getEnvDuration("CREDITS_SHUTDOWN_TIMEOUT", 10*time.Second),
		Storage:         getEnv("CREDITS_STORAGE", StorageMemory),
		PostgresDSN:     os.Getenv("CREDITS_POSTGRES_DSN"),
		KafkaBrokers:    os.Getenv("CREDITS_KAFKA_BROKERS"),
		KafkaMaxRetries: getEnvInt("CREDITS_KAFKA_MAX_RETRIES", 5),
		CustomerAPIURL:  os.Getenv("CREDITS_CUSTOMER_API_URL"),
		ProductAPIURL:   os.Getenv("CREDITS_PRODUCT_API_URL"),
		ShipmentAPIURL:  os.Getenv("CREDITS_SHIPMENT_API_URL"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage backend %q: expected %q or %q", c.Storage, StorageMemory, StoragePostgres)
	}
	if c.Storage == StoragePostgres && c.PostgresDSN == "" {
		return fmt.Errorf("CREDITS_POSTGRES_DSN is required when CREDITS_STORAGE=%s", StoragePostgres)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
