package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBConfig struct {
		DBHost     string `env:"CONCIERGE_DB_HOST"`
		DBPort     string `env:"CONCIERGE_DB_PORT"`
		DBUser     string `env:"CONCIERGE_DB_USER"`
		DBPassword string `env:"CONCIERGE_DB_PASSWORD"`
		DBName     string `env:"CONCIERGE_DB_NAME"`
		DBSSLMode  string `env:"CONCIERGE_DB_SSLMODE"`
	}

	HTTPPort int `env:"CONCIERGE_HTTP_PORT"`

	KafkaURL               string `env:"KAFKA_BROKER_URL"`
	KafkaVerificationTopic string `env:"KAFKA_VERIFICATION_TOPIC"`
	KafkaConsumerGroup     string `env:"KAFKA_CONSUMER_GROUP"`

	MigrationsPath string `env:"MIGRATIONS_PATH"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`

	SolanaRPCURL    string `env:"SOLANA_RPC_URL"`
	SolanaRecipient string `env:"SOLANA_RECIPIENT"`

	VerifyMaxAttempts int           `env:"VERIFY_MAX_ATTEMPTS"`
	VerifyRetryDelay  time.Duration `env:"VERIFY_RETRY_DELAY"`

	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DBConfig.DBHost = getEnvOrDefault("CONCIERGE_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("CONCIERGE_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("CONCIERGE_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("CONCIERGE_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("CONCIERGE_DB_NAME", "concierge_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("CONCIERGE_DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("CONCIERGE_HTTP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid CONCIERGE_HTTP_PORT: %w", err)
	}
	cfg.HTTPPort = port

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaVerificationTopic = getEnvOrDefault("KAFKA_VERIFICATION_TOPIC", "payment_verification_tasks")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "concierge-group")

	cfg.MigrationsPath = getEnvOrDefault("MIGRATIONS_PATH", "file:///app/migrations")

	interval, err := time.ParseDuration(getEnvOrDefault("OUTBOX_POLL_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}
	cfg.OutboxPollInterval = interval

	timeout, err := time.ParseDuration(getEnvOrDefault("OUTBOX_POLL_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_TIMEOUT: %w", err)
	}
	cfg.OutboxPollTimeout = timeout

	cfg.SolanaRPCURL = getEnvOrDefault("SOLANA_RPC_URL", "https://api.devnet.solana.com")
	cfg.SolanaRecipient = os.Getenv("SOLANA_RECIPIENT")

	attempts, err := strconv.Atoi(getEnvOrDefault("VERIFY_MAX_ATTEMPTS", "6"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFY_MAX_ATTEMPTS: %w", err)
	}
	cfg.VerifyMaxAttempts = attempts

	retryDelay, err := time.ParseDuration(getEnvOrDefault("VERIFY_RETRY_DELAY", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFY_RETRY_DELAY: %w", err)
	}
	cfg.VerifyRetryDelay = retryDelay

	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}
