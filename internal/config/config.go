package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OrdersTable       string
	IdempotencyTable  string
	NotificationQueue string
	MailGatewayURL    string
	MailFrom          string
	MetricsNamespace  string
	ServerAddr        string
	IdempotencyTTL    time.Duration
	SweepInterval     time.Duration
	ReminderAfter     time.Duration
	AutoCancelAfter   time.Duration
}

func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	return &Config{
		OrdersTable:       getEnv("ORDERS_TABLE", "furnimart-orders"),
		IdempotencyTable:  getEnv("IDEMPOTENCY_TABLE", "furnimart-idempotency"),
		NotificationQueue: getEnv("NOTIFICATIONS_QUEUE_URL", ""),
		MailGatewayURL:    getEnv("MAIL_GATEWAY_URL", "http://localhost:2500"),
		MailFrom:          getEnv("MAIL_FROM", "orders@furnimart.example"),
		MetricsNamespace:  getEnv("METRICS_NAMESPACE", "Furnimart/Orders"),
		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		IdempotencyTTL:    getEnvAsDuration("IDEMPOTENCY_TTL", 48*time.Hour),
		SweepInterval:     getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
		ReminderAfter:     getEnvAsDuration("PAYMENT_REMINDER_AFTER", 24*time.Hour),
		AutoCancelAfter:   getEnvAsDuration("PAYMENT_AUTO_CANCEL_AFTER", 48*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
