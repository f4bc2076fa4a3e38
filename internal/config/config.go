package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the client needs at startup. Values come from
// the environment, with a .env file loaded first when present.
type Config struct {
	APIBaseURL string
	WSEndpoint string

	Username string
	Password string

	AMQPURL      string
	AMQPExchange string

	OTLPEndpoint string
	Environment  string

	OpsAddr     string
	DebugToken  string
	DebugRoutes bool

	ReconnectDelay time.Duration
}

// Load reads configuration from the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	return Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		WSEndpoint:     getEnv("WS_ENDPOINT", "ws://localhost:8080/ws"),
		Username:       getEnv("CHAT_USERNAME", ""),
		Password:       getEnv("CHAT_PASSWORD", ""),
		AMQPURL:        getEnv("RABBITMQ_URL", ""),
		AMQPExchange:   getEnv("RABBITMQ_EXCHANGE", "chat.events"),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),
		Environment:    getEnv("ENVIRONMENT", "development"),
		OpsAddr:        getEnv("OPS_ADDR", ":9090"),
		DebugToken:     getEnv("DEBUG_TOKEN", ""),
		DebugRoutes:    getBoolEnv("DEBUG_ROUTES", false),
		ReconnectDelay: getDurationEnv("RECONNECT_DELAY", 5*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("invalid bool for %s: %q, using %v", key, val, fallback)
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using %v", key, val, fallback)
		return fallback
	}
	return parsed
}
