package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	SMTP       SMTPConfig
	Chat       ChatConfig
	Generation GenerationConfig
	Vector     VectorConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// ChatConfig holds the tuning knobs of the chat synchronization core.
// Durations are exposed so tests and staging can shrink them.
type ChatConfig struct {
	MessageLimit   int
	PollInterval   time.Duration
	RetryDelay     time.Duration
	ReconcileDelay time.Duration
	SafetyTimeout  time.Duration
	HardTimeout    time.Duration
}

type GenerationConfig struct {
	WebhookURL string
	Timeout    time.Duration
	Topic      string
}

type VectorConfig struct {
	APIBaseURL        string
	APIKey            string
	EmbeddingProvider string // "ollama" for local models
	OllamaBaseURL     string
	OllamaModel       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Oraculo"),
		},
		Chat: ChatConfig{
			MessageLimit:   getEnvAsInt("CHAT_MESSAGE_LIMIT", 10),
			PollInterval:   getEnvAsDuration("CHAT_POLL_INTERVAL", 2*time.Second),
			RetryDelay:     getEnvAsDuration("CHAT_RETRY_DELAY", 300*time.Millisecond),
			ReconcileDelay: getEnvAsDuration("CHAT_RECONCILE_DELAY", 2*time.Second),
			SafetyTimeout:  getEnvAsDuration("CHAT_SAFETY_TIMEOUT", 10*time.Second),
			HardTimeout:    getEnvAsDuration("CHAT_HARD_TIMEOUT", 5*time.Second),
		},
		Generation: GenerationConfig{
			WebhookURL: getEnv("GENERATION_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("GENERATION_WEBHOOK_TIMEOUT", 30*time.Second),
			Topic:      getEnv("GENERATION_TOPIC_NAME", "CHAT_GENERATE"),
		},
		Vector: VectorConfig{
			APIBaseURL:        getEnv("VECTOR_API_BASE_URL", "https://api.openai.com/v1"),
			APIKey:            getEnv("VECTOR_API_KEY", ""),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
