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
	Keys       APIKeys
	Ai         AIConfig
	Divination DivinationConfig
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
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
	Jina         string
	ArchiveTopic string // Reading archival topic
	JwtSecret    string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", "huggingface", "gemini"
	LLMBaseURL        string
	LLMModel          string // e.g. "llama3", "gemini-2.0-flash"
}

type DivinationConfig struct {
	DefaultAlgorithm  string
	DefaultTimezone   string
	MaxClarifications int
	StateBackend      string // "memory" or "redis"
	RetrievalTopK     int
	RetrievalMinScore float64
	RetrievalTimeout  time.Duration
	ExplainTimeout    time.Duration
	SelfReview        bool
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			ArchiveTopic: getEnv("ARCHIVE_READING_TOPIC_NAME", "ARCHIVE_READING"),
			JwtSecret:    getEnv("JWT_SECRET", "divination-secret-key-fiber"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMModel:          getEnv("LLM_MODEL", "gemini-2.0-flash"),
		},
		Divination: DivinationConfig{
			DefaultAlgorithm:  getEnv("DIVINATION_DEFAULT_ALGORITHM", "xlr-liuren"),
			DefaultTimezone:   getEnv("DIVINATION_DEFAULT_TIMEZONE", "Asia/Shanghai"),
			MaxClarifications: getEnvAsInt("DIVINATION_MAX_CLARIFICATIONS", 1),
			StateBackend:      getEnv("DIVINATION_STATE_BACKEND", "memory"),
			RetrievalTopK:     getEnvAsInt("RETRIEVAL_TOP_K", 5),
			RetrievalMinScore: getEnvAsFloat("RETRIEVAL_MIN_SCORE", 0.7),
			RetrievalTimeout:  getEnvAsDuration("RETRIEVAL_TIMEOUT", 10*time.Second),
			ExplainTimeout:    getEnvAsDuration("EXPLAIN_TIMEOUT", 30*time.Second),
			SelfReview:        getEnvAsBool("EXPLAIN_SELF_REVIEW", true),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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
