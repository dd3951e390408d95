package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	StoreMongo     = "mongo"
	StoreDatastore = "datastore"
	StoreMySQL     = "mysql"

	ModelGemini = "gemini"
	ModelOllama = "ollama"
)

var (
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrUnknownProvider = errors.New("unknown model provider")
)

type Config struct {
	AppPort        string
	TrustedProxies []string

	StoreBackend string
	StoreTimeout time.Duration

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	DatastoreProject   string
	DatastoreNamespace string
	DatastoreKind      string

	DbHost     string
	DbPort     string
	DbUser     string
	DbPassword string
	DbName     string
	DbParams   string

	ModelProvider string
	ModelTimeout  time.Duration
	GeminiAPIKey  string
	GeminiModel   string
	OllamaURL     string
	OllamaModel   string

	PromptsFile string
}

func LoadConfig() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		AppPort:        getEnv("APP_PORT", "8080"),
		TrustedProxies: parseTrustedProxies(os.Getenv("TRUSTED_PROXIES")),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		StoreTimeout: getDuration("STORE_TIMEOUT", 5*time.Second),

		MongoURI:        getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "task_db"),
		MongoCollection: getEnv("MONGO_COLLECTION", "tasks"),

		DatastoreProject:   getEnv("DATASTORE_PROJECT_ID", "tasksmith-local"),
		DatastoreNamespace: getEnv("DATASTORE_NAMESPACE", "task_db"),
		DatastoreKind:      getEnv("DATASTORE_KIND", "tasks"),

		DbHost:     getEnv("MYSQL_HOST", "db"),
		DbPort:     getEnv("MYSQL_PORT", "3306"),
		DbUser:     getEnv("MYSQL_USER", "tasksmith"),
		DbPassword: getEnv("MYSQL_PASSWORD", "tasksmith"),
		DbName:     getEnv("MYSQL_DATABASE", "tasksmith"),
		DbParams:   getEnv("MYSQL_PARAMS", "parseTime=true&multiStatements=true"),

		ModelProvider: strings.ToLower(getEnv("MODEL_PROVIDER", ModelGemini)),
		ModelTimeout:  getDuration("MODEL_TIMEOUT", 60*time.Second),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),

		PromptsFile: getEnv("PROMPTS_FILE", "config/prompts.yml"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		zap.L().Warn("invalid duration, using default", zap.String("key", key), zap.String("value", value), zap.Duration("default", fallback))
		return fallback
	}
	return d
}

func parseTrustedProxies(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	proxies := make([]string, 0, len(parts))
	for _, part := range parts {
		proxy := strings.TrimSpace(part)
		if proxy == "" {
			continue
		}
		proxies = append(proxies, proxy)
	}

	if len(proxies) == 0 {
		return nil
	}

	return proxies
}
