package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Rag       RAGConfig
	Documents DocumentConfig
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
	OpenRouter   string
	GoogleGemini string
	Jina         string
}

// AgentModel selects the model one pipeline stage talks to and its
// per-1K-token pricing for cost accounting.
type AgentModel struct {
	Model       string
	InputPer1K  float64
	OutputPer1K float64
}

type AIConfig struct {
	EmbeddingProvider string // "jina", "ollama" or "gemini"
	OllamaBaseURL     string
	OllamaModel       string // embedding model when provider is ollama
	LLMProvider       string // "openrouter" or "ollama"
	OpenRouterBaseURL string

	Router      AgentModel
	Planner     AgentModel
	Analyzer    AgentModel
	Synthesizer AgentModel
	Validator   AgentModel
}

type RAGConfig struct {
	TopKRetrieval      int
	TopKRerank         int
	MinSimilarityScore float64
	NumSearchQueries   int
	FallbackLanguage   string
	CacheTTLMinutes    int
}

type DocumentConfig struct {
	ChunkSize         int
	ChunkOverlap      int
	MaxUploadSizeMB   int
	AllowedExtensions []string
	ProcessTopic      string
}

// SupportedLanguages lists the ISO 639 codes the pipeline can answer in.
var SupportedLanguages = []string{
	"en", "hi", "bn", "te", "mr", "ta", "ur", "gu",
	"kn", "ml", "or", "pa", "as", "mai", "sa", "ks",
	"ne", "sd", "kok", "doi", "mni", "sat", "bo",
}

var languageNames = map[string]string{
	"en": "English", "hi": "Hindi", "bn": "Bengali",
	"te": "Telugu", "mr": "Marathi", "ta": "Tamil",
	"ur": "Urdu", "gu": "Gujarati", "kn": "Kannada",
	"ml": "Malayalam", "or": "Odia", "pa": "Punjabi",
	"as": "Assamese", "mai": "Maithili", "sa": "Sanskrit",
	"ks": "Kashmiri", "ne": "Nepali", "sd": "Sindhi",
	"kok": "Konkani", "doi": "Dogri", "mni": "Manipuri",
	"sat": "Santali", "bo": "Bodo",
}

func IsLanguageSupported(code string) bool {
	_, ok := languageNames[code]
	return ok
}

func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "Unknown"
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
			OpenRouter:   getEnv("OPENROUTER_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "jina"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "openrouter"),
			OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Router: AgentModel{
				Model:       getEnv("MODEL_ROUTER", "google/gemini-2.0-flash-exp:free"),
				InputPer1K:  getEnvAsFloat("PRICE_ROUTER_INPUT", 0),
				OutputPer1K: getEnvAsFloat("PRICE_ROUTER_OUTPUT", 0),
			},
			Planner: AgentModel{
				Model:       getEnv("MODEL_PLANNER", "google/gemini-2.0-flash-exp:free"),
				InputPer1K:  getEnvAsFloat("PRICE_PLANNER_INPUT", 0),
				OutputPer1K: getEnvAsFloat("PRICE_PLANNER_OUTPUT", 0),
			},
			Analyzer: AgentModel{
				Model:       getEnv("MODEL_ANALYZER", "anthropic/claude-3.5-sonnet"),
				InputPer1K:  getEnvAsFloat("PRICE_ANALYZER_INPUT", 0.003),
				OutputPer1K: getEnvAsFloat("PRICE_ANALYZER_OUTPUT", 0.015),
			},
			Synthesizer: AgentModel{
				Model:       getEnv("MODEL_SYNTHESIZER", "anthropic/claude-3.5-sonnet"),
				InputPer1K:  getEnvAsFloat("PRICE_SYNTHESIZER_INPUT", 0.003),
				OutputPer1K: getEnvAsFloat("PRICE_SYNTHESIZER_OUTPUT", 0.015),
			},
			Validator: AgentModel{
				Model:       getEnv("MODEL_VALIDATOR", "google/gemini-flash-1.5"),
				InputPer1K:  getEnvAsFloat("PRICE_VALIDATOR_INPUT", 0.000075),
				OutputPer1K: getEnvAsFloat("PRICE_VALIDATOR_OUTPUT", 0.0003),
			},
		},
		Rag: RAGConfig{
			TopKRetrieval:      getEnvAsInt("TOP_K_RETRIEVAL", 25),
			TopKRerank:         getEnvAsInt("TOP_K_RERANK", 5),
			MinSimilarityScore: getEnvAsFloat("MIN_SIMILARITY_SCORE", 0.7),
			NumSearchQueries:   getEnvAsInt("NUM_SEARCH_QUERIES", 3),
			FallbackLanguage:   getEnv("FALLBACK_LANGUAGE", "en"),
			CacheTTLMinutes:    getEnvAsInt("QUERY_CACHE_TTL_MINUTES", 60),
		},
		Documents: DocumentConfig{
			ChunkSize:         getEnvAsInt("CHUNK_SIZE", 512),
			ChunkOverlap:      getEnvAsInt("CHUNK_OVERLAP", 128),
			MaxUploadSizeMB:   getEnvAsInt("MAX_UPLOAD_SIZE_MB", 50),
			AllowedExtensions: strings.Split(getEnv("ALLOWED_EXTENSIONS", "pdf,docx,txt,csv,md"), ","),
			ProcessTopic:      getEnv("PROCESS_DOCUMENT_TOPIC_NAME", "document.uploaded"),
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
