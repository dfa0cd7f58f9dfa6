package config

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full service configuration, read from the environment
type Config struct {
	LLM         LLMConfig
	VectorStore VectorStoreConfig
	Memory      MemoryConfig
	Database    DatabaseConfig
	Search      SearchConfig
	Server      ServerConfig
	MCP         MCPConfig
	OrgID       string
}

// LLMConfig holds hosted completion provider settings
type LLMConfig struct {
	OpenAI OpenAIConfig
}

// OpenAIConfig holds OpenAI credentials and model selection
type OpenAIConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float64
}

// VectorStoreConfig holds vector search provider settings
type VectorStoreConfig struct {
	Weaviate WeaviateConfig
}

// WeaviateConfig holds Weaviate connection settings
type WeaviateConfig struct {
	Host   string
	Scheme string
	APIKey string
	Class  string
}

// MemoryConfig holds session memory settings
type MemoryConfig struct {
	Redis     RedisConfig
	Retention time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig holds relational database settings
type DatabaseConfig struct {
	PostgresURL string
}

// SearchConfig holds food search defaults
type SearchConfig struct {
	DefaultTopK int
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port          int
	DefaultUserID string
}

// MCPConfig holds the externally supplied MCP server definitions
type MCPConfig struct {
	Servers []MCPServerConfig
}

// MCPServerConfig describes one MCP server connection
type MCPServerConfig struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"` // "stdio" or "http"
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
	Env     []string `json:"env,omitempty"`
	URL     string   `json:"url,omitempty"`
	Token   string   `json:"token,omitempty"`
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the process-wide configuration, loading it on first use.
// A .env file in the working directory is honored when present.
func Get() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = load()
	})
	return cfg
}

func load() *Config {
	return &Config{
		LLM: LLMConfig{
			OpenAI: OpenAIConfig{
				APIKey:         os.Getenv("OPENAI_API_KEY"),
				Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
				EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
				Temperature:    getEnvFloat("OPENAI_TEMPERATURE", 0),
			},
		},
		VectorStore: VectorStoreConfig{
			Weaviate: WeaviateConfig{
				Host:   getEnv("WEAVIATE_HOST", "localhost:8080"),
				Scheme: getEnv("WEAVIATE_SCHEME", "http"),
				APIKey: os.Getenv("WEAVIATE_API_KEY"),
				Class:  getEnv("WEAVIATE_CLASS", "FoodItem"),
			},
		},
		Memory: MemoryConfig{
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       getEnvInt("REDIS_DB", 0),
			},
			Retention: time.Duration(getEnvInt("MEMORY_RETENTION_DAYS", 3)) * 24 * time.Hour,
		},
		Database: DatabaseConfig{
			PostgresURL: os.Getenv("DATABASE_URL"),
		},
		Search: SearchConfig{
			DefaultTopK: getEnvInt("DEFAULT_SEARCH_TOP_K", 10),
		},
		Server: ServerConfig{
			Port:          getEnvInt("PORT", 8080),
			DefaultUserID: getEnv("DEFAULT_USER_ID", "test_user_123"),
		},
		MCP: MCPConfig{
			Servers: parseMCPServers(os.Getenv("UNIFEAST_MCP_SERVERS")),
		},
		OrgID: getEnv("ORG_ID", "unifeast"),
	}
}

// parseMCPServers parses the UNIFEAST_MCP_SERVERS JSON array. Invalid JSON
// yields no servers; the service still runs with built-in tools only.
func parseMCPServers(raw string) []MCPServerConfig {
	if raw == "" {
		return nil
	}
	var servers []MCPServerConfig
	if err := json.Unmarshal([]byte(raw), &servers); err != nil {
		return nil
	}
	return servers
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}
