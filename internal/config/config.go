// Package config loads the application configuration from environment
// variables. The result is an immutable struct validated once at process
// start and passed to component constructors; nothing reads the
// environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Debug bool

	Server ServerConfig

	// Corpus and store
	DocsDir      string
	DatabasePath string

	// Ollama endpoint shared by the embedding and chat clients.
	OllamaURL   string
	OllamaToken string

	Embedding EmbeddingConfig
	Chat      ChatConfig

	Chunking  ChunkingConfig
	Retrieval RetrievalConfig

	Eval EvalConfig

	// RequestTimeoutSeconds bounds one query or eval item end to end.
	RequestTimeoutSeconds int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port int
}

// EmbeddingConfig names the embedding model. The same model identifier is
// used at ingestion and query time; the store enforces the match.
type EmbeddingConfig struct {
	Model      string
	Dimensions int
	CacheSize  int
}

// ChatConfig holds language-model settings.
type ChatConfig struct {
	Model           string
	MaxOutputTokens int
}

// ChunkingConfig holds chunk window settings, in characters.
type ChunkingConfig struct {
	MaxChars     int
	OverlapChars int
}

// RetrievalConfig holds top-k settings.
type RetrievalConfig struct {
	DefaultTopK int
	MaxTopK     int
}

// EvalConfig holds eval harness and label reviewer paths.
type EvalConfig struct {
	LogDir     string
	LabeledDir string
	SetPath    string // empty = embedded default set
}

// Load reads configuration from the environment, consulting a .env file
// if one exists in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Debug: envOrDefaultBool("AIRMAN_DEBUG", false),
		Server: ServerConfig{
			Host: envOrDefault("AIRMAN_HOST", "127.0.0.1"),
			Port: envOrDefaultInt("AIRMAN_PORT", 8080),
		},
		DocsDir:      envOrDefault("AIRMAN_DOCS_DIR", "data/raw"),
		DatabasePath: envOrDefault("AIRMAN_DB_PATH", "data/vector_store/airman.db"),
		OllamaURL:    envOrDefault("AIRMAN_OLLAMA_URL", "http://localhost:11434"),
		OllamaToken:  os.Getenv("AIRMAN_OLLAMA_TOKEN"),
		Embedding: EmbeddingConfig{
			Model:      envOrDefault("AIRMAN_EMBED_MODEL", "nomic-embed-text"),
			Dimensions: envOrDefaultInt("AIRMAN_EMBED_DIMENSIONS", 768),
			CacheSize:  envOrDefaultInt("AIRMAN_EMBED_CACHE_SIZE", 256),
		},
		Chat: ChatConfig{
			Model:           envOrDefault("AIRMAN_CHAT_MODEL", "qwen2.5"),
			MaxOutputTokens: envOrDefaultInt("AIRMAN_MAX_OUTPUT_TOKENS", 400),
		},
		Chunking: ChunkingConfig{
			MaxChars:     envOrDefaultInt("AIRMAN_CHUNK_MAX_CHARS", 800),
			OverlapChars: envOrDefaultInt("AIRMAN_CHUNK_OVERLAP_CHARS", 200),
		},
		Retrieval: RetrievalConfig{
			DefaultTopK: envOrDefaultInt("AIRMAN_DEFAULT_TOP_K", 5),
			MaxTopK:     envOrDefaultInt("AIRMAN_MAX_TOP_K", 20),
		},
		Eval: EvalConfig{
			LogDir:     envOrDefault("AIRMAN_EVAL_LOG_DIR", "data/logs/eval_runs"),
			LabeledDir: envOrDefault("AIRMAN_LABELED_LOG_DIR", "data/logs/eval_runs_labeled"),
			SetPath:    os.Getenv("AIRMAN_EVAL_SET"),
		},
		RequestTimeoutSeconds: envOrDefaultInt("AIRMAN_REQUEST_TIMEOUT_SECONDS", 60),
	}
}

// Validate checks the configuration once at startup. Returns the first
// problem found.
func (c *Config) Validate() error {
	if c.DocsDir == "" {
		return fmt.Errorf("docs dir must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.OllamaURL == "" {
		return fmt.Errorf("ollama url must not be empty")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding model must not be empty")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Chat.Model == "" {
		return fmt.Errorf("chat model must not be empty")
	}
	if c.Chat.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", c.Chat.MaxOutputTokens)
	}
	if c.Chunking.OverlapChars < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.Chunking.OverlapChars)
	}
	if c.Chunking.MaxChars <= c.Chunking.OverlapChars {
		return fmt.Errorf("chunk max chars (%d) must exceed overlap (%d)",
			c.Chunking.MaxChars, c.Chunking.OverlapChars)
	}
	if c.Retrieval.DefaultTopK < 1 {
		return fmt.Errorf("default top-k must be at least 1, got %d", c.Retrieval.DefaultTopK)
	}
	if c.Retrieval.MaxTopK < c.Retrieval.DefaultTopK {
		return fmt.Errorf("max top-k (%d) must not be below default top-k (%d)",
			c.Retrieval.MaxTopK, c.Retrieval.DefaultTopK)
	}
	if c.Eval.LogDir == "" || c.Eval.LabeledDir == "" {
		return fmt.Errorf("eval log dirs must not be empty")
	}
	if c.Eval.LogDir == c.Eval.LabeledDir {
		return fmt.Errorf("labeled log dir must differ from raw log dir")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request timeout must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
