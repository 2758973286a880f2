// Package config loads pdfqa settings from .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"pdfqa/llm"
	"pdfqa/llm/providers"
	"pdfqa/llm/rag"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

// Mode selects which variables are required
type Mode int

const (
	ModeIngest Mode = iota
	ModeChat
)

func (m Mode) String() string {
	if m == ModeIngest {
		return "ingest"
	}
	return "chat"
}

// defaults are loaded before the environment, so any variable overrides them
var defaults = []byte(`
google_chat_model: gemini-2.5-flash
llm_provider: google
chunk_size: 1000
chunk_overlap: 150
retrieval_top_k: 10
embedding_batch_size: 100
prompt_language: en
log_level: info
log_format: console
`)

// Config holds every setting. It is loaded once and passed to components explicitly.
type Config struct {
	// Provider credentials and models
	GoogleAPIKey   string `koanf:"google_api_key"`
	OpenAIAPIKey   string `koanf:"openai_api_key"`
	OpenAIBaseURL  string `koanf:"openai_base_url"`
	Provider       string `koanf:"llm_provider"`
	EmbeddingModel string `koanf:"google_embedding_model"`
	ChatModel      string `koanf:"google_chat_model"`

	// Vector store; the PGVECTOR_* names are accepted as aliases
	VectorStoreURL        string `koanf:"vector_store_url"`
	VectorStoreCollection string `koanf:"vector_store_collection"`
	PGVectorURL           string `koanf:"pgvector_url"`
	PGVectorCollection    string `koanf:"pgvector_collection"`

	// Ingestion
	PDFPath            string `koanf:"pdf_path"`
	ChunkSize          int    `koanf:"chunk_size"`
	ChunkOverlap       int    `koanf:"chunk_overlap"`
	EmbeddingBatchSize int    `koanf:"embedding_batch_size"`

	// Retrieval and answering
	TopK           int    `koanf:"retrieval_top_k"`
	PromptLanguage string `koanf:"prompt_language"`

	// Logging
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// CozeLoop tracing of the answer chain; enabled only when both are set
	CozeLoopAPIToken    string `koanf:"coze_loop_api_token"`
	CozeLoopWorkspaceID string `koanf:"cozeloop_workspace_id"`
}

// MissingError lists every required variable that is unset
type MissingError struct {
	Mode Mode
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing environment variables required for %s: %s", e.Mode, strings.Join(e.Vars, ", "))
}

// Unwrap classifies MissingError as a configuration error
func (e *MissingError) Unwrap() error {
	return llm.ErrConfiguration
}

// Load reads envFiles (".env" when none are given; missing files are skipped),
// then the process environment, and validates the result for mode.
// Variables already set in the environment win over .env files.
func Load(mode Mode, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, llm.Wrap(llm.ErrConfiguration, "load config", fmt.Errorf("failed to read %s: %w", f, err))
		}
	}

	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "load config", fmt.Errorf("failed to load defaults: %w", err))
	}

	// Environment variables map to lowercase keys: CHUNK_SIZE -> chunk_size.
	// Empty values are skipped so they fall back to defaults.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil); err != nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "load config", fmt.Errorf("failed to load environment variables: %w", err))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, llm.Wrap(llm.ErrConfiguration, "load config", fmt.Errorf("failed to unmarshal config: %w", err))
	}

	applyAliases(&cfg)

	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyAliases fills the vector-store settings from their legacy names
func applyAliases(cfg *Config) {
	if cfg.VectorStoreURL == "" {
		cfg.VectorStoreURL = cfg.PGVectorURL
	}
	if cfg.VectorStoreCollection == "" {
		cfg.VectorStoreCollection = cfg.PGVectorCollection
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	cfg.PromptLanguage = strings.ToLower(cfg.PromptLanguage)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
}

// Validate reports missing required variables first, then invalid optional values
func (c *Config) Validate(mode Mode) error {
	var missing []string

	switch c.Provider {
	case providers.ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	default:
		if c.GoogleAPIKey == "" {
			missing = append(missing, "GOOGLE_API_KEY")
		}
	}
	if c.EmbeddingModel == "" {
		missing = append(missing, "GOOGLE_EMBEDDING_MODEL")
	}
	if c.VectorStoreURL == "" {
		missing = append(missing, "VECTOR_STORE_URL")
	}
	if c.VectorStoreCollection == "" {
		missing = append(missing, "VECTOR_STORE_COLLECTION")
	}
	if mode == ModeIngest && c.PDFPath == "" {
		missing = append(missing, "PDF_PATH")
	}
	if len(missing) > 0 {
		return &MissingError{Mode: mode, Vars: missing}
	}

	var problems []error
	if c.Provider != providers.ProviderGoogle && c.Provider != providers.ProviderOpenAI {
		problems = append(problems, fmt.Errorf("LLM_PROVIDER must be google or openai, got %q", c.Provider))
	}
	if c.ChunkSize <= 0 {
		problems = append(problems, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		problems = append(problems, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap))
	}
	if c.TopK <= 0 {
		problems = append(problems, fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.TopK))
	}
	if c.EmbeddingBatchSize <= 0 {
		problems = append(problems, fmt.Errorf("EMBEDDING_BATCH_SIZE must be positive, got %d", c.EmbeddingBatchSize))
	}
	if _, err := rag.PromptFor(c.PromptLanguage); err != nil {
		problems = append(problems, fmt.Errorf("PROMPT_LANGUAGE: %w", err))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		problems = append(problems, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}
	if len(problems) > 0 {
		return llm.Wrap(llm.ErrConfiguration, "validate config", errors.Join(problems...))
	}

	return nil
}

// APIKey returns the key for the selected provider
func (c *Config) APIKey() string {
	if c.Provider == providers.ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GoogleAPIKey
}

// TracingEnabled reports whether both CozeLoop settings are present
func (c *Config) TracingEnabled() bool {
	return c.CozeLoopAPIToken != "" && c.CozeLoopWorkspaceID != ""
}

// Providers returns the model settings shared by ingestion and chat
func (c *Config) Providers() providers.Config {
	return providers.Config{
		Provider:       c.Provider,
		APIKey:         c.APIKey(),
		BaseURL:        c.OpenAIBaseURL,
		ChatModel:      c.ChatModel,
		EmbeddingModel: c.EmbeddingModel,
	}
}
