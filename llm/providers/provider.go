package providers

import (
	"context"
	"fmt"

	"pdfqa/llm"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	geminiModel "github.com/cloudwego/eino-ext/components/model/gemini"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Supported providers
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)

// Config selects the provider and models used for chat and embeddings.
// The same Config must be used for ingestion and querying.
type Config struct {
	Provider       string
	APIKey         string
	BaseURL        string // OpenAI-compatible endpoints only
	ChatModel      string
	EmbeddingModel string
}

// NewChatModel creates the answer-generation model with temperature 0
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, llm.Wrap(llm.ErrConfiguration, "chat model", fmt.Errorf("API key is required"))
	}
	temperature := float32(0)

	switch cfg.Provider {
	case ProviderGoogle, "":
		client, err := newGenAIClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		cm, err := geminiModel.NewChatModel(ctx, &geminiModel.Config{
			Client:      client,
			Model:       cfg.ChatModel,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, llm.Wrap(llm.ErrModel, "chat model", err)
		}
		return cm, nil

	case ProviderOpenAI:
		cm, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.ChatModel,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, llm.Wrap(llm.ErrModel, "chat model", err)
		}
		return cm, nil

	default:
		return nil, llm.Wrap(llm.ErrConfiguration, "chat model", fmt.Errorf("unknown provider %q", cfg.Provider))
	}
}

// NewEmbeddingModel creates the embedder shared by ingestion and retrieval
func NewEmbeddingModel(ctx context.Context, cfg Config) (einoEmbedding.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, llm.Wrap(llm.ErrConfiguration, "embedding model", fmt.Errorf("API key is required"))
	}
	if cfg.EmbeddingModel == "" {
		return nil, llm.Wrap(llm.ErrConfiguration, "embedding model", fmt.Errorf("embedding model name is required"))
	}

	switch cfg.Provider {
	case ProviderGoogle, "":
		client, err := newGenAIClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return NewGeminiEmbedder(client.Models, cfg.EmbeddingModel), nil

	case ProviderOpenAI:
		emb, err := openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.EmbeddingModel,
		})
		if err != nil {
			return nil, llm.Wrap(llm.ErrModel, "embedding model", err)
		}
		return emb, nil

	default:
		return nil, llm.Wrap(llm.ErrConfiguration, "embedding model", fmt.Errorf("unknown provider %q", cfg.Provider))
	}
}

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, llm.Wrap(llm.ErrModel, "genai client", fmt.Errorf("failed to create genai client: %w", err))
	}
	return client, nil
}
