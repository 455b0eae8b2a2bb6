// Package openai wraps the OpenAI API for the two external capabilities the
// pipeline consumes: embed(text) -> vector and complete(prompt) -> text.
package openai

import (
	"context"
	"errors"
	"log"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultCompletionModel is the chat model used for answering
	DefaultCompletionModel = openai.GPT4oMini

	defaultMaxTokens   = 1500
	defaultTemperature = 0.3
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoAPIKey is returned when the OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// API is the subset of the OpenAI client the wrapper uses.
type API interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds client configuration.
type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	CompletionModel     string
	MaxTokens           int
	Temperature         float32
}

// Client provides embedding and completion calls with a single retry on
// provider failure and no context mutation between attempts.
type Client struct {
	api             API
	embeddingModel  openai.EmbeddingModel
	dimensions      int
	completionModel string
	maxTokens       int
	temperature     float32
}

// NewClient creates a client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	c := &Client{
		api:             openai.NewClient(cfg.APIKey),
		embeddingModel:  cfg.EmbeddingModel,
		dimensions:      cfg.EmbeddingDimensions,
		completionModel: cfg.CompletionModel,
		maxTokens:       cfg.MaxTokens,
		temperature:     cfg.Temperature,
	}
	if c.embeddingModel == "" {
		c.embeddingModel = DefaultEmbeddingModel
	}
	if c.dimensions <= 0 {
		c.dimensions = DefaultEmbeddingDimensions
	}
	if c.completionModel == "" {
		c.completionModel = DefaultCompletionModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.temperature == 0 {
		c.temperature = defaultTemperature
	}
	return c
}

// NewClientFromEnv creates a client using the OPENAI_API_KEY environment variable.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// NewClientWithAPI creates a client backed by a custom API implementation.
// Used by tests.
func NewClientWithAPI(api API, dimensions int) *Client {
	c := NewClientWithConfig(Config{APIKey: "test", EmbeddingDimensions: dimensions})
	c.api = api
	return c
}

// GenerateEmbedding embeds the given text. Provider failures are retried
// exactly once before surfacing as a provider error.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embeddingModel,
	}

	resp, err := c.api.CreateEmbeddings(ctx, req)
	if err != nil && ctx.Err() == nil {
		log.Printf("openai: embedding call failed, retrying once: %v", err)
		resp, err = c.api.CreateEmbeddings(ctx, req)
	}
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProvider,
			"embedding capability unavailable", err)
	}

	if len(resp.Data) == 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProvider,
			"embedding capability unavailable", errors.New("no embedding data returned"))
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != c.dimensions {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeProvider,
			"embedding capability unavailable", ErrWrongDimensions)
	}

	return embedding, nil
}

// Complete sends the assembled prompt to the chat model and returns the
// raw response text. Provider failures are retried exactly once.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyText
	}

	req := openai.ChatCompletionRequest{
		Model:       c.completionModel,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil && ctx.Err() == nil {
		log.Printf("openai: completion call failed, retrying once: %v", err)
		resp, err = c.api.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeProvider,
			"completion capability unavailable", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeProvider,
			"completion capability unavailable", errors.New("no completion choices returned"))
	}

	return resp.Choices[0].Message.Content, nil
}
