package adapter

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	apperrors "shipgraph/backend/pkg/errors"
	"shipgraph/backend/pkg/logger"
)

// Options configures the LLM adapter
type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float64
	// Attempts is the number of tries per request; values below 1 mean one
	Attempts int
}

// LLMAdapter talks to an OpenAI-compatible API for chat completions and embeddings
type LLMAdapter struct {
	client *openai.Client
	opts   Options
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(opts Options) *LLMAdapter {
	// OpenAI-compatible local servers accept any key
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(opts.BaseURL, "/") + "/v1"
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	return &LLMAdapter{
		client: openai.NewClientWithConfig(config),
		opts:   opts,
		logger: logger.Get(),
	}
}

// Model returns the chat model in use
func (a *LLMAdapter) Model() string {
	return a.opts.Model
}

// Complete sends one system and one user message and returns the reply text
func (a *LLMAdapter) Complete(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		MaxTokens:        a.opts.MaxTokens,
		Temperature:      float32(a.opts.Temperature),
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}

	var resp openai.ChatCompletionResponse
	err := a.withAttempts(ctx, "chat completion", func() error {
		var err error
		resp, err = a.client.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return "", apperrors.NewOracleFailed(a.opts.Model, a.opts.Attempts, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.ErrOracleNoResponse
	}

	content := resp.Choices[0].Message.Content
	a.logger.Debug("LLM response generated",
		zap.String("model", a.opts.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Bool("has_content", content != ""),
	)
	return content, nil
}

// Embed returns the embedding vector for text
func (a *LLMAdapter) Embed(ctx context.Context, text string) ([]float64, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(a.opts.EmbeddingModel),
	}

	var resp openai.EmbeddingResponse
	err := a.withAttempts(ctx, "embedding", func() error {
		var err error
		resp, err = a.client.CreateEmbeddings(ctx, req)
		return err
	})
	if err != nil {
		return nil, apperrors.NewOracleFailed(a.opts.EmbeddingModel, a.opts.Attempts, err)
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.ErrOracleNoResponse
	}

	vector := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float64(v)
	}
	return vector, nil
}

// withAttempts runs call up to the configured number of times with a linear backoff
func (a *LLMAdapter) withAttempts(ctx context.Context, op string, call func() error) error {
	var err error
	for attempt := 0; attempt < a.opts.Attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			a.logger.Warn("Retrying LLM request",
				zap.String("operation", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err = call()
		if err == nil {
			return nil
		}

		a.logger.Error("LLM request failed",
			zap.String("operation", op),
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", a.opts.Model),
		)
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
