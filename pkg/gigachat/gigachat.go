// Package gigachat builds chat models against a GigaChat-compatible
// OpenAI-style endpoint.
package gigachat

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// LLMBuilder builds a chat model from a config.
type LLMBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = (*Config)(nil)

// Config describes one chat model endpoint.
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"https://gigachat.devices.sberbank.ru/api/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"GigaChat"`
	MaxTokens   *int          `envconfig:"MAX_TOKENS" split_words:"true" default:"2000"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

// New builds an eino chat model for this config.
func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxTokens,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("gigachat: create chat model: %w", err)
	}

	return m, nil
}

// NewClient creates a raw SDK client for the same endpoint. Used by health
// checks; nil when no API key is configured.
func NewClient(cfg Config) *openaisdk.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}

// Ping verifies the endpoint answers by listing available models.
func Ping(ctx context.Context, client *openaisdk.Client) error {
	if client == nil {
		return fmt.Errorf("gigachat: client is not configured")
	}
	if _, err := client.Models.List(ctx); err != nil {
		return fmt.Errorf("gigachat: ping: %w", err)
	}
	return nil
}
