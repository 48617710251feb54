package questions

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultBaseURL is the OpenAI-compatible endpoint of a local Ollama.
	DefaultBaseURL = "http://localhost:11434/v1"
	// DefaultModel is the model asked for questions.
	DefaultModel = "llama2"
	// DefaultAPIKey satisfies clients that require a key; Ollama ignores it.
	DefaultAPIKey = "ollama"
)

// OpenAIConfig configures an OpenAI-compatible chat completion backend.
type OpenAIConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	MaxRetries int
	HTTPClient *http.Client
}

// OpenAIGenerator asks a chat completion model for interview questions.
type OpenAIGenerator struct {
	client openaigo.Client
	model  string
}

// NewOpenAIGenerator builds a generator for cfg, applying Ollama defaults.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := openaigo.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	)
	return &OpenAIGenerator{client: client, model: model}
}

// Generate requests one question. Blank completions are returned as "".
func (g *OpenAIGenerator) Generate(ctx context.Context, roleLabel string, sequenceNumber int) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(g.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.UserMessage(Prompt(roleLabel, sequenceNumber)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
