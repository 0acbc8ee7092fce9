package segment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Backend base URLs and default models for the OpenAI-compatible providers.
const (
	deepseekBaseURL      = "https://api.deepseek.com"
	defaultOpenAIModel   = "gpt-4.1-mini"
	defaultDeepSeekModel = "deepseek-chat"
)

const systemPrompt = "You are an assistant that analyzes video transcripts, identifies the key topics with timestamps and answers ONLY with valid JSON, no additional text."

// OpenAIProvider implements Provider on top of any OpenAI-compatible
// chat-completions endpoint (OpenAI itself, DeepSeek, self-hosted gateways).
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// ProviderConfig configures an OpenAI-compatible provider.
type ProviderConfig struct {
	// APIKey authenticates against the backend.
	APIKey string
	// Model is the model identifier. Empty selects the backend default.
	Model string
	// BaseURL overrides the API endpoint. Empty means api.openai.com.
	BaseURL string
}

// NewOpenAIProvider creates a provider for the OpenAI API.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	return newCompatibleProvider(cfg)
}

// NewDeepSeekProvider creates a provider for DeepSeek's OpenAI-compatible API.
func NewDeepSeekProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		cfg.Model = defaultDeepSeekModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = deepseekBaseURL
	}
	return newCompatibleProvider(cfg)
}

// NewProvider selects a backend by name: "openai" or "deepseek".
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "deepseek":
		return NewDeepSeekProvider(cfg)
	default:
		return nil, fmt.Errorf("segment: unknown provider %q (want openai or deepseek)", name)
	}
}

func newCompatibleProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("segment: provider API key required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Generate submits the prompt as a chat completion in JSON mode. Gateways
// with incomplete response_format support get one retry in plain mode; the
// caller's bracket recovery handles the looser output.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Model:       shared.ChatModel(p.model),
		Temperature: openai.Float(0.3),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil && shouldRetryWithoutJSONMode(err) {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{}
		resp, err = p.client.Chat.Completions.New(ctx, params)
	}
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("segment: provider returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("segment: provider returned empty content")
	}
	return content, nil
}

func shouldRetryWithoutJSONMode(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "response_format") || strings.Contains(msg, "json_object")
}
