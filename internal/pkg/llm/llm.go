// Package llm sends a single system+user prompt to a chat model and returns
// the reply text.
package llm

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"

	"github.com/ai-resource-hub/server/internal/config"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from AI")

// Completer produces one assistant reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Settings bounds every completion.
type Settings struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// New builds the Completer for cfg.Provider.
func New(cfg config.LLMConfig) (Completer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("llm api key is empty")
	}
	settings := Settings{
		Model:       strings.TrimSpace(cfg.Model),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		if settings.Model == "" {
			settings.Model = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
			opts = append(opts, anthropicoption.WithBaseURL(base))
		}
		client := anthropicclient.NewClient(opts...)
		return &anthropicCompleter{
			model:    jetanthropic.NewLanguageModel(settings.Model, jetanthropic.WithClient(client)),
			settings: settings,
		}, nil
	case ProviderOpenAI, "":
		if settings.Model == "" {
			settings.Model = defaultOpenAIModel
		}
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(0),
		}
		if normalized := NormalizeOpenAIBaseURL(cfg.BaseURL); normalized != "" {
			opts = append(opts, openaioption.WithBaseURL(normalized))
		}
		client := openaiclient.NewClient(opts...)
		return &openAICompleter{client: client, settings: settings}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

type openAICompleter struct {
	client   openaiclient.Client
	settings Settings
}

func (o *openAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.settings.Timeout)
	defer cancel()

	messages := make([]openaiclient.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openaiclient.SystemMessage(systemPrompt))
	}
	messages = append(messages, openaiclient.UserMessage(userPrompt))

	params := openaiclient.ChatCompletionNewParams{
		Model:       openaiclient.ChatModel(o.settings.Model),
		Messages:    messages,
		Temperature: openaiclient.Float(o.settings.Temperature),
	}
	if o.settings.MaxTokens > 0 {
		params.MaxTokens = openaiclient.Int(int64(o.settings.MaxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := completion.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

type anthropicCompleter struct {
	model    jetapi.LanguageModel
	settings Settings
}

func (a *anthropicCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, a.settings.Timeout)
	defer cancel()

	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(userPrompt)})

	opts := []jetai.GenerateOption{
		jetai.WithModel(a.model),
		jetai.WithTemperature(a.settings.Temperature),
	}
	if a.settings.MaxTokens > 0 {
		opts = append(opts, jetai.WithMaxOutputTokens(a.settings.MaxTokens))
	}
	resp, err := jetai.GenerateText(ctx, messages, opts...)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.(*jetapi.TextBlock); ok {
			full.WriteString(tb.Text)
		}
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", ErrEmptyResponse
	}
	return full.String(), nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// NormalizeOpenAIBaseURL makes sure an OpenAI-compatible base URL ends in /v1.
func NormalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

// ErrorKind names an error for logs without leaking prompt or reply content.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}
	if errors.Is(err, ErrEmptyResponse) {
		return "EmptyResponse"
	}
	var apiErr *openaiclient.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("APIError(%d)", apiErr.StatusCode)
	}
	t := fmt.Sprintf("%T", err)
	return strings.TrimPrefix(t, "*")
}
