package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// ErrNoAPIKey is returned by Describe when no OpenAI key is configured
var ErrNoAPIKey = errors.New("openai api key is not configured")

const altTextPrompt = "Write concise, descriptive ALT text for this image for SEO and accessibility. " +
	"Describe what is shown in one sentence of at most 125 characters. " +
	"Do not start with \"Image of\" or \"Picture of\". Reply with the ALT text only."

// OpenAIDescriber generates ALT text with an OpenAI vision model
type OpenAIDescriber struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIDescriber creates a describer. A missing API key yields a describer
// whose calls fail, so uploads degrade to an empty ALT text.
func NewOpenAIDescriber(cfg config.AIConfig) *OpenAIDescriber {
	d := &OpenAIDescriber{model: cfg.Model, maxTokens: cfg.MaxTokens}
	if d.model == "" {
		d.model = openai.GPT4oMini
	}
	if cfg.OpenAIAPIKey == "" {
		return d
	}
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	d.client = openai.NewClientWithConfig(clientCfg)
	return d
}

// Describe returns ALT text for the image at imageURL
func (d *OpenAIDescriber) Describe(ctx context.Context, imageURL string) (string, error) {
	if d.client == nil {
		return "", ErrNoAPIKey
	}

	start := time.Now()
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: altTextPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    imageURL,
					Detail: openai.ImageURLDetailLow,
				}},
			},
		}},
		MaxTokens: d.maxTokens,
	})
	if err != nil {
		metrics.RecordAIGeneration("error", time.Since(start))
		return "", err
	}
	if len(resp.Choices) == 0 {
		metrics.RecordAIGeneration("empty", time.Since(start))
		return "", errors.New("openai returned no choices")
	}

	text := cleanAltText(resp.Choices[0].Message.Content)
	if text == "" {
		metrics.RecordAIGeneration("empty", time.Since(start))
		return "", errors.New("openai returned empty alt text")
	}
	metrics.RecordAIGeneration("ok", time.Since(start))
	return text, nil
}

func cleanAltText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'")
	return strings.TrimSpace(s)
}
