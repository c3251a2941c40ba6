package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pratik-mahalle/altseo/internal/config"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// ErrNoGeminiKey is returned by Describe when no Gemini key is configured
var ErrNoGeminiKey = errors.New("gemini api key is not configured")

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel   = "gemini-2.0-flash"
	// Gemini takes image bytes inline, so the stored object is fetched first
	maxGeminiImageBytes = 20 << 20
)

// GeminiDescriber generates ALT text with a Gemini vision model
type GeminiDescriber struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// NewGeminiDescriber creates a describer backed by the Gemini REST API
func NewGeminiDescriber(cfg config.AIConfig) *GeminiDescriber {
	d := &GeminiDescriber{
		apiKey:    cfg.GeminiAPIKey,
		baseURL:   strings.TrimRight(nonEmpty(cfg.GeminiBaseURL, defaultGeminiBaseURL), "/"),
		model:     nonEmpty(cfg.GeminiModel, defaultGeminiModel),
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	return d
}

// Describe returns ALT text for the image at imageURL
func (d *GeminiDescriber) Describe(ctx context.Context, imageURL string) (string, error) {
	if d.apiKey == "" {
		return "", ErrNoGeminiKey
	}

	start := time.Now()
	text, err := d.describe(ctx, imageURL)
	switch {
	case err != nil:
		metrics.RecordAIGeneration("error", time.Since(start))
	case text == "":
		metrics.RecordAIGeneration("empty", time.Since(start))
		err = errors.New("gemini returned empty alt text")
	default:
		metrics.RecordAIGeneration("ok", time.Since(start))
	}
	return text, err
}

func (d *GeminiDescriber) describe(ctx context.Context, imageURL string) (string, error) {
	data, mimeType, err := d.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: altTextPrompt},
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
			},
		}},
	}
	if d.maxTokens > 0 {
		reqBody.GenerationConfig = &geminiGenerationConfig{MaxOutputTokens: d.maxTokens}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", d.baseURL, d.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return cleanAltText(gr.Candidates[0].Content.Parts[0].Text), nil
}

func (d *GeminiDescriber) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image url: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGeminiImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	if len(data) > maxGeminiImageBytes {
		return nil, "", errors.New("image is too large for inline description")
	}
	mimeType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return data, mimeType, nil
}
