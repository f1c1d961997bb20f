package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini-backed Generator.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Gemini calls the Gemini API through the official SDK. Temperature defaults
// to 0 so extraction and categorization stay as deterministic as the model
// allows.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGemini creates a Gemini generator. The API key must be set; callers that
// want graceful degradation check the key themselves and pass a nil Generator
// downstream instead.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: missing Gemini API key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: missing Gemini model name")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create genai client: %w", err)
	}

	return &Gemini{client: client, cfg: cfg}, nil
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, p := range req.Parts {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data},
		})
	}

	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = g.cfg.MaxOutputTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens: maxTokens,
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := withRetry(ctx, defaultRetryConfig, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, config)
	})
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("llm: empty response from model")
	}
	return text, nil
}
