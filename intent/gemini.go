package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"google.golang.org/api/option"
)

// Model sends a prompt to a hosted language model and returns its text output
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiModel is a Model backed by the Gemini API
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiModel creates a Gemini client for modelName
func NewGeminiModel(ctx context.Context, apiKey, modelName string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set: %w", apperrors.ErrNotConfigured)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	return &GeminiModel{client: client, model: model}, nil
}

// Generate returns the concatenated text parts of the first candidate
func (g *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format (no text parts)")
	}
	return sb.String(), nil
}

// Close releases the underlying client
func (g *GeminiModel) Close() error {
	return g.client.Close()
}
