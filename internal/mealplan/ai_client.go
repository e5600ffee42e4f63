package mealplan

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

type AIClient interface {
	GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error)
}

type GeminiAIClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

type GeminiAIClientFuncOptions = func(client *GeminiAIClient) error

func NewGeminiAIClient(ctx context.Context, apiKey string, opts ...GeminiAIClientFuncOptions) (*GeminiAIClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}
	gemini := GeminiAIClient{
		client:      client,
		model:       "gemini-2.5-flash",
		temperature: 0.7,
	}
	if err := applyFuncOptions(&gemini, opts...); err != nil {
		return nil, fmt.Errorf("failed to apply options: %w", err)
	}
	return &gemini, nil
}

func WithModel(model string) GeminiAIClientFuncOptions {
	return func(client *GeminiAIClient) error {
		if model == "" {
			return fmt.Errorf("model must not be empty")
		}
		client.model = model
		return nil
	}
}

func WithTemperature(temperature float32) GeminiAIClientFuncOptions {
	return func(client *GeminiAIClient) error {
		client.temperature = temperature
		return nil
	}
}

func (g *GeminiAIClient) GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(g.temperature),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	g.logUsage(result.UsageMetadata)

	return result.Text(), nil
}

func (g *GeminiAIClient) logUsage(um *genai.GenerateContentResponseUsageMetadata) {
	if um == nil {
		return
	}
	log.Debug().
		Str("model", g.model).
		Int32("tokens_in", um.PromptTokenCount).
		Int32("tokens_out", um.TotalTokenCount-um.PromptTokenCount).
		Msg("gemini usage")
}
