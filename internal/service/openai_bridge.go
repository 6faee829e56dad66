package service

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/medsupply/backend/internal/domain"
)

// OpenAIBridge runs the analysis through an OpenAI-compatible chat completion API
type OpenAIBridge struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewOpenAIBridge creates a new OpenAI bridge. baseURL may point at any
// compatible endpoint; empty uses the public API.
func NewOpenAIBridge(apiKey, model, baseURL string) *OpenAIBridge {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIBridge{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		apiKey: apiKey,
	}
}

// Name identifies the analyzer in logs and results
func (b *OpenAIBridge) Name() string { return "openai" }

// Available reports whether an API key is configured
func (b *OpenAIBridge) Available() bool { return b.apiKey != "" }

// Analyze asks the model for a JSON analysis of the snapshot
func (b *OpenAIBridge) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	prompt, err := buildAnalysisPrompt(req)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	resp, err := b.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: b.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: analysisSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("openai: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("openai: %w: no choices", ErrMalformedResponse)
	}

	result, err := decodeRemoteResult([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("openai: %w", err)
	}
	return result, nil
}
