package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medsupply/backend/internal/domain"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-pro"
)

// GeminiBridge runs the analysis through the Gemini generateContent REST API
type GeminiBridge struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiBridge creates a new Gemini bridge
func NewGeminiBridge(apiKey, model string) *GeminiBridge {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiBridge{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Name identifies the analyzer in logs and results
func (b *GeminiBridge) Name() string { return "gemini" }

// Available reports whether an API key is configured
func (b *GeminiBridge) Available() bool { return b.apiKey != "" }

// Analyze sends the snapshot to Gemini and decodes the JSON answer
func (b *GeminiBridge) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	prompt, err := buildAnalysisPrompt(req)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: analysisSystemPrompt}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.2,
		},
	})
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("gemini: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", b.baseURL, b.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", b.apiKey)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AnalysisResult{}, fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("gemini: %w: %v", ErrMalformedResponse, err)
	}
	if len(gr.Candidates) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("gemini: %w: no candidates", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	result, err := decodeRemoteResult([]byte(text.String()))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("gemini: %w", err)
	}
	return result, nil
}
