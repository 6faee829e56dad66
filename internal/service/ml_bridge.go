package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medsupply/backend/internal/domain"
)

// maxMLResponseBytes bounds the body read from the forecasting service
const maxMLResponseBytes = 1 << 20

// MLBridge handles communication with a standalone forecasting service
type MLBridge struct {
	serviceURL string
	httpClient *http.Client
}

// NewMLBridge creates a new ML bridge
func NewMLBridge(serviceURL string) *MLBridge {
	return &MLBridge{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name identifies the analyzer in logs and results
func (b *MLBridge) Name() string { return "ml" }

// Available reports whether a service URL is configured
func (b *MLBridge) Available() bool { return b.serviceURL != "" }

// Analyze posts the snapshot to the forecasting service
func (b *MLBridge) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("ml_bridge: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/analyze", b.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("ml_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("ml_bridge: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AnalysisResult{}, fmt.Errorf("ml_bridge: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxMLResponseBytes))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("ml_bridge: failed to read response: %w", err)
	}

	result, err := decodeRemoteResult(raw)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("ml_bridge: %w", err)
	}
	return result, nil
}

// Health checks ML service connectivity
func (b *MLBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ml_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ml_bridge: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml_bridge: health check returned status %d", resp.StatusCode)
	}

	return nil
}
