package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medsupply/backend/internal/domain"
)

const validRemoteJSON = `{
	"riskLevel": "high",
	"statewideShortTermForecast": 5400,
	"recommendation": "Increase buffer stocks in Coastal District.",
	"reasoning": "Flood warning",
	"scenarioImpact": "Water-borne disease surge",
	"targetedMedicine": "ORS Packets",
	"confidenceScore": 1.7,
	"hierarchicalForecasts": [
		{"areaId": "state-01", "areaName": "West Province", "areaType": "STATE", "predictedDemand": 5400, "growthRate": 0.1}
	]
}`

func testRequest() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		IncidentType: domain.IncidentDisaster,
		Medicines:    domain.DefaultMedicines(testNow),
		Reports: []domain.SymptomReport{
			{ID: "r1", CityID: "city-03", DistrictID: "dist-02", Symptoms: []string{"Diarrhea"}, Severity: 6},
		},
		Areas:   domain.DefaultAreas(),
		Signals: simulatedSignals[domain.IncidentDisaster],
	}
}

func TestDecodeRemoteResult(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", validRemoteJSON, false},
		{"code fenced", "```json\n" + validRemoteJSON + "\n```", false},
		{"not json", "The risk is high.", true},
		{"unknown risk level", `{"riskLevel":"SEVERE","demandForecast":1,"recommendation":"x"}`, true},
		{"missing recommendation", `{"riskLevel":"LOW","demandForecast":1}`, true},
		{"missing demand", `{"riskLevel":"LOW","recommendation":"x"}`, true},
		{"negative demand", `{"riskLevel":"LOW","demandForecast":-1,"recommendation":"x"}`, true},
		{"negative area demand", `{"riskLevel":"LOW","demandForecast":1,"recommendation":"x","hierarchicalForecasts":[{"areaId":"a","predictedDemand":-3}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeRemoteResult([]byte(tt.raw))
			if tt.wantErr && !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("Expected ErrMalformedResponse, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestDecodeRemoteResult_Normalizes(t *testing.T) {
	r, err := decodeRemoteResult([]byte(validRemoteJSON))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if r.RiskLevel != domain.RiskHigh {
		t.Errorf("Expected HIGH, got %s", r.RiskLevel)
	}
	if r.DemandForecast != 5400 || r.StatewideForecast != 5400 {
		t.Errorf("Expected statewide used as demand, got %v / %v", r.DemandForecast, r.StatewideForecast)
	}
	if r.ConfidenceScore == nil || *r.ConfidenceScore != 1 {
		t.Errorf("Expected confidence clamped to 1, got %v", r.ConfidenceScore)
	}
	if r.AffectedArea != "Global" {
		t.Errorf("Expected default affected area, got %q", r.AffectedArea)
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	prompt, err := buildAnalysisPrompt(testRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, want := range []string{"DISASTER", "Flash Flood", "Tamiflu", "Port Hub", "Coastal District"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to mention %q", want)
		}
	}
}

func TestGeminiBridge_Analyze(t *testing.T) {
	var gotKey, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			http.Error(w, "json response expected", http.StatusBadRequest)
			return
		}

		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": validRemoteJSON}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	bridge := NewGeminiBridge("secret", "gemini-test")
	bridge.baseURL = server.URL

	r, err := bridge.Analyze(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if r.TargetedMedicine != "ORS Packets" {
		t.Errorf("Expected ORS Packets, got %q", r.TargetedMedicine)
	}
	if gotKey != "secret" {
		t.Errorf("Expected API key header, got %q", gotKey)
	}
	if gotPath != "/v1beta/models/gemini-test:generateContent" {
		t.Errorf("Unexpected path %q", gotPath)
	}
}

func TestGeminiBridge_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[]}`)
		}},
		{"prose answer", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"I cannot help"}]}}]}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			bridge := NewGeminiBridge("secret", "")
			bridge.baseURL = server.URL
			if _, err := bridge.Analyze(context.Background(), testRequest()); err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
}

func TestGeminiBridge_Available(t *testing.T) {
	if NewGeminiBridge("", "").Available() {
		t.Errorf("Expected bridge without key to be unavailable")
	}
	if !NewGeminiBridge("k", "").Available() {
		t.Errorf("Expected bridge with key to be available")
	}
}

func TestOpenAIBridge_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []any{
				map[string]any{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": validRemoteJSON},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	bridge := NewOpenAIBridge("sk-test", "gpt-test", server.URL+"/v1")
	r, err := bridge.Analyze(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if r.RiskLevel != domain.RiskHigh {
		t.Errorf("Expected HIGH, got %s", r.RiskLevel)
	}

	failing := NewOpenAIBridge("wrong", "gpt-test", server.URL+"/v1")
	if _, err := failing.Analyze(context.Background(), testRequest()); err == nil {
		t.Errorf("Expected unauthorized call to fail")
	}
}

func TestMLBridge_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/analyze":
			var req domain.AnalysisRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IncidentType != domain.IncidentDisaster {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			_, _ = io.WriteString(w, validRemoteJSON)
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	bridge := NewMLBridge(server.URL)
	if _, err := bridge.Analyze(context.Background(), testRequest()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := bridge.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy service, got %v", err)
	}

	down := NewMLBridge("http://127.0.0.1:1")
	if _, err := down.Analyze(context.Background(), testRequest()); err == nil {
		t.Errorf("Expected unreachable service to fail")
	}
	if NewMLBridge("").Available() {
		t.Errorf("Expected bridge without URL to be unavailable")
	}
}
