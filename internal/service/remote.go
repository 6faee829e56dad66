package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/forecast"
	"github.com/medsupply/backend/pkg/utils"
)

// ErrMalformedResponse is returned when a remote analyzer answers with
// something that is not a usable analysis result
var ErrMalformedResponse = errors.New("malformed remote analysis response")

// RemoteAnalyzer is a remote generative forecasting backend.
// Available reports whether the analyzer is configured at all; Analyze may
// still fail, in which case the caller falls back to the local estimator.
type RemoteAnalyzer interface {
	Name() string
	Available() bool
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}

// remoteResult is the JSON object remote analyzers are asked to return
type remoteResult struct {
	RiskLevel             string                        `json:"riskLevel"`
	DemandForecast        *float64                      `json:"demandForecast"`
	StatewideForecast     *float64                      `json:"statewideShortTermForecast"`
	Recommendation        string                        `json:"recommendation"`
	Reasoning             string                        `json:"reasoning"`
	ScenarioImpact        string                        `json:"scenarioImpact"`
	TargetedMedicine      string                        `json:"targetedMedicine"`
	AffectedArea          string                        `json:"affectedArea"`
	ConfidenceScore       *float64                      `json:"confidenceScore"`
	HierarchicalForecasts []domain.HierarchicalForecast `json:"hierarchicalForecasts"`
}

// decodeRemoteResult parses and checks a remote answer. Model output wrapped
// in a markdown code fence is accepted.
func decodeRemoteResult(raw []byte) (domain.AnalysisResult, error) {
	raw = stripCodeFence(raw)

	var rr remoteResult
	if err := json.Unmarshal(raw, &rr); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	risk := domain.RiskLevel(strings.ToUpper(strings.TrimSpace(rr.RiskLevel)))
	if !risk.Valid() {
		return domain.AnalysisResult{}, fmt.Errorf("%w: risk level %q", ErrMalformedResponse, rr.RiskLevel)
	}
	if strings.TrimSpace(rr.Recommendation) == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: missing recommendation", ErrMalformedResponse)
	}

	var demand, statewide float64
	switch {
	case rr.DemandForecast != nil:
		demand = *rr.DemandForecast
	case rr.StatewideForecast != nil:
		demand = *rr.StatewideForecast
	default:
		return domain.AnalysisResult{}, fmt.Errorf("%w: missing demand forecast", ErrMalformedResponse)
	}
	if rr.StatewideForecast != nil {
		statewide = *rr.StatewideForecast
	}
	if demand < 0 || statewide < 0 {
		return domain.AnalysisResult{}, fmt.Errorf("%w: negative demand", ErrMalformedResponse)
	}
	if _, bad := lo.Find(rr.HierarchicalForecasts, func(f domain.HierarchicalForecast) bool {
		return f.PredictedDemand < 0
	}); bad {
		return domain.AnalysisResult{}, fmt.Errorf("%w: negative area demand", ErrMalformedResponse)
	}

	result := domain.AnalysisResult{
		RiskLevel:             risk,
		DemandForecast:        demand,
		StatewideForecast:     statewide,
		Recommendation:        rr.Recommendation,
		Reasoning:             rr.Reasoning,
		TargetedMedicine:      rr.TargetedMedicine,
		AffectedArea:          rr.AffectedArea,
		ScenarioImpact:        rr.ScenarioImpact,
		HierarchicalForecasts: rr.HierarchicalForecasts,
	}
	if result.TargetedMedicine == "" {
		result.TargetedMedicine = forecast.GeneralMedicine
	}
	if result.AffectedArea == "" {
		result.AffectedArea = forecast.GlobalArea
	}
	if rr.ConfidenceScore != nil {
		c := utils.Clamp(*rr.ConfidenceScore, 0, 1)
		result.ConfidenceScore = &c
	}
	return result, nil
}

func stripCodeFence(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("```")) {
		return raw
	}
	raw = bytes.TrimPrefix(raw, []byte("```"))
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		raw = raw[i+1:]
	}
	raw = bytes.TrimSuffix(bytes.TrimSpace(raw), []byte("```"))
	return bytes.TrimSpace(raw)
}

const analysisSystemPrompt = "You are the Chief Health Forecaster for a regional medicine supply chain. Answer with a single JSON object only."

// buildAnalysisPrompt renders the snapshot into the instruction text shared by
// the generative analyzers
func buildAnalysisPrompt(req domain.AnalysisRequest) (string, error) {
	names := lo.Associate(req.Areas, func(a domain.Area) (string, string) {
		return a.ID, a.Name
	})

	type inventoryLine struct {
		Name      string `json:"name"`
		Category  string `json:"category"`
		Stock     int    `json:"stock"`
		Threshold int    `json:"criticalThreshold"`
	}
	type signalLine struct {
		City     string   `json:"city"`
		District string   `json:"district"`
		Symptoms []string `json:"symptoms"`
		Severity int      `json:"severity"`
	}

	inventory, err := json.Marshal(lo.Map(req.Medicines, func(m domain.Medicine, _ int) inventoryLine {
		return inventoryLine{Name: m.Name, Category: m.Category, Stock: m.Stock, Threshold: m.CriticalThreshold}
	}))
	if err != nil {
		return "", fmt.Errorf("prompt: failed to marshal inventory: %w", err)
	}
	signals, err := json.Marshal(lo.Map(req.Reports, func(r domain.SymptomReport, _ int) signalLine {
		return signalLine{City: names[r.CityID], District: names[r.DistrictID], Symptoms: r.Symptoms, Severity: r.Severity}
	}))
	if err != nil {
		return "", fmt.Errorf("prompt: failed to marshal reports: %w", err)
	}
	hierarchy, err := json.Marshal(req.Areas)
	if err != nil {
		return "", fmt.Errorf("prompt: failed to marshal areas: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "STRATEGIC CONTEXT: %s\n\n", req.IncidentType)
	b.WriteString("ENHANCED DATA FEEDS:\n")
	fmt.Fprintf(&b, "- Weather Pattern: %s\n", req.Signals.Weather)
	fmt.Fprintf(&b, "- Local Events: %s\n", strings.Join(req.Signals.Events, ", "))
	fmt.Fprintf(&b, "- Historical Outbreak Intelligence: %s\n\n", req.Signals.HistoricalContext)
	b.WriteString("LOGISTICS DATA:\n")
	fmt.Fprintf(&b, "- Current Inventory: %s\n", inventory)
	fmt.Fprintf(&b, "- Community Signals: %s\n", signals)
	fmt.Fprintf(&b, "- Regional Hierarchy: %s\n\n", hierarchy)
	b.WriteString("TASK:\n")
	b.WriteString("1. Forecast demand at STATE, DISTRICT and CITY level.\n")
	b.WriteString("2. Weight the enhanced data feeds into the forecast even where reports are still low.\n")
	b.WriteString("3. Identify the targetedMedicine most at risk and the affectedArea.\n")
	b.WriteString("4. Calculate a growth rate per area.\n\n")
	b.WriteString("Return JSON with keys: riskLevel (LOW|MEDIUM|HIGH|CRITICAL), demandForecast, ")
	b.WriteString("statewideShortTermForecast, recommendation, reasoning, scenarioImpact, targetedMedicine, ")
	b.WriteString("affectedArea, confidenceScore (0-1), hierarchicalForecasts ")
	b.WriteString("[{areaId, areaName, areaType, predictedDemand, growthRate}].")
	return b.String(), nil
}
