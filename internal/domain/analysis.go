package domain

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel is the coarse risk classification of an analysis or area
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Valid reports whether r is one of the known risk levels
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// IncidentType is the scenario tag that biases the remote forecast
type IncidentType string

const (
	IncidentGeneral   IncidentType = "GENERAL"
	IncidentEmergency IncidentType = "EMERGENCY"
	IncidentDisaster  IncidentType = "DISASTER"
	IncidentPandemic  IncidentType = "PANDEMIC"
)

// ParseIncidentType parses an incident tag; the empty string means GENERAL
func ParseIncidentType(s string) (IncidentType, error) {
	switch t := IncidentType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return IncidentGeneral, nil
	case IncidentGeneral, IncidentEmergency, IncidentDisaster, IncidentPandemic:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown incident type %q", ErrValidation, s)
	}
}

// ExternalSignals are the contextual feeds an analysis was run against
type ExternalSignals struct {
	Weather           string   `json:"weather"`
	Events            []string `json:"events"`
	HistoricalContext string   `json:"historicalContext"`
}

// HierarchicalForecast is the predicted demand for one area of the hierarchy
type HierarchicalForecast struct {
	AreaID          string   `json:"areaId"`
	AreaName        string   `json:"areaName"`
	AreaType        AreaType `json:"areaType"`
	PredictedDemand float64  `json:"predictedDemand"`
	GrowthRate      float64  `json:"growthRate"`
}

// AnalysisResult is the shape shared by the remote analyzer and the local estimator
type AnalysisResult struct {
	RiskLevel             RiskLevel              `json:"riskLevel"`
	DemandForecast        float64                `json:"demandForecast"`
	StatewideForecast     float64                `json:"statewideShortTermForecast"`
	Recommendation        string                 `json:"recommendation"`
	Reasoning             string                 `json:"reasoning"`
	TargetedMedicine      string                 `json:"targetedMedicine"`
	AffectedArea          string                 `json:"affectedArea"`
	ConfidenceScore       *float64               `json:"confidenceScore,omitempty"`
	ScenarioImpact        string                 `json:"scenarioImpact,omitempty"`
	HierarchicalForecasts []HierarchicalForecast `json:"hierarchicalForecasts"`
	ExternalSignals       *ExternalSignals       `json:"externalSignals,omitempty"`
}

// AnalysisSource tells which path produced an analysis
type AnalysisSource string

const (
	SourceRemote AnalysisSource = "REMOTE"
	SourceLocal  AnalysisSource = "LOCAL"
)

// Analysis is the outcome of one analysis run: either a remote result or a local estimate
type Analysis struct {
	Result         AnalysisResult `json:"result"`
	Source         AnalysisSource `json:"source"`
	Provider       string         `json:"provider,omitempty"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
	IncidentType   IncidentType   `json:"incidentType"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

// AnalysisRequest is the snapshot sent to a remote analyzer
type AnalysisRequest struct {
	IncidentType IncidentType    `json:"incidentType"`
	Medicines    []Medicine      `json:"medicines"`
	Reports      []SymptomReport `json:"reports"`
	Areas        []Area          `json:"areas"`
	Signals      ExternalSignals `json:"externalSignals"`
}

// DashboardData aggregates the command dashboard view
type DashboardData struct {
	Inventory InventorySummary `json:"inventory"`
	Regions   []RegionStats    `json:"regions"`
	Analysis  *Analysis        `json:"analysis,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
