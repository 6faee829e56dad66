package forecast

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/medsupply/backend/internal/domain"
)

// Labels used when no specific medicine or area is implicated
const (
	GeneralMedicine  = "General"
	GlobalArea       = "Global"
	CentralWarehouse = "Central Warehouse"
)

// CorrelationRule pairs a critical medicine with a symptom cluster in a hotspot.
// A critical item matches when its category (or, if set, its name) equals the
// rule's, and the hotspot's symptom signal exceeds MinSignal.
type CorrelationRule struct {
	Category      string `json:"category"`
	Medicine      string `json:"medicine,omitempty"`
	Symptom       string `json:"symptom"`
	HotspotAreaID string `json:"hotspotAreaId"`
	MinSignal     int    `json:"minSignal"`
}

func (r CorrelationRule) matches(m domain.Medicine) bool {
	if r.Category != "" && strings.EqualFold(m.Category, r.Category) {
		return true
	}
	return r.Medicine != "" && strings.EqualFold(m.Name, r.Medicine)
}

// DefaultRules is the demo correlation table: an antiviral shortage while
// Metro City reports a fever cluster
func DefaultRules() []CorrelationRule {
	return []CorrelationRule{
		{Category: "Antiviral", Medicine: "Tamiflu", Symptom: "Fever", HotspotAreaID: "city-01", MinSignal: 1},
	}
}

// EstimatorConfig tunes the fallback rule set
type EstimatorConfig struct {
	Rules              []CorrelationRule
	Thresholds         Thresholds
	SurgeMultiplier    decimal.Decimal // applied to the threshold of a HIGH item, rounded up
	ResupplyMultiplier decimal.Decimal // applied to the stock of a MEDIUM item
	BaselineDemand     int
	UnitsPerCase       int
}

// DefaultEstimatorConfig returns the stock rule set
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Rules:              DefaultRules(),
		Thresholds:         DefaultThresholds,
		SurgeMultiplier:    decimal.NewFromFloat(1.5),
		ResupplyMultiplier: decimal.NewFromFloat(1.5),
		BaselineDemand:     100,
		UnitsPerCase:       15,
	}
}

// Estimator is the deterministic offline stand-in for the remote analyzer
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator creates an estimator with the given rule set
func NewEstimator(cfg EstimatorConfig) *Estimator {
	return &Estimator{cfg: cfg}
}

// Config returns the estimator's rule set
func (e *Estimator) Config() EstimatorConfig {
	return e.cfg
}

// Estimate runs the default rule set
func Estimate(medicines []domain.Medicine, reports []domain.SymptomReport, areas []domain.Area) domain.AnalysisResult {
	return NewEstimator(DefaultEstimatorConfig()).Estimate(medicines, reports, areas)
}

// SymptomSignal counts reports inside an area (or its descendants) listing the symptom
func SymptomSignal(h *Hierarchy, reports []domain.SymptomReport, areaID, symptom string) int {
	return lo.CountBy(reports, func(r domain.SymptomReport) bool {
		return h.Contains(areaID, r.CityID) && r.HasSymptom(symptom)
	})
}

// Estimate evaluates the rules in order and returns the first match:
// correlated shortage (HIGH), any critical item (MEDIUM), else the LOW default.
// It never fails and is idempotent for unchanged inputs.
func (e *Estimator) Estimate(medicines []domain.Medicine, reports []domain.SymptomReport, areas []domain.Area) domain.AnalysisResult {
	h := NewHierarchy(areas)

	critical := lo.Filter(medicines, func(m domain.Medicine, _ int) bool {
		return m.IsCritical()
	})

	result, matched := e.correlatedShortage(h, critical, reports)
	if !matched {
		if len(critical) > 0 {
			result = e.resupply(critical[0])
		} else {
			result = e.baseline()
		}
	}

	result.HierarchicalForecasts = h.Forecasts(reports, e.cfg.UnitsPerCase)
	result.StatewideForecast = h.StatewideDemand(h.CityDemand(h.CaseCounts(reports), e.cfg.UnitsPerCase))
	return result
}

func (e *Estimator) correlatedShortage(h *Hierarchy, critical []domain.Medicine, reports []domain.SymptomReport) (domain.AnalysisResult, bool) {
	for _, rule := range e.cfg.Rules {
		hotspot, ok := h.Area(rule.HotspotAreaID)
		if !ok {
			continue
		}

		item, found := lo.Find(critical, rule.matches)
		if !found {
			continue
		}

		signal := SymptomSignal(h, reports, hotspot.ID, rule.Symptom)
		if signal <= rule.MinSignal {
			continue
		}

		demand := nonNegative(decimal.NewFromInt(int64(item.CriticalThreshold)).Mul(e.cfg.SurgeMultiplier).Ceil())
		dispatch := nonNegative(decimal.NewFromInt(int64(item.CriticalThreshold - item.Stock)))

		return domain.AnalysisResult{
			RiskLevel:      domain.RiskHigh,
			DemandForecast: demand.InexactFloat64(),
			Recommendation: fmt.Sprintf("IMMEDIATE ACTION: Dispatch %s units of %s to %s. Request urgent resupply.",
				dispatch.String(), item.Name, hotspot.Name),
			Reasoning: fmt.Sprintf("Detected %d reports of %s in %s. %s stock (%d) is below its critical threshold of %d; correlated %s shortage.",
				signal, rule.Symptom, hotspot.Name, item.Name, item.Stock, item.CriticalThreshold, strings.ToLower(item.Category)),
			TargetedMedicine: item.Name,
			AffectedArea:     hotspot.Name,
			ConfidenceScore:  confidence(0.8),
		}, true
	}
	return domain.AnalysisResult{}, false
}

func (e *Estimator) resupply(item domain.Medicine) domain.AnalysisResult {
	demand := nonNegative(decimal.NewFromInt(int64(item.Stock)).Mul(e.cfg.ResupplyMultiplier))

	return domain.AnalysisResult{
		RiskLevel:      domain.RiskMedium,
		DemandForecast: demand.InexactFloat64(),
		Recommendation: fmt.Sprintf("Schedule resupply for %s.", item.Name),
		Reasoning: fmt.Sprintf("%s stock (%d) is below safety threshold of %d, a shortfall of %d units.",
			item.Name, item.Stock, item.CriticalThreshold, item.CriticalThreshold-item.Stock),
		TargetedMedicine: item.Name,
		AffectedArea:     CentralWarehouse,
		ConfidenceScore:  confidence(0.7),
	}
}

func (e *Estimator) baseline() domain.AnalysisResult {
	return domain.AnalysisResult{
		RiskLevel:        domain.RiskLow,
		DemandForecast:   float64(max(e.cfg.BaselineDemand, 0)),
		Recommendation:   "Monitor situation. Stock levels are adequate for current seasonal trends.",
		Reasoning:        "Community reports are baseline. No anomalous symptom clusters detected.",
		TargetedMedicine: GeneralMedicine,
		AffectedArea:     GlobalArea,
		ConfidenceScore:  confidence(0.6),
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func confidence(v float64) *float64 {
	return &v
}
