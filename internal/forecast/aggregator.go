package forecast

import (
	"github.com/medsupply/backend/internal/domain"
)

// Thresholds are the case-count cut-offs for regional risk tiers:
// count > High is HIGH, count > Medium is MEDIUM, anything else LOW
type Thresholds struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// DefaultThresholds are the regional tier cut-offs used by the dashboard
var DefaultThresholds = Thresholds{High: 5, Medium: 2}

// Tier maps a case count to a risk tier
func (t Thresholds) Tier(count int) domain.RiskLevel {
	switch {
	case count > t.High:
		return domain.RiskHigh
	case count > t.Medium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// AreaRisk is the aggregated case count and tier of one area
type AreaRisk struct {
	CaseCount int              `json:"caseCount"`
	RiskTier  domain.RiskLevel `json:"riskTier"`
}

// AggregateByArea counts reports per area with the default thresholds
func AggregateByArea(reports []domain.SymptomReport, areas []domain.Area) map[string]AreaRisk {
	return NewHierarchy(areas).Aggregate(reports, DefaultThresholds)
}

// Aggregate counts reports per city and sums them up through districts and
// states. Every area of the hierarchy is present in the result; reports whose
// city is unknown are ignored.
func (h *Hierarchy) Aggregate(reports []domain.SymptomReport, t Thresholds) map[string]AreaRisk {
	counts := h.CaseCounts(reports)

	out := make(map[string]AreaRisk, len(counts))
	for id, c := range counts {
		out[id] = AreaRisk{CaseCount: c, RiskTier: t.Tier(c)}
	}
	return out
}

// CaseCounts returns the rolled-up report count for every area
func (h *Hierarchy) CaseCounts(reports []domain.SymptomReport) map[string]int {
	leaf := make(map[string]int)
	for _, r := range reports {
		if a, ok := h.byID[r.CityID]; ok && a.Type == domain.AreaCity {
			leaf[r.CityID]++
		}
	}

	counts := make(map[string]int, len(h.areas))
	visiting := make(map[string]bool)

	var count func(id string) int
	count = func(id string) int {
		if c, done := counts[id]; done {
			return c
		}
		if visiting[id] {
			return 0
		}
		visiting[id] = true
		defer delete(visiting, id)

		var c int
		if h.byID[id].Type == domain.AreaCity {
			c = leaf[id]
		} else {
			for _, cid := range h.children[id] {
				c += count(cid)
			}
		}
		counts[id] = c
		return c
	}

	for _, a := range h.areas {
		count(a.ID)
	}
	return counts
}
