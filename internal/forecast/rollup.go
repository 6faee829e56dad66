package forecast

import (
	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/pkg/utils"
)

// DemandForArea returns the leaf estimate for a city and the sum of the
// children's demand for districts and states. Each city is counted once, so
// rollups are strictly additive up the tree. Unknown areas have no demand.
func (h *Hierarchy) DemandForArea(areaID string, estimates map[string]float64) float64 {
	return h.demandForArea(areaID, estimates, make(map[string]bool))
}

func (h *Hierarchy) demandForArea(areaID string, estimates map[string]float64, seen map[string]bool) float64 {
	a, ok := h.byID[areaID]
	if !ok || seen[areaID] {
		return 0
	}
	if a.Type == domain.AreaCity {
		return estimates[areaID]
	}

	seen[areaID] = true
	var total float64
	for _, cid := range h.children[areaID] {
		total += h.demandForArea(cid, estimates, seen)
	}
	return total
}

// CityDemand turns case counts into leaf demand estimates
func (h *Hierarchy) CityDemand(counts map[string]int, unitsPerCase int) map[string]float64 {
	out := make(map[string]float64)
	for _, a := range h.areas {
		if a.Type != domain.AreaCity {
			continue
		}
		out[a.ID] = float64(counts[a.ID] * unitsPerCase)
	}
	return out
}

// Forecasts builds the per-area forecast list in hierarchy order. Growth rate
// is the area's share of all counted reports.
func (h *Hierarchy) Forecasts(reports []domain.SymptomReport, unitsPerCase int) []domain.HierarchicalForecast {
	counts := h.CaseCounts(reports)
	leaf := h.CityDemand(counts, unitsPerCase)

	total := 0
	for _, r := range h.Roots() {
		total += counts[r.ID]
	}

	out := make([]domain.HierarchicalForecast, 0, len(h.areas))
	for _, a := range h.areas {
		var growth float64
		if total > 0 {
			growth = utils.RoundTo(float64(counts[a.ID])/float64(total), 2)
		}
		out = append(out, domain.HierarchicalForecast{
			AreaID:          a.ID,
			AreaName:        a.Name,
			AreaType:        a.Type,
			PredictedDemand: h.DemandForArea(a.ID, leaf),
			GrowthRate:      growth,
		})
	}
	return out
}

// StatewideDemand sums the demand of every root area
func (h *Hierarchy) StatewideDemand(estimates map[string]float64) float64 {
	var total float64
	for _, r := range h.Roots() {
		total += h.DemandForArea(r.ID, estimates)
	}
	return total
}
