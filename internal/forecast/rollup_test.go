package forecast

import (
	"testing"

	"github.com/medsupply/backend/internal/domain"
)

func TestDemandForArea(t *testing.T) {
	h := NewHierarchy(domain.DefaultAreas())
	estimates := map[string]float64{
		"city-01": 100,
		"city-02": 50,
		"city-03": 25,
		"city-04": 5,
		// district-level entries are ignored: districts are always derived
		"dist-01": 9999,
	}

	tests := []struct {
		area string
		want float64
	}{
		{"city-01", 100},
		{"city-04", 5},
		{"dist-01", 150},
		{"dist-02", 30},
		{"state-01", 180},
		{"unknown", 0},
	}

	for _, tt := range tests {
		t.Run(tt.area, func(t *testing.T) {
			if got := h.DemandForArea(tt.area, estimates); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if got := h.StatewideDemand(estimates); got != 180 {
		t.Errorf("Expected statewide 180, got %v", got)
	}
}

func TestForecasts_GrowthRateIsShareOfReports(t *testing.T) {
	h := NewHierarchy(domain.DefaultAreas())
	reports := append(makeReports("city-01", 3), makeReports("city-04", 1)...)

	forecasts := h.Forecasts(reports, 10)

	byID := make(map[string]domain.HierarchicalForecast)
	for _, f := range forecasts {
		byID[f.AreaID] = f
	}

	tests := []struct {
		area   string
		demand float64
		growth float64
	}{
		{"state-01", 40, 1},
		{"dist-01", 30, 0.75},
		{"dist-02", 10, 0.25},
		{"city-01", 30, 0.75},
		{"city-02", 0, 0},
	}
	for _, tt := range tests {
		f, ok := byID[tt.area]
		if !ok {
			t.Fatalf("Expected forecast for %s", tt.area)
		}
		if f.PredictedDemand != tt.demand || f.GrowthRate != tt.growth {
			t.Errorf("%s: expected demand %v growth %v, got %v %v", tt.area, tt.demand, tt.growth, f.PredictedDemand, f.GrowthRate)
		}
	}

	if forecasts[0].AreaID != "state-01" {
		t.Errorf("Expected forecasts in hierarchy order, first was %s", forecasts[0].AreaID)
	}
}
