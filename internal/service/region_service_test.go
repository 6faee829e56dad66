package service

import (
	"context"
	"testing"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/forecast"
	"github.com/medsupply/backend/internal/repository/memory"
)

func appendReports(t *testing.T, store *memory.Store, cityID, districtID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := store.AppendReport(context.Background(), domain.SymptomReport{
			ID:         cityID + "-" + string(rune('a'+i)),
			CityID:     cityID,
			DistrictID: districtID,
			Symptoms:   []string{"Fever"},
			Severity:   5,
		})
		if err != nil {
			t.Fatalf("Failed to append report: %v", err)
		}
	}
}

func TestRegionService_RegionalRisk(t *testing.T) {
	store := newSeededStore()
	appendReports(t, store, "city-01", "dist-01", 3)
	appendReports(t, store, "city-02", "dist-01", 4)

	svc := NewRegionService(store, forecast.DefaultThresholds, 15)
	stats, err := svc.RegionalRisk(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	byID := make(map[string]domain.RegionStats, len(stats))
	for _, s := range stats {
		byID[s.ID] = s
	}

	tests := []struct {
		id     string
		count  int
		risk   domain.RiskLevel
		active int
	}{
		{"city-01", 3, domain.RiskMedium, 45},
		{"city-02", 4, domain.RiskMedium, 60},
		{"dist-01", 7, domain.RiskHigh, 105},
		{"dist-02", 0, domain.RiskLow, 0},
		{"state-01", 7, domain.RiskHigh, 105},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s, ok := byID[tt.id]
			if !ok {
				t.Fatalf("Expected area %s in result", tt.id)
			}
			if s.CaseCount != tt.count || s.Risk != tt.risk || s.ActiveCases != tt.active {
				t.Errorf("Expected %d/%s/%d, got %d/%s/%d", tt.count, tt.risk, tt.active, s.CaseCount, s.Risk, s.ActiveCases)
			}
		})
	}

	if stats[0].ID != "state-01" {
		t.Errorf("Expected hierarchy order, got first %s", stats[0].ID)
	}
}

func TestRegionService_Forecasts(t *testing.T) {
	store := newSeededStore()
	appendReports(t, store, "city-03", "dist-02", 2)

	svc := NewRegionService(store, forecast.DefaultThresholds, 15)
	forecasts, err := svc.Forecasts(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(forecasts) != 7 {
		t.Fatalf("Expected 7 forecasts, got %d", len(forecasts))
	}
	if forecasts[0].AreaID != "state-01" || forecasts[0].PredictedDemand != 30 {
		t.Errorf("Expected statewide demand 30, got %+v", forecasts[0])
	}
}
