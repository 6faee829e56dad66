package forecast

import (
	"testing"

	"github.com/medsupply/backend/internal/domain"
)

func TestValidateAreas_DefaultHierarchy(t *testing.T) {
	if err := ValidateAreas(domain.DefaultAreas()); err != nil {
		t.Fatalf("Expected default areas to be valid, got %v", err)
	}
}

func TestValidateAreas_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		areas []domain.Area
	}{
		{
			name: "state_with_parent",
			areas: []domain.Area{
				{ID: "s1", Type: domain.AreaState, Population: 10},
				{ID: "s2", Type: domain.AreaState, ParentID: "s1", Population: 10},
			},
		},
		{
			name: "city_under_state",
			areas: []domain.Area{
				{ID: "s1", Type: domain.AreaState, Population: 10},
				{ID: "c1", Type: domain.AreaCity, ParentID: "s1", Population: 10},
			},
		},
		{
			name: "unknown_parent",
			areas: []domain.Area{
				{ID: "d1", Type: domain.AreaDistrict, ParentID: "missing", Population: 10},
			},
		},
		{
			name: "duplicate_id",
			areas: []domain.Area{
				{ID: "s1", Type: domain.AreaState, Population: 10},
				{ID: "s1", Type: domain.AreaState, Population: 10},
			},
		},
		{
			name: "zero_population",
			areas: []domain.Area{
				{ID: "s1", Type: domain.AreaState, Population: 0},
			},
		},
		{
			name: "unknown_type",
			areas: []domain.Area{
				{ID: "x1", Type: "REGION", Population: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateAreas(tt.areas); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestHierarchy_Navigation(t *testing.T) {
	h := NewHierarchy(domain.DefaultAreas())

	district, ok := h.DistrictOf("city-03")
	if !ok || district.ID != "dist-02" {
		t.Fatalf("Expected city-03 to resolve to dist-02, got %q (ok=%v)", district.ID, ok)
	}

	if _, ok := h.DistrictOf("dist-01"); ok {
		t.Errorf("Expected DistrictOf to reject a district id")
	}
	if _, ok := h.DistrictOf("nowhere"); ok {
		t.Errorf("Expected DistrictOf to reject an unknown id")
	}

	children := h.Children("dist-01")
	if len(children) != 2 || children[0].ID != "city-01" || children[1].ID != "city-02" {
		t.Errorf("Expected dist-01 children [city-01 city-02], got %+v", children)
	}

	roots := h.Roots()
	if len(roots) != 1 || roots[0].ID != "state-01" {
		t.Errorf("Expected single root state-01, got %+v", roots)
	}

	containsTests := []struct {
		ancestor, id string
		want         bool
	}{
		{"state-01", "city-04", true},
		{"dist-01", "city-01", true},
		{"dist-01", "city-03", false},
		{"city-01", "city-01", true},
		{"city-01", "dist-01", false},
		{"state-01", "unknown", false},
	}
	for _, tt := range containsTests {
		if got := h.Contains(tt.ancestor, tt.id); got != tt.want {
			t.Errorf("Contains(%s, %s): expected %v, got %v", tt.ancestor, tt.id, tt.want, got)
		}
	}
}

func TestHierarchy_CycleIsBounded(t *testing.T) {
	h := NewHierarchy([]domain.Area{
		{ID: "a", Type: domain.AreaDistrict, ParentID: "b", Population: 1},
		{ID: "b", Type: domain.AreaDistrict, ParentID: "a", Population: 1},
	})

	if h.Contains("zzz", "a") {
		t.Errorf("Expected cyclic walk to terminate without a match")
	}
	counts := h.CaseCounts(nil)
	if counts["a"] != 0 || counts["b"] != 0 {
		t.Errorf("Expected zero counts in a cycle, got %v", counts)
	}
	if d := h.DemandForArea("a", map[string]float64{"a": 5}); d != 0 {
		t.Errorf("Expected zero demand in a district cycle, got %v", d)
	}
}
