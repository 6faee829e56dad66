// Package forecast holds the deterministic core: the area hierarchy, the
// regional report aggregator, demand rollups and the fallback risk estimator.
// Nothing in this package performs I/O or returns errors on bad data; absent
// or malformed input degrades to empty counts and the LOW default.
package forecast

import (
	"fmt"

	"github.com/medsupply/backend/internal/domain"
)

// Hierarchy indexes the State → District → City tree
type Hierarchy struct {
	areas    []domain.Area
	byID     map[string]domain.Area
	children map[string][]string
}

// NewHierarchy indexes areas leniently: duplicate IDs keep the first entry and
// nodes whose parent is unknown behave as roots. Use ValidateAreas to enforce
// the tree invariants on reference data.
func NewHierarchy(areas []domain.Area) *Hierarchy {
	h := &Hierarchy{
		areas:    make([]domain.Area, 0, len(areas)),
		byID:     make(map[string]domain.Area, len(areas)),
		children: make(map[string][]string),
	}

	for _, a := range areas {
		if a.ID == "" {
			continue
		}
		if _, dup := h.byID[a.ID]; dup {
			continue
		}
		h.byID[a.ID] = a
		h.areas = append(h.areas, a)
	}

	for _, a := range h.areas {
		if a.ParentID == "" || a.ParentID == a.ID {
			continue
		}
		if _, ok := h.byID[a.ParentID]; ok {
			h.children[a.ParentID] = append(h.children[a.ParentID], a.ID)
		}
	}

	return h
}

// ValidateAreas checks that areas form a proper State → District → City tree
func ValidateAreas(areas []domain.Area) error {
	byID := make(map[string]domain.Area, len(areas))
	for _, a := range areas {
		if a.ID == "" {
			return fmt.Errorf("forecast: area %q has an empty id", a.Name)
		}
		if _, dup := byID[a.ID]; dup {
			return fmt.Errorf("forecast: duplicate area id %q", a.ID)
		}
		if a.Population <= 0 {
			return fmt.Errorf("forecast: area %q must have a positive population", a.ID)
		}
		byID[a.ID] = a
	}

	for _, a := range areas {
		var wantParent domain.AreaType
		switch a.Type {
		case domain.AreaState:
			if a.ParentID != "" {
				return fmt.Errorf("forecast: state %q must not have a parent", a.ID)
			}
			continue
		case domain.AreaDistrict:
			wantParent = domain.AreaState
		case domain.AreaCity:
			wantParent = domain.AreaDistrict
		default:
			return fmt.Errorf("forecast: area %q has unknown type %q", a.ID, a.Type)
		}

		parent, ok := byID[a.ParentID]
		if !ok {
			return fmt.Errorf("forecast: %s %q references unknown parent %q", a.Type, a.ID, a.ParentID)
		}
		if parent.Type != wantParent {
			return fmt.Errorf("forecast: %s %q must have a %s parent, got %s", a.Type, a.ID, wantParent, parent.Type)
		}
	}

	return nil
}

// Areas returns the indexed areas in input order
func (h *Hierarchy) Areas() []domain.Area {
	out := make([]domain.Area, len(h.areas))
	copy(out, h.areas)
	return out
}

// Area looks up an area by ID
func (h *Hierarchy) Area(id string) (domain.Area, bool) {
	a, ok := h.byID[id]
	return a, ok
}

// Parent returns the parent of an area
func (h *Hierarchy) Parent(id string) (domain.Area, bool) {
	a, ok := h.byID[id]
	if !ok || a.ParentID == "" {
		return domain.Area{}, false
	}
	p, ok := h.byID[a.ParentID]
	return p, ok
}

// Children returns the direct children of an area in input order
func (h *Hierarchy) Children(id string) []domain.Area {
	ids := h.children[id]
	out := make([]domain.Area, 0, len(ids))
	for _, cid := range ids {
		out = append(out, h.byID[cid])
	}
	return out
}

// Roots returns the areas without a known parent
func (h *Hierarchy) Roots() []domain.Area {
	var roots []domain.Area
	for _, a := range h.areas {
		if _, ok := h.Parent(a.ID); !ok {
			roots = append(roots, a)
		}
	}
	return roots
}

// DistrictOf resolves the district a city belongs to
func (h *Hierarchy) DistrictOf(cityID string) (domain.Area, bool) {
	city, ok := h.byID[cityID]
	if !ok || city.Type != domain.AreaCity {
		return domain.Area{}, false
	}
	parent, ok := h.Parent(cityID)
	if !ok || parent.Type != domain.AreaDistrict {
		return domain.Area{}, false
	}
	return parent, true
}

// Contains reports whether id is ancestorID itself or lies beneath it
func (h *Hierarchy) Contains(ancestorID, id string) bool {
	if _, ok := h.byID[id]; !ok {
		return false
	}
	// bounded walk so a malformed parent cycle cannot loop forever
	for steps := 0; steps <= len(h.areas); steps++ {
		if id == ancestorID {
			return true
		}
		a := h.byID[id]
		if a.ParentID == "" {
			return false
		}
		if _, ok := h.byID[a.ParentID]; !ok {
			return false
		}
		id = a.ParentID
	}
	return false
}
