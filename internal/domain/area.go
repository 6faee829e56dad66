package domain

// AreaType is the tier of an area in the State → District → City tree
type AreaType string

const (
	AreaState    AreaType = "STATE"
	AreaDistrict AreaType = "DISTRICT"
	AreaCity     AreaType = "CITY"
)

// Area is a node of the static area hierarchy
type Area struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       AreaType `json:"type"`
	ParentID   string   `json:"parentId,omitempty"`
	Population int      `json:"population"`
}

// RegionStats is the regional risk view of one area
type RegionStats struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        AreaType  `json:"type"`
	Risk        RiskLevel `json:"risk"`
	CaseCount   int       `json:"caseCount"`
	ActiveCases int       `json:"activeCases"`
}
