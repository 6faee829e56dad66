package domain

import (
	"strings"
	"time"
)

// Severity bounds for symptom reports
const (
	MinSeverity = 1
	MaxSeverity = 10
)

// SymptomReport is an anonymous community symptom report tagged by city.
// Reports are immutable once submitted.
type SymptomReport struct {
	ID         string    `json:"id"`
	CityID     string    `json:"cityId"`
	DistrictID string    `json:"districtId"`
	Symptoms   []string  `json:"symptoms"`
	Severity   int       `json:"severity"`
	Timestamp  time.Time `json:"timestamp"`
}

// HasSymptom reports whether the report lists the symptom (case-insensitive)
func (r SymptomReport) HasSymptom(symptom string) bool {
	for _, s := range r.Symptoms {
		if strings.EqualFold(strings.TrimSpace(s), symptom) {
			return true
		}
	}
	return false
}
