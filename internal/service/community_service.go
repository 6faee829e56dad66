package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/forecast"
	"github.com/medsupply/backend/pkg/utils"
)

// NewReportInput is an anonymous symptom report as submitted by the community
type NewReportInput struct {
	CityID   string   `json:"cityId" form:"cityId" validate:"required"`
	Symptoms []string `json:"symptoms" form:"symptoms" validate:"min=1"`
	Severity int      `json:"severity" form:"severity"`
}

// CommunityService accepts symptom reports and serves the area hierarchy
type CommunityService struct {
	reports domain.ReportRepository
	areas   domain.AreaRepository
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewCommunityService creates a new community service
func NewCommunityService(reports domain.ReportRepository, areas domain.AreaRepository, log logrus.FieldLogger) *CommunityService {
	return &CommunityService{
		reports: reports,
		areas:   areas,
		log:     log,
		now:     time.Now,
	}
}

// Areas returns the static hierarchy
func (s *CommunityService) Areas(ctx context.Context) ([]domain.Area, error) {
	areas, err := s.areas.ListAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("community: failed to list areas: %w", err)
	}
	return areas, nil
}

// SubmitReport validates and appends a report. The district is derived from
// the city; an unknown city is rejected before anything is stored.
func (s *CommunityService) SubmitReport(ctx context.Context, in NewReportInput) (domain.SymptomReport, error) {
	in.CityID = strings.TrimSpace(in.CityID)
	in.Symptoms = normalizeSymptoms(in.Symptoms)
	if err := validateInput(in); err != nil {
		return domain.SymptomReport{}, err
	}

	areas, err := s.Areas(ctx)
	if err != nil {
		return domain.SymptomReport{}, err
	}
	h := forecast.NewHierarchy(areas)

	city, ok := h.Area(in.CityID)
	if !ok || city.Type != domain.AreaCity {
		return domain.SymptomReport{}, domain.NewValidationError("cityId", "unknown_city")
	}
	district, ok := h.DistrictOf(city.ID)
	if !ok {
		return domain.SymptomReport{}, domain.NewValidationError("cityId", "no_district")
	}

	report := domain.SymptomReport{
		ID:         uuid.NewString(),
		CityID:     city.ID,
		DistrictID: district.ID,
		Symptoms:   in.Symptoms,
		Severity:   utils.ClampInt(in.Severity, domain.MinSeverity, domain.MaxSeverity),
		Timestamp:  s.now().UTC(),
	}
	if err := s.reports.AppendReport(ctx, report); err != nil {
		return domain.SymptomReport{}, fmt.Errorf("community: failed to save report: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"id":       report.ID,
		"city":     report.CityID,
		"district": report.DistrictID,
		"severity": report.Severity,
	}).Info("symptom report received")
	return report, nil
}

// RecentReports returns the newest reports first; limit <= 0 returns all
func (s *CommunityService) RecentReports(ctx context.Context, limit int) ([]domain.SymptomReport, error) {
	reports, err := s.reports.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("community: failed to list reports: %w", err)
	}

	recent := lo.Reverse(append([]domain.SymptomReport(nil), reports...))
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	if recent == nil {
		recent = []domain.SymptomReport{}
	}
	return recent, nil
}

// normalizeSymptoms trims entries and drops blanks and case-insensitive duplicates
func normalizeSymptoms(symptoms []string) []string {
	trimmed := lo.FilterMap(symptoms, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
	return lo.UniqBy(trimmed, strings.ToLower)
}
