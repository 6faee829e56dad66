package service

import (
	"context"
	"fmt"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/forecast"
)

// RegionSource is what the regional views read from
type RegionSource interface {
	domain.AreaRepository
	domain.ReportRepository
}

// RegionService builds the regional risk and forecast views
type RegionService struct {
	repo         RegionSource
	thresholds   forecast.Thresholds
	unitsPerCase int
}

// NewRegionService creates a region service with the given tiers and case multiplier
func NewRegionService(repo RegionSource, thresholds forecast.Thresholds, unitsPerCase int) *RegionService {
	return &RegionService{
		repo:         repo,
		thresholds:   thresholds,
		unitsPerCase: unitsPerCase,
	}
}

// RegionalRisk returns every area with its rolled-up case count and tier, in
// hierarchy order. Active cases are scaled by the case multiplier.
func (s *RegionService) RegionalRisk(ctx context.Context) ([]domain.RegionStats, error) {
	h, reports, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	risk := h.Aggregate(reports, s.thresholds)
	stats := make([]domain.RegionStats, 0, len(risk))
	for _, a := range h.Areas() {
		r := risk[a.ID]
		stats = append(stats, domain.RegionStats{
			ID:          a.ID,
			Name:        a.Name,
			Type:        a.Type,
			Risk:        r.RiskTier,
			CaseCount:   r.CaseCount,
			ActiveCases: r.CaseCount * s.unitsPerCase,
		})
	}
	return stats, nil
}

// Forecasts returns the local hierarchical demand forecast for every area
func (s *RegionService) Forecasts(ctx context.Context) ([]domain.HierarchicalForecast, error) {
	h, reports, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return h.Forecasts(reports, s.unitsPerCase), nil
}

func (s *RegionService) snapshot(ctx context.Context) (*forecast.Hierarchy, []domain.SymptomReport, error) {
	areas, err := s.repo.ListAreas(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("region: failed to list areas: %w", err)
	}
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("region: failed to list reports: %w", err)
	}
	return forecast.NewHierarchy(areas), reports, nil
}
