package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
)

// DashboardService aggregates the command dashboard view
type DashboardService struct {
	inventory *InventoryService
	regions   *RegionService
	analysis  *AnalysisService
	log       logrus.FieldLogger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	inventory *InventoryService,
	regions *RegionService,
	analysis *AnalysisService,
	log logrus.FieldLogger,
) *DashboardService {
	return &DashboardService{
		inventory: inventory,
		regions:   regions,
		analysis:  analysis,
		log:       log,
	}
}

// GetDashboardData fetches the inventory summary and regional risk concurrently
// and attaches the latest analysis if one has been published
func (s *DashboardService) GetDashboardData(ctx context.Context) (domain.DashboardData, error) {
	var (
		summary domain.InventorySummary
		regions []domain.RegionStats
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    []error
	)

	// Fetch inventory summary concurrently
	wg.Add(1)
	go func() {
		defer wg.Done()
		sum, err := s.inventory.Summary(ctx)
		mu.Lock()
		if err != nil {
			errs = append(errs, err)
		} else {
			summary = sum
		}
		mu.Unlock()
	}()

	// Fetch regional risk concurrently
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err := s.regions.RegionalRisk(ctx)
		mu.Lock()
		if err != nil {
			errs = append(errs, err)
		} else {
			regions = r
		}
		mu.Unlock()
	}()

	wg.Wait()

	// Log any errors that occurred
	for _, err := range errs {
		s.log.WithError(err).Warn("dashboard data fetch error")
	}

	if regions == nil {
		regions = []domain.RegionStats{}
	}
	data := domain.DashboardData{
		Inventory: summary,
		Regions:   regions,
		Timestamp: time.Now(),
	}
	if a, ok := s.analysis.Latest(); ok {
		data.Analysis = &a
	}

	// Even with errors, return what we have
	return data, nil
}
