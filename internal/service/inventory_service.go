package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/pkg/utils"
)

// NewMedicineInput is the payload for registering a medicine
type NewMedicineInput struct {
	Name              string `json:"name" validate:"required"`
	Category          string `json:"category"`
	Stock             int    `json:"stock" validate:"gte=0,lte=2147483647"`
	CriticalThreshold int    `json:"criticalThreshold" validate:"gt=0,lte=2147483647"`
	Expiry            string `json:"expiry" validate:"required,datetime=2006-01-02"`
}

// InventoryService manages medicine records
type InventoryService struct {
	repo domain.MedicineRepository
	log  logrus.FieldLogger
	now  func() time.Time

	// serializes read-modify-write stock updates
	mu sync.Mutex
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repo domain.MedicineRepository, log logrus.FieldLogger) *InventoryService {
	return &InventoryService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// List returns all medicines in registration order
func (s *InventoryService) List(ctx context.Context) ([]domain.Medicine, error) {
	medicines, err := s.repo.ListMedicines(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: failed to list medicines: %w", err)
	}
	if medicines == nil {
		medicines = []domain.Medicine{}
	}
	return medicines, nil
}

// Get returns a single medicine
func (s *InventoryService) Get(ctx context.Context, id string) (domain.Medicine, error) {
	return s.repo.GetMedicine(ctx, id)
}

// AddMedicine validates and registers a new medicine. The threshold is fixed
// from here on.
func (s *InventoryService) AddMedicine(ctx context.Context, in NewMedicineInput) (domain.Medicine, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Expiry = strings.TrimSpace(in.Expiry)
	if err := validateInput(in); err != nil {
		return domain.Medicine{}, err
	}
	if in.Category == "" {
		in.Category = "General"
	}

	m := domain.Medicine{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Category:          in.Category,
		Stock:             in.Stock,
		CriticalThreshold: in.CriticalThreshold,
		Expiry:            in.Expiry,
		LastStockUpdate:   s.now().UTC(),
	}
	if err := s.repo.UpsertMedicine(ctx, m); err != nil {
		return domain.Medicine{}, fmt.Errorf("inventory: failed to save medicine: %w", err)
	}

	s.log.WithFields(logrus.Fields{"id": m.ID, "name": m.Name, "stock": m.Stock}).Info("medicine registered")
	return m, nil
}

// UpdateStock sets an absolute stock level within 0..MaxInt32, the range
// every store can hold
func (s *InventoryService) UpdateStock(ctx context.Context, id string, stock int) (domain.Medicine, error) {
	if stock < 0 {
		return domain.Medicine{}, domain.NewValidationError("stock", "gte")
	}
	if stock > math.MaxInt32 {
		return domain.Medicine{}, domain.NewValidationError("stock", "lte")
	}
	return s.mutateStock(ctx, id, func(int) int { return stock })
}

// AdjustStock applies a delta to the stock level, clamping at zero
func (s *InventoryService) AdjustStock(ctx context.Context, id string, delta int) (domain.Medicine, error) {
	return s.mutateStock(ctx, id, func(current int) int {
		return utils.ClampInt(current+delta, 0, math.MaxInt32)
	})
}

func (s *InventoryService) mutateStock(ctx context.Context, id string, next func(current int) int) (domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.repo.GetMedicine(ctx, id)
	if err != nil {
		return domain.Medicine{}, err
	}

	previous := m.Stock
	m.Stock = next(m.Stock)
	m.LastStockUpdate = s.now().UTC()
	if err := s.repo.UpsertMedicine(ctx, m); err != nil {
		return domain.Medicine{}, fmt.Errorf("inventory: failed to update stock: %w", err)
	}

	entry := s.log.WithFields(logrus.Fields{"id": m.ID, "from": previous, "to": m.Stock})
	if m.IsCritical() {
		entry.Warn("stock below critical threshold")
	} else {
		entry.Info("stock updated")
	}
	return m, nil
}

// Summary counts medicines per stock and expiry status
func (s *InventoryService) Summary(ctx context.Context) (domain.InventorySummary, error) {
	medicines, err := s.List(ctx)
	if err != nil {
		return domain.InventorySummary{}, err
	}

	now := s.now()
	summary := domain.InventorySummary{Total: len(medicines)}
	for _, m := range medicines {
		switch m.StockStatus() {
		case domain.StockCritical:
			summary.Critical++
		case domain.StockMonitor:
			summary.Monitor++
		default:
			summary.Secure++
		}

		switch m.ExpiryStatusAt(now) {
		case domain.ExpiryExpired:
			summary.Expired++
		case domain.ExpiringSoon:
			summary.ExpiringSoon++
		}
	}
	return summary, nil
}
