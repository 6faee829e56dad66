package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
)

// CapacityInput sets a supplier's daily capacity for one medicine
type CapacityInput struct {
	MedicineID string `json:"medicineId" validate:"required"`
	Capacity   int    `json:"capacity" validate:"gte=0"`
}

// SupplierService manages suppliers and their committed capacities
type SupplierService struct {
	repo domain.SupplierRepository
	log  logrus.FieldLogger
	mu   sync.Mutex
}

// NewSupplierService creates a new supplier service
func NewSupplierService(repo domain.SupplierRepository, log logrus.FieldLogger) *SupplierService {
	return &SupplierService{repo: repo, log: log}
}

// List returns all suppliers
func (s *SupplierService) List(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("supplier: failed to list suppliers: %w", err)
	}
	if suppliers == nil {
		suppliers = []domain.Supplier{}
	}
	return suppliers, nil
}

// UpdateCapacity sets the capacity of an existing supplier for one medicine
func (s *SupplierService) UpdateCapacity(ctx context.Context, supplierID string, in CapacityInput) (domain.Supplier, error) {
	in.MedicineID = strings.TrimSpace(in.MedicineID)
	if err := validateInput(in); err != nil {
		return domain.Supplier{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sup, err := s.repo.GetSupplier(ctx, supplierID)
	if err != nil {
		return domain.Supplier{}, err
	}

	sup = sup.Clone()
	sup.Capacity[in.MedicineID] = in.Capacity
	if err := s.repo.UpsertSupplier(ctx, sup); err != nil {
		return domain.Supplier{}, fmt.Errorf("supplier: failed to update capacity: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"supplier": sup.ID,
		"medicine": in.MedicineID,
		"capacity": in.Capacity,
	}).Info("supplier capacity updated")
	return sup, nil
}
