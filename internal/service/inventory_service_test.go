package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/logging"
)

func newInventoryService() (*InventoryService, domain.Store) {
	store := newSeededStore()
	svc := NewInventoryService(store, logging.Discard())
	svc.now = fixedClock
	return svc, store
}

func TestInventoryService_AddMedicineValidation(t *testing.T) {
	tests := []struct {
		name  string
		input NewMedicineInput
		field string
	}{
		{
			name:  "blank name",
			input: NewMedicineInput{Name: "   ", Stock: 1, CriticalThreshold: 1, Expiry: "2030-01-01"},
			field: "name",
		},
		{
			name:  "negative stock",
			input: NewMedicineInput{Name: "X", Stock: -1, CriticalThreshold: 1, Expiry: "2030-01-01"},
			field: "stock",
		},
		{
			name:  "zero threshold",
			input: NewMedicineInput{Name: "X", Stock: 1, CriticalThreshold: 0, Expiry: "2030-01-01"},
			field: "criticalThreshold",
		},
		{
			name:  "invalid date",
			input: NewMedicineInput{Name: "X", Stock: 1, CriticalThreshold: 1, Expiry: "2030-13-45"},
			field: "expiry",
		},
		{
			name:  "missing date",
			input: NewMedicineInput{Name: "X", Stock: 1, CriticalThreshold: 1},
			field: "expiry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newInventoryService()
			before, _ := store.ListMedicines(context.Background())

			_, err := svc.AddMedicine(context.Background(), tt.input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("Expected field %q to be rejected, got %v", tt.field, verr.Fields)
			}

			after, _ := store.ListMedicines(context.Background())
			if len(after) != len(before) {
				t.Errorf("Expected no medicine stored, got %d -> %d", len(before), len(after))
			}
		})
	}
}

func TestInventoryService_AddMedicine(t *testing.T) {
	svc, store := newInventoryService()

	m, err := svc.AddMedicine(context.Background(), NewMedicineInput{
		Name: " Oseltamivir ", Stock: 40, CriticalThreshold: 100, Expiry: "2027-06-30",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.ID == "" || m.Name != "Oseltamivir" || m.Category != "General" {
		t.Errorf("Expected trimmed name, generated id and default category, got %+v", m)
	}
	if !m.LastStockUpdate.Equal(testNow) {
		t.Errorf("Expected lastStockUpdate %v, got %v", testNow, m.LastStockUpdate)
	}

	all, _ := store.ListMedicines(context.Background())
	if all[len(all)-1].ID != m.ID {
		t.Errorf("Expected new medicine appended last")
	}
}

func TestInventoryService_UpdateStock(t *testing.T) {
	svc, _ := newInventoryService()
	ctx := context.Background()

	m, err := svc.UpdateStock(ctx, "3", 3500)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.Stock != 3500 || m.IsCritical() {
		t.Errorf("Expected stock 3500 and not critical, got %+v", m)
	}

	if _, err := svc.UpdateStock(ctx, "3", -5); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected validation error for negative stock, got %v", err)
	}
	if _, err := svc.UpdateStock(ctx, "missing", 5); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestInventoryService_UpdateStockBounds(t *testing.T) {
	tests := []struct {
		name  string
		stock int
		rule  string
	}{
		{"negative", -1, "gte"},
		{"above int32", math.MaxInt32 + 1, "lte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newInventoryService()
			_, err := svc.UpdateStock(context.Background(), "3", tt.stock)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Fields["stock"] != tt.rule {
				t.Fatalf("Expected stock %s validation error, got %v", tt.rule, err)
			}
			m, _ := store.GetMedicine(context.Background(), "3")
			if m.Stock != 2000 {
				t.Errorf("Expected stock unchanged at 2000, got %d", m.Stock)
			}
		})
	}

	svc, _ := newInventoryService()
	m, err := svc.UpdateStock(context.Background(), "3", math.MaxInt32)
	if err != nil || m.Stock != math.MaxInt32 {
		t.Errorf("Expected MaxInt32 accepted, got %d %v", m.Stock, err)
	}
}

func TestInventoryService_AdjustStockClampsAtZero(t *testing.T) {
	tests := []struct {
		name  string
		delta int
		want  int
	}{
		{"restock", 500, 2500},
		{"dispense", -500, 1500},
		{"overdraw", -99999, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newInventoryService()
			m, err := svc.AdjustStock(context.Background(), "3", tt.delta)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if m.Stock != tt.want {
				t.Errorf("Expected stock %d, got %d", tt.want, m.Stock)
			}
		})
	}
}

func TestInventoryService_Summary(t *testing.T) {
	svc, _ := newInventoryService()
	ctx := context.Background()

	if _, err := svc.AddMedicine(ctx, NewMedicineInput{
		Name: "Zinc", Stock: 150, CriticalThreshold: 100, Expiry: "2025-03-20",
	}); err != nil {
		t.Fatalf("Failed to add medicine: %v", err)
	}

	sum, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := domain.InventorySummary{Total: 5, Critical: 1, Monitor: 1, Secure: 3, Expired: 1, ExpiringSoon: 1}
	if sum != want {
		t.Errorf("Expected %+v, got %+v", want, sum)
	}
}
