package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medsupply/backend/internal/domain"
)

// Store implements domain.Store in process memory for tests and demo mode
type Store struct {
	mu        sync.RWMutex
	medicines []domain.Medicine
	reports   []domain.SymptomReport
	suppliers []domain.Supplier
	areas     []domain.Area
	logs      []domain.Analysis
}

// Verify interface compliance
var _ domain.Store = (*Store)(nil)

// NewStore creates an empty store over the given static areas
func NewStore(areas []domain.Area) *Store {
	return &Store{areas: append([]domain.Area(nil), areas...)}
}

// NewSeededStore creates a store holding the default demo data
func NewSeededStore(now time.Time) *Store {
	s := NewStore(domain.DefaultAreas())
	s.medicines = domain.DefaultMedicines(now)
	s.suppliers = domain.DefaultSuppliers()
	return s
}

// ListMedicines returns medicines in registration order
func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Medicine(nil), s.medicines...), nil
}

// GetMedicine returns a medicine by ID
func (s *Store) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.medicines {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Medicine{}, fmt.Errorf("memory: medicine %q: %w", id, domain.ErrNotFound)
}

// UpsertMedicine replaces a medicine in place or appends a new one
func (s *Store) UpsertMedicine(ctx context.Context, m domain.Medicine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.medicines {
		if s.medicines[i].ID == m.ID {
			s.medicines[i] = m
			return nil
		}
	}
	s.medicines = append(s.medicines, m)
	return nil
}

// ListReports returns reports in submission order
func (s *Store) ListReports(ctx context.Context) ([]domain.SymptomReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SymptomReport, len(s.reports))
	for i, r := range s.reports {
		out[i] = cloneReport(r)
	}
	return out, nil
}

// GetReport returns a report by ID
func (s *Store) GetReport(ctx context.Context, id string) (domain.SymptomReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return cloneReport(r), nil
		}
	}
	return domain.SymptomReport{}, fmt.Errorf("memory: report %q: %w", id, domain.ErrNotFound)
}

// AppendReport adds a report to the log
func (s *Store) AppendReport(ctx context.Context, r domain.SymptomReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, cloneReport(r))
	return nil
}

// ListSuppliers returns suppliers in registration order
func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Supplier, len(s.suppliers))
	for i, sup := range s.suppliers {
		out[i] = sup.Clone()
	}
	return out, nil
}

// GetSupplier returns a supplier by ID
func (s *Store) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sup := range s.suppliers {
		if sup.ID == id {
			return sup.Clone(), nil
		}
	}
	return domain.Supplier{}, fmt.Errorf("memory: supplier %q: %w", id, domain.ErrNotFound)
}

// UpsertSupplier replaces a supplier in place or appends a new one
func (s *Store) UpsertSupplier(ctx context.Context, sup domain.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.suppliers {
		if s.suppliers[i].ID == sup.ID {
			s.suppliers[i] = sup.Clone()
			return nil
		}
	}
	s.suppliers = append(s.suppliers, sup.Clone())
	return nil
}

// ListAreas returns the static hierarchy
func (s *Store) ListAreas(ctx context.Context) ([]domain.Area, error) {
	return append([]domain.Area(nil), s.areas...), nil
}

// SaveAnalysisLog keeps the analysis in memory
func (s *Store) SaveAnalysisLog(ctx context.Context, a domain.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, a)
	return nil
}

// AnalysisLogs returns the recorded analyses, oldest first
func (s *Store) AnalysisLogs() []domain.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Analysis(nil), s.logs...)
}

// Health always returns nil in memory mode
func (s *Store) Health(ctx context.Context) error {
	return nil
}

func cloneReport(r domain.SymptomReport) domain.SymptomReport {
	r.Symptoms = append([]string(nil), r.Symptoms...)
	return r
}
