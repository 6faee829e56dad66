package domain

import "context"

// MedicineRepository stores medicine records in registration order
type MedicineRepository interface {
	// ListMedicines returns all medicines in registration order
	ListMedicines(ctx context.Context) ([]Medicine, error)

	// GetMedicine returns ErrNotFound for unknown IDs
	GetMedicine(ctx context.Context, id string) (Medicine, error)

	// UpsertMedicine inserts a new medicine or replaces an existing one
	UpsertMedicine(ctx context.Context, m Medicine) error
}

// ReportRepository is an append-only log of symptom reports
type ReportRepository interface {
	// ListReports returns all reports in submission order
	ListReports(ctx context.Context) ([]SymptomReport, error)

	// GetReport returns ErrNotFound for unknown IDs
	GetReport(ctx context.Context, id string) (SymptomReport, error)

	// AppendReport adds a report to the log
	AppendReport(ctx context.Context, r SymptomReport) error
}

// SupplierRepository stores suppliers and their capacities
type SupplierRepository interface {
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	UpsertSupplier(ctx context.Context, s Supplier) error
}

// AreaRepository serves the static area hierarchy
type AreaRepository interface {
	ListAreas(ctx context.Context) ([]Area, error)
}

// AnalysisLogRepository records completed analysis runs
type AnalysisLogRepository interface {
	SaveAnalysisLog(ctx context.Context, a Analysis) error
}

// Store is the full persistence surface the service layer depends on.
// The domain defines it; repository packages implement it.
type Store interface {
	MedicineRepository
	ReportRepository
	SupplierRepository
	AreaRepository
	AnalysisLogRepository

	// Health checks backend connectivity
	Health(ctx context.Context) error
}
