package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medsupply/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS medicines (
	seq                BIGSERIAL,
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	category           TEXT NOT NULL,
	stock              INTEGER NOT NULL CHECK (stock >= 0),
	critical_threshold INTEGER NOT NULL,
	expiry             TEXT NOT NULL,
	forecasted_demand  INTEGER,
	last_stock_update  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS symptom_reports (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	city_id     TEXT NOT NULL,
	district_id TEXT NOT NULL,
	symptoms    TEXT[] NOT NULL,
	severity    INTEGER NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS suppliers (
	seq      BIGSERIAL,
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	location TEXT NOT NULL,
	capacity JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_logs (
	id              BIGSERIAL PRIMARY KEY,
	incident_type   TEXT NOT NULL,
	source          TEXT NOT NULL,
	provider        TEXT,
	fallback_reason TEXT,
	risk_level      TEXT NOT NULL,
	result          JSONB NOT NULL,
	generated_at    TIMESTAMPTZ NOT NULL
);
`

// PostgresRepository implements domain.Store on PostgreSQL
type PostgresRepository struct {
	pool  *pgxpool.Pool
	areas []domain.Area
}

// Verify interface compliance
var _ domain.Store = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository.
// Areas are static and served from memory.
func NewPostgresRepository(pool *pgxpool.Pool, areas []domain.Area) *PostgresRepository {
	return &PostgresRepository{pool: pool, areas: append([]domain.Area(nil), areas...)}
}

// EnsureSchema creates the tables if they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// Seed inserts the defaults into empty medicine and supplier tables
func (r *PostgresRepository) Seed(ctx context.Context, medicines []domain.Medicine, suppliers []domain.Supplier) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medicines`).Scan(&count); err != nil {
		return fmt.Errorf("postgres: failed to count medicines: %w", err)
	}
	if count == 0 {
		for _, m := range medicines {
			if err := r.UpsertMedicine(ctx, m); err != nil {
				return err
			}
		}
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`).Scan(&count); err != nil {
		return fmt.Errorf("postgres: failed to count suppliers: %w", err)
	}
	if count == 0 {
		for _, s := range suppliers {
			if err := r.UpsertSupplier(ctx, s); err != nil {
				return err
			}
		}
	}
	return nil
}

const medicineColumns = `id, name, category, stock, critical_threshold, expiry, forecasted_demand, last_stock_update`

// ListMedicines returns medicines in registration order
func (r *PostgresRepository) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+medicineColumns+` FROM medicines ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query medicines: %w", err)
	}
	defer rows.Close()

	var results []domain.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan medicine row: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read medicines: %w", err)
	}
	return results, nil
}

// GetMedicine returns a medicine by ID
func (r *PostgresRepository) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)
	m, err := scanMedicine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Medicine{}, fmt.Errorf("postgres: medicine %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("postgres: failed to get medicine: %w", err)
	}
	return m, nil
}

// UpsertMedicine inserts a medicine or replaces it, keeping its original position
func (r *PostgresRepository) UpsertMedicine(ctx context.Context, m domain.Medicine) error {
	query := `
		INSERT INTO medicines (` + medicineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			stock = EXCLUDED.stock,
			critical_threshold = EXCLUDED.critical_threshold,
			expiry = EXCLUDED.expiry,
			forecasted_demand = EXCLUDED.forecasted_demand,
			last_stock_update = EXCLUDED.last_stock_update
	`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Name, m.Category, m.Stock, m.CriticalThreshold, m.Expiry, m.ForecastedDemand, m.LastStockUpdate,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save medicine: %w", err)
	}
	return nil
}

const reportColumns = `id, city_id, district_id, symptoms, severity, timestamp`

// ListReports returns reports in submission order
func (r *PostgresRepository) ListReports(ctx context.Context) ([]domain.SymptomReport, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reportColumns+` FROM symptom_reports ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query reports: %w", err)
	}
	defer rows.Close()

	var results []domain.SymptomReport
	for rows.Next() {
		var rep domain.SymptomReport
		if err := rows.Scan(&rep.ID, &rep.CityID, &rep.DistrictID, &rep.Symptoms, &rep.Severity, &rep.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan report row: %w", err)
		}
		results = append(results, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read reports: %w", err)
	}
	return results, nil
}

// GetReport returns a report by ID
func (r *PostgresRepository) GetReport(ctx context.Context, id string) (domain.SymptomReport, error) {
	var rep domain.SymptomReport
	err := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM symptom_reports WHERE id = $1`, id).
		Scan(&rep.ID, &rep.CityID, &rep.DistrictID, &rep.Symptoms, &rep.Severity, &rep.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SymptomReport{}, fmt.Errorf("postgres: report %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.SymptomReport{}, fmt.Errorf("postgres: failed to get report: %w", err)
	}
	return rep, nil
}

// AppendReport persists a symptom report
func (r *PostgresRepository) AppendReport(ctx context.Context, rep domain.SymptomReport) error {
	query := `INSERT INTO symptom_reports (` + reportColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	symptoms := rep.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	_, err := r.pool.Exec(ctx, query, rep.ID, rep.CityID, rep.DistrictID, symptoms, rep.Severity, rep.Timestamp)
	if err != nil {
		return fmt.Errorf("postgres: failed to save report: %w", err)
	}
	return nil
}

// ListSuppliers returns suppliers in registration order
func (r *PostgresRepository) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, location, capacity FROM suppliers ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var results []domain.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan supplier row: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read suppliers: %w", err)
	}
	return results, nil
}

// GetSupplier returns a supplier by ID
func (r *PostgresRepository) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, location, capacity FROM suppliers WHERE id = $1`, id)
	s, err := scanSupplier(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Supplier{}, fmt.Errorf("postgres: supplier %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Supplier{}, fmt.Errorf("postgres: failed to get supplier: %w", err)
	}
	return s, nil
}

// UpsertSupplier inserts a supplier or replaces it
func (r *PostgresRepository) UpsertSupplier(ctx context.Context, s domain.Supplier) error {
	capacity, err := json.Marshal(s.Capacity)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal capacity: %w", err)
	}

	query := `
		INSERT INTO suppliers (id, name, location, capacity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			location = EXCLUDED.location,
			capacity = EXCLUDED.capacity
	`
	if _, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.Location, capacity); err != nil {
		return fmt.Errorf("postgres: failed to save supplier: %w", err)
	}
	return nil
}

// ListAreas returns the static hierarchy
func (r *PostgresRepository) ListAreas(ctx context.Context) ([]domain.Area, error) {
	return append([]domain.Area(nil), r.areas...), nil
}

// SaveAnalysisLog persists an analysis run
func (r *PostgresRepository) SaveAnalysisLog(ctx context.Context, a domain.Analysis) error {
	result, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal analysis result: %w", err)
	}

	query := `
		INSERT INTO analysis_logs (
			incident_type, source, provider, fallback_reason, risk_level, result, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// Empty strings are stored as NULL
	var provider, reason interface{}
	if a.Provider != "" {
		provider = a.Provider
	}
	if a.FallbackReason != "" {
		reason = a.FallbackReason
	}

	_, err = r.pool.Exec(ctx, query,
		string(a.IncidentType), string(a.Source), provider, reason, string(a.Result.RiskLevel), result, a.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save analysis log: %w", err)
	}
	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func scanMedicine(row pgx.Row) (domain.Medicine, error) {
	var m domain.Medicine
	err := row.Scan(
		&m.ID, &m.Name, &m.Category, &m.Stock, &m.CriticalThreshold, &m.Expiry, &m.ForecastedDemand, &m.LastStockUpdate,
	)
	return m, err
}

func scanSupplier(row pgx.Row) (domain.Supplier, error) {
	var (
		s        domain.Supplier
		capacity []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Location, &capacity); err != nil {
		return domain.Supplier{}, err
	}
	s.Capacity = map[string]int{}
	if len(capacity) > 0 {
		if err := json.Unmarshal(capacity, &s.Capacity); err != nil {
			return domain.Supplier{}, fmt.Errorf("decode capacity: %w", err)
		}
	}
	return s, nil
}
