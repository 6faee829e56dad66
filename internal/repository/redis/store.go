// Package redis persists the stores as whole JSON blobs, one key per entity
// collection, rewritten after every mutation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/medsupply/backend/internal/domain"
)

// DefaultKeyPrefix namespaces the blob keys
const DefaultKeyPrefix = "shlc_"

const (
	keyMedicines    = "medicines"
	keyReports      = "reports"
	keySuppliers    = "suppliers"
	keyAnalysisLogs = "analysis_logs"

	maxAnalysisLogs = 100
	lockTTL         = 5 * time.Second
)

// Store implements domain.Store on top of Redis string blobs
type Store struct {
	rdb    *goredis.Client
	locker *redislock.Client
	prefix string
	areas  []domain.Area
}

// Verify interface compliance
var _ domain.Store = (*Store)(nil)

// NewStore creates a blob store; areas are static reference data held in process
func NewStore(rdb *goredis.Client, prefix string, areas []domain.Area) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{
		rdb:    rdb,
		locker: redislock.New(rdb),
		prefix: prefix,
		areas:  append([]domain.Area(nil), areas...),
	}
}

// Seed writes the default blobs for any collection that is not stored yet
func (s *Store) Seed(ctx context.Context, medicines []domain.Medicine, reports []domain.SymptomReport, suppliers []domain.Supplier) error {
	if medicines == nil {
		medicines = []domain.Medicine{}
	}
	if reports == nil {
		reports = []domain.SymptomReport{}
	}
	if suppliers == nil {
		suppliers = []domain.Supplier{}
	}

	seeds := []struct {
		key   string
		value any
	}{
		{keyMedicines, medicines},
		{keyReports, reports},
		{keySuppliers, suppliers},
	}
	for _, seed := range seeds {
		data, err := json.Marshal(seed.value)
		if err != nil {
			return fmt.Errorf("redis: failed to marshal %s defaults: %w", seed.key, err)
		}
		if err := s.rdb.SetNX(ctx, s.key(seed.key), data, 0).Err(); err != nil {
			return fmt.Errorf("redis: failed to seed %s: %w", seed.key, err)
		}
	}
	return nil
}

// ListMedicines returns medicines in registration order
func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	if err := s.load(ctx, keyMedicines, &medicines); err != nil {
		return nil, err
	}
	return medicines, nil
}

// GetMedicine returns a medicine by ID
func (s *Store) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	medicines, err := s.ListMedicines(ctx)
	if err != nil {
		return domain.Medicine{}, err
	}
	for _, m := range medicines {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Medicine{}, fmt.Errorf("redis: medicine %q: %w", id, domain.ErrNotFound)
}

// UpsertMedicine rewrites the medicines blob with m replaced or appended
func (s *Store) UpsertMedicine(ctx context.Context, m domain.Medicine) error {
	return s.mutate(ctx, keyMedicines, func() (any, error) {
		var medicines []domain.Medicine
		if err := s.load(ctx, keyMedicines, &medicines); err != nil {
			return nil, err
		}
		for i := range medicines {
			if medicines[i].ID == m.ID {
				medicines[i] = m
				return medicines, nil
			}
		}
		return append(medicines, m), nil
	})
}

// ListReports returns reports in submission order
func (s *Store) ListReports(ctx context.Context) ([]domain.SymptomReport, error) {
	var reports []domain.SymptomReport
	if err := s.load(ctx, keyReports, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReport returns a report by ID
func (s *Store) GetReport(ctx context.Context, id string) (domain.SymptomReport, error) {
	reports, err := s.ListReports(ctx)
	if err != nil {
		return domain.SymptomReport{}, err
	}
	for _, r := range reports {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.SymptomReport{}, fmt.Errorf("redis: report %q: %w", id, domain.ErrNotFound)
}

// AppendReport rewrites the reports blob with r appended
func (s *Store) AppendReport(ctx context.Context, r domain.SymptomReport) error {
	return s.mutate(ctx, keyReports, func() (any, error) {
		var reports []domain.SymptomReport
		if err := s.load(ctx, keyReports, &reports); err != nil {
			return nil, err
		}
		return append(reports, r), nil
	})
}

// ListSuppliers returns suppliers in registration order
func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	if err := s.load(ctx, keySuppliers, &suppliers); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// GetSupplier returns a supplier by ID
func (s *Store) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	suppliers, err := s.ListSuppliers(ctx)
	if err != nil {
		return domain.Supplier{}, err
	}
	for _, sup := range suppliers {
		if sup.ID == id {
			return sup, nil
		}
	}
	return domain.Supplier{}, fmt.Errorf("redis: supplier %q: %w", id, domain.ErrNotFound)
}

// UpsertSupplier rewrites the suppliers blob with sup replaced or appended
func (s *Store) UpsertSupplier(ctx context.Context, sup domain.Supplier) error {
	return s.mutate(ctx, keySuppliers, func() (any, error) {
		var suppliers []domain.Supplier
		if err := s.load(ctx, keySuppliers, &suppliers); err != nil {
			return nil, err
		}
		for i := range suppliers {
			if suppliers[i].ID == sup.ID {
				suppliers[i] = sup
				return suppliers, nil
			}
		}
		return append(suppliers, sup), nil
	})
}

// ListAreas returns the static hierarchy
func (s *Store) ListAreas(ctx context.Context) ([]domain.Area, error) {
	return append([]domain.Area(nil), s.areas...), nil
}

// SaveAnalysisLog pushes the analysis onto a capped list, newest first
func (s *Store) SaveAnalysisLog(ctx context.Context, a domain.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal analysis log: %w", err)
	}

	key := s.key(keyAnalysisLogs)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxAnalysisLogs-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to save analysis log: %w", err)
	}
	return nil
}

// AnalysisLogs returns the retained analyses, newest first
func (s *Store) AnalysisLogs(ctx context.Context) ([]domain.Analysis, error) {
	raw, err := s.rdb.LRange(ctx, s.key(keyAnalysisLogs), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to read analysis logs: %w", err)
	}

	logs := make([]domain.Analysis, 0, len(raw))
	for _, item := range raw {
		var a domain.Analysis
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("redis: failed to decode analysis log: %w", err)
		}
		logs = append(logs, a)
	}
	return logs, nil
}

// Health pings Redis
func (s *Store) Health(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: health check failed: %w", err)
	}
	return nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) load(ctx context.Context, name string, dest any) error {
	data, err := s.rdb.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis: failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("redis: failed to decode %s: %w", name, err)
	}
	return nil
}

// mutate runs a read-modify-write of one blob under a distributed lock
func (s *Store) mutate(ctx context.Context, name string, fn func() (any, error)) error {
	lock, err := s.locker.Obtain(ctx, s.key("lock:"+name), lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(20*time.Millisecond), 100),
	})
	if err != nil {
		return fmt.Errorf("redis: failed to lock %s: %w", name, err)
	}
	defer func() { _ = lock.Release(ctx) }()

	next, err := fn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal %s: %w", name, err)
	}
	if err := s.rdb.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: failed to write %s: %w", name, err)
	}
	return nil
}
