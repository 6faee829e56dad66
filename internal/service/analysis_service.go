package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/forecast"
)

// ErrRunSuperseded is returned by a run that a newer run replaced before it finished
var ErrRunSuperseded = errors.New("analysis: run superseded by a newer request")

const (
	defaultRemoteTimeout = 30 * time.Second

	// maxRemoteReports caps how many of the newest reports are sent upstream
	maxRemoteReports = 200
)

// AnalysisService runs the demand analysis: the remote analyzer when it is
// available and answers, the local estimator otherwise. Only the newest run
// may publish its result.
type AnalysisService struct {
	store     domain.Store
	remote    RemoteAnalyzer
	signals   *SignalService
	estimator *forecast.Estimator
	timeout   time.Duration
	log       logrus.FieldLogger
	now       func() time.Time

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	latest     *domain.Analysis

	wgBg sync.WaitGroup // tracks background log writes for graceful shutdown
}

// NewAnalysisService creates a new analysis service. remote may be nil.
func NewAnalysisService(
	store domain.Store,
	remote RemoteAnalyzer,
	signals *SignalService,
	estimator *forecast.Estimator,
	timeout time.Duration,
	log logrus.FieldLogger,
) *AnalysisService {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	if signals == nil {
		signals = NewSignalService("", "", log)
	}
	return &AnalysisService{
		store:     store,
		remote:    remote,
		signals:   signals,
		estimator: estimator,
		timeout:   timeout,
		log:       log,
		now:       time.Now,
	}
}

// WaitBackground blocks until all background log writes complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *AnalysisService) WaitBackground() {
	s.wgBg.Wait()
}

// Latest returns the most recent published analysis
func (s *AnalysisService) Latest() (domain.Analysis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return domain.Analysis{}, false
	}
	return *s.latest, true
}

// Run starts a new analysis and cancels any run still in flight. Remote
// failures are never surfaced; they select the local estimate instead.
func (s *AnalysisService) Run(ctx context.Context, incident domain.IncidentType) (domain.Analysis, error) {
	runCtx, gen := s.begin(ctx)
	defer s.finish(gen)

	medicines, err := s.store.ListMedicines(runCtx)
	if err != nil {
		return domain.Analysis{}, s.failure(gen, fmt.Errorf("analysis: failed to read inventory: %w", err))
	}
	reports, err := s.store.ListReports(runCtx)
	if err != nil {
		return domain.Analysis{}, s.failure(gen, fmt.Errorf("analysis: failed to read reports: %w", err))
	}
	areas, err := s.store.ListAreas(runCtx)
	if err != nil {
		return domain.Analysis{}, s.failure(gen, fmt.Errorf("analysis: failed to read areas: %w", err))
	}

	req := domain.AnalysisRequest{
		IncidentType: incident,
		Medicines:    medicines,
		Reports:      newest(reports, maxRemoteReports),
		Areas:        areas,
		Signals:      s.signals.Signals(runCtx, incident),
	}

	analysis := s.analyze(runCtx, req, reports)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.WithField("generation", gen).Info("discarding superseded analysis")
		return domain.Analysis{}, ErrRunSuperseded
	}
	published := analysis
	s.latest = &published
	s.mu.Unlock()

	s.record(analysis)
	return analysis, nil
}

// analyze picks the remote result when possible and the local estimate otherwise
func (s *AnalysisService) analyze(ctx context.Context, req domain.AnalysisRequest, allReports []domain.SymptomReport) domain.Analysis {
	signals := req.Signals
	analysis := domain.Analysis{
		IncidentType: req.IncidentType,
		GeneratedAt:  s.now().UTC(),
	}

	var reason string
	switch {
	case s.remote == nil:
		reason = "no remote analyzer configured"
	case !s.remote.Available():
		analysis.Provider = s.remote.Name()
		reason = "remote analyzer has no credentials"
	default:
		analysis.Provider = s.remote.Name()

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		result, err := s.remote.Analyze(callCtx, req)
		cancel()
		if err == nil {
			if len(result.HierarchicalForecasts) == 0 {
				result.HierarchicalForecasts = forecast.NewHierarchy(req.Areas).
					Forecasts(allReports, s.estimator.Config().UnitsPerCase)
			}
			result.ExternalSignals = &signals
			analysis.Result = result
			analysis.Source = domain.SourceRemote
			s.log.WithFields(logrus.Fields{
				"provider": analysis.Provider,
				"risk":     result.RiskLevel,
			}).Info("remote analysis completed")
			return analysis
		}
		reason = err.Error()
		s.log.WithError(err).WithField("provider", analysis.Provider).Warn("remote analysis failed, using local estimate")
	}

	result := s.estimator.Estimate(req.Medicines, allReports, req.Areas)
	result.ExternalSignals = &signals
	analysis.Result = result
	analysis.Source = domain.SourceLocal
	analysis.FallbackReason = reason
	s.log.WithFields(logrus.Fields{
		"risk":     result.RiskLevel,
		"medicine": result.TargetedMedicine,
		"reason":   reason,
	}).Info("local estimate completed")
	return analysis
}

func (s *AnalysisService) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return ctx, s.generation
}

func (s *AnalysisService) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// failure reports a store error, or ErrRunSuperseded when the error was caused
// by a newer run cancelling this one
func (s *AnalysisService) failure(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrRunSuperseded
	}
	return err
}

// record persists the analysis log asynchronously (tracked for graceful shutdown)
func (s *AnalysisService) record(a domain.Analysis) {
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.SaveAnalysisLog(bgCtx, a); err != nil {
			s.log.WithError(err).Error("failed to save analysis log")
		}
	}()
}

func newest(reports []domain.SymptomReport, n int) []domain.SymptomReport {
	if len(reports) <= n {
		return reports
	}
	return reports[len(reports)-n:]
}
