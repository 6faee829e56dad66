package service

import (
	"context"
	"time"

	"github.com/medsupply/backend/internal/domain"
	"github.com/medsupply/backend/internal/forecast"
	"github.com/medsupply/backend/internal/logging"
	"github.com/medsupply/backend/internal/repository/memory"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newSeededStore() *memory.Store {
	return memory.NewSeededStore(testNow)
}

// fakeAnalyzer is a scripted RemoteAnalyzer
type fakeAnalyzer struct {
	available bool
	analyze   func(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
}

func (f *fakeAnalyzer) Name() string    { return "fake" }
func (f *fakeAnalyzer) Available() bool { return f.available }
func (f *fakeAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	return f.analyze(ctx, req)
}

func newAnalysisService(store domain.Store, remote RemoteAnalyzer) *AnalysisService {
	log := logging.Discard()
	svc := NewAnalysisService(
		store,
		remote,
		NewSignalService("", "", log),
		forecast.NewEstimator(forecast.DefaultEstimatorConfig()),
		time.Second,
		log,
	)
	svc.now = fixedClock
	return svc
}
