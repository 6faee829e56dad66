package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/medsupply/backend/internal/domain"
)

// Scheduler re-runs the GENERAL analysis on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	analysis *AnalysisService
	log      logrus.FieldLogger
}

// NewScheduler creates a scheduler; nothing runs until Start
func NewScheduler(analysis *AnalysisService, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		analysis: analysis,
		log:      log,
	}
}

// Start registers the refresh job with a standard five-field cron spec and starts the scheduler
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.log.WithField("schedule", spec).Info("scheduled analysis refresh started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := s.analysis.Run(ctx, domain.IncidentGeneral)
	switch {
	case errors.Is(err, ErrRunSuperseded):
		s.log.Info("scheduled analysis superseded by a newer run")
	case err != nil:
		s.log.WithError(err).Error("scheduled analysis failed")
	default:
		s.log.WithFields(logrus.Fields{"source": a.Source, "risk": a.Result.RiskLevel}).Info("scheduled analysis refreshed")
	}
}
