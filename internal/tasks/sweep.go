// Package tasks schedules recurring maintenance work for the registry.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

// sweepTimeout bounds a single sweep run so a stalled store cannot
// hold the scheduler slot forever.
const sweepTimeout = 30 * time.Minute

// sweeper is the slice of the screening orchestrator the runner drives.
type sweeper interface {
	Sweep(ctx context.Context) (*screening.SweepReport, error)
}

// SweepRunner executes the periodic review sweep. The first run fires
// as soon as the scheduler starts, so overdue reviews are flagged right
// after a restart.
type SweepRunner struct {
	scheduler *gocron.Scheduler
	sweeper   sweeper
	cfg       *config.ScreeningConfig
	log       *logger.Logger
}

func NewSweepRunner(sweeper sweeper, cfg *config.ScreeningConfig, log *logger.Logger) *SweepRunner {
	return &SweepRunner{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		cfg:       cfg,
		log:       log.Named("sweep"),
	}
}

// Start schedules the sweep and returns immediately. It is a no-op when
// the sweep is disabled in configuration.
func (r *SweepRunner) Start() error {
	if !r.cfg.SweepEnabled {
		r.log.Info("review sweep disabled")
		return nil
	}

	interval := r.cfg.SweepInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	if _, err := r.scheduler.Every(interval).Do(r.runOnce); err != nil {
		return fmt.Errorf("schedule review sweep: %w", err)
	}

	r.scheduler.StartAsync()
	r.log.Info("review sweep scheduled", logger.DurationField("interval", interval))
	return nil
}

func (r *SweepRunner) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	// The orchestrator logs and counts successful runs itself.
	if _, err := r.sweeper.Sweep(ctx); err != nil {
		r.log.Error("review sweep failed", logger.ErrorField(err))
	}
}

// Stop halts the scheduler. Safe to call even if Start was never called.
func (r *SweepRunner) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}
