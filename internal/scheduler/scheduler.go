// Package scheduler runs the pipeline steps on a cron cadence with a bounded
// retry per step.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/BartekS5/odoo-etl/pkg/logger"
)

// Step is one unit of a firing, such as extract or load.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler fires Steps in order on Spec. A step that still fails after
// Retries extra attempts stops the remaining steps of that firing.
type Scheduler struct {
	Spec       string
	Retries    int
	RetryDelay time.Duration
	Steps      []Step
}

func New(spec string, retries int, retryDelay time.Duration, steps ...Step) *Scheduler {
	return &Scheduler{Spec: spec, Retries: retries, RetryDelay: retryDelay, Steps: steps}
}

// RunOnce executes a single firing.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	log := logger.With("firing_id", uuid.NewString())
	for _, step := range s.Steps {
		if err := s.runStep(ctx, step); err != nil {
			log.Errorf("Step %s failed, skipping the remaining steps: %v", step.Name, err)
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		log.Infof("Step %s succeeded", step.Name)
	}
	return nil
}

func (s *Scheduler) runStep(ctx context.Context, step Step) error {
	var err error
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if attempt > 0 {
			logger.Warnf("Retrying step %s in %s (attempt %d of %d): %v", step.Name, s.RetryDelay, attempt+1, s.Retries+1, err)
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(s.RetryDelay):
			}
		}
		if err = step.Run(ctx); err == nil {
			return nil
		}
	}
	return err
}

// Start fires on Spec until ctx is cancelled. Overlapping firings are
// skipped, and a panicking step is logged rather than crashing the process.
func (s *Scheduler) Start(ctx context.Context) error {
	cl := logger.CronLogger()
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.Spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			logger.Errorf("Scheduled run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.Spec, err)
	}

	c.Start()
	logger.Infof("Scheduler started with spec %q (%d step(s), %d retry(ies), delay %s)", s.Spec, len(s.Steps), s.Retries, s.RetryDelay)

	<-ctx.Done()
	logger.Info("Scheduler stopping, waiting for the running firing to finish")
	<-c.Stop().Done()
	return nil
}
