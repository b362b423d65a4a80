// Package scheduler runs periodic escalation sweeps.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codedchaitanya/On-Call-Incident-Management-System/internal/incidents"
)

// DefaultInterval is the time between sweeps.
const DefaultInterval = time.Minute

// Sweeper escalates stale triggered incidents.
type Sweeper interface {
	Sweep(ctx context.Context, timeout time.Duration) (*incidents.SweepResult, error)
}

// Config contains scheduler configuration.
type Config struct {
	Interval time.Duration
	// Timeout is the age after which a triggered incident is escalated.
	// Zero uses the engine default.
	Timeout time.Duration
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Timeout:  incidents.DefaultEscalationTimeout,
	}
}

// Scheduler triggers a sweep on every tick. Sweeps may overlap; each one
// runs to completion even after Stop is called.
type Scheduler struct {
	config  Config
	sweeper Sweeper

	stopCh   chan struct{}
	stopOnce sync.Once
	loop     sync.WaitGroup
	sweeps   sync.WaitGroup
}

// New creates a new scheduler.
func New(config Config, sweeper Sweeper) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Scheduler{
		config:  config,
		sweeper: sweeper,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the ticker loop.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("starting escalation scheduler",
		"interval", s.config.Interval,
		"timeout", s.config.Timeout,
	)

	s.loop.Add(1)
	go s.run(ctx)
}

// Stop ends the ticker loop and waits for in-flight sweeps.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.loop.Wait()
	s.sweeps.Wait()
	slog.Info("escalation scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.loop.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweeps.Add(1)
			go func() {
				defer s.sweeps.Done()
				s.RunOnce(context.WithoutCancel(ctx))
			}()
		}
	}
}

// RunOnce performs a single sweep and logs its outcome. Errors are not returned.
func (s *Scheduler) RunOnce(ctx context.Context) *incidents.SweepResult {
	result, err := s.sweeper.Sweep(ctx, s.config.Timeout)
	if err != nil {
		slog.Error("escalation sweep failed", "error", err)
		return nil
	}

	if result.Escalated > 0 || result.Failed > 0 {
		slog.Info("escalation sweep finished",
			"escalated", result.Escalated,
			"failed", result.Failed,
		)
	}
	return result
}
