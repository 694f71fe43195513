// Package scheduler runs the daily signal synthesis job so a fresh cache
// entry exists before the first read of the day.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/services/signals"
)

// jobTimeout bounds one scheduled synthesis run.
const jobTimeout = 5 * time.Minute

// Service wraps the cron scheduler around the synthesis engine.
type Service struct {
	config *common.SignalsConfig
	engine *signals.Engine
	logger arbor.ILogger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewService creates a new scheduler service.
func NewService(config *common.SignalsConfig, engine *signals.Engine, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		engine: engine,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the synthesis job and begins the scheduler. No-op when
// scheduling is disabled in config.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.ScheduleEnabled {
		s.logger.Info().Msg("Signal synthesis schedule disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 7 * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.runSynthesis); err != nil {
		return fmt.Errorf("failed to add synthesis job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Msg("Signal synthesis schedule started")

	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Signal synthesis schedule stopped")
}

// runSynthesis executes one non-forced synthesis pass. The day cache makes
// the job idempotent: if signals were already generated today, the pass
// serves from cache and does no work.
func (s *Service) runSynthesis() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.engine.Synthesize(ctx, false)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled signal synthesis failed")
		return
	}

	s.logger.Info().
		Int("signals", len(result.Signals)).
		Bool("cached", result.Cached).
		Dur("duration", time.Since(startTime)).
		Msg("Scheduled signal synthesis complete")
}
