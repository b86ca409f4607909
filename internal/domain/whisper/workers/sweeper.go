package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oldkaseb/najbot/config"
	"github.com/oldkaseb/najbot/internal/domain/whisper/usecase/buissines"
)

// Sweeper periodically removes expired waits and whisper tokens and
// cleans up the group messages that belong to them
type Sweeper struct {
	uc       *buissines.UseCase
	logger   zerolog.Logger
	interval time.Duration
	timeout  time.Duration

	done   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper creates a new expiry sweeper worker
func NewSweeper(uc *buissines.UseCase, whisperCfg *config.WhisperConfig, logger zerolog.Logger) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	interval := time.Minute
	if whisperCfg != nil && whisperCfg.SweepInterval > 0 {
		interval = whisperCfg.SweepInterval
	}

	return &Sweeper{
		uc:       uc,
		logger:   logger.With().Str("component", "expiry_sweeper").Logger(),
		interval: interval,
		timeout:  30 * time.Second,
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the sweeper worker
func (s *Sweeper) Start() {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("starting expiry sweeper worker")

	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the sweeper worker
func (s *Sweeper) Stop() {
	s.logger.Info().Msg("stopping expiry sweeper worker")

	s.cancel()
	close(s.done)
	s.wg.Wait()

	s.logger.Info().Msg("expiry sweeper worker stopped")
}

// run is the main worker loop
func (s *Sweeper) run() {
	defer s.wg.Done()

	// Initial delay to let the bot start polling first
	select {
	case <-s.done:
		return
	case <-time.After(5 * time.Second):
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := s.uc.SweepExpired(ctx); err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep failed")
	}
}
