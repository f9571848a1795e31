package server

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"title-party/internal/game"
)

// Sweeper periodically advances rooms whose timed phase has run out, so a
// room keeps moving when nobody is connected to drive it.
type Sweeper struct {
	cron    *cron.Cron
	engine  *game.Engine
	logger  *zap.Logger
	timeout time.Duration
}

func NewSweeper(engine *game.Engine, interval time.Duration, logger *zap.Logger) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: sweep interval must be positive", game.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweeper{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		engine:  engine,
		logger:  logger,
		timeout: interval,
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.Sweep); err != nil {
		return nil, fmt.Errorf("schedule sweeper: %w", err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop prevents new sweeps and waits for a running one to finish or ctx to
// expire.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	advanced, err := s.engine.AdvanceOverdue(ctx)
	if err != nil {
		s.logger.Warn("sweep failed", zap.Error(err))
		return
	}
	if advanced > 0 {
		s.logger.Info("sweep advanced rooms", zap.Int("count", advanced))
	}
}
