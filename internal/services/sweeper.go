package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// FinishSweeper periodically finishes approved appointments whose time has passed.
type FinishSweeper struct {
	appointments *AppointmentService
	interval     time.Duration
	log          *zap.Logger
}

// NewFinishSweeper creates a new FinishSweeper.
func NewFinishSweeper(appointments *AppointmentService, interval time.Duration, log *zap.Logger) *FinishSweeper {
	return &FinishSweeper{appointments: appointments, interval: interval, log: log}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *FinishSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *FinishSweeper) sweep(ctx context.Context) {
	if _, err := s.appointments.FinishElapsed(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("finish sweep failed, retrying on next tick", zap.Error(err))
	}
}
