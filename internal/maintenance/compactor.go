// Package maintenance hosts background upkeep jobs.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/controller"
)

// Compactor periodically rewrites orderIndex values to dense 0..n-1
// positions once deletions have left gaps. It goes through the controller
// loop, so it can never race a drag gesture.
type Compactor struct {
	ctrl *controller.Controller
	log  *zap.Logger
	c    *cron.Cron
}

func NewCompactor(ctrl *controller.Controller, log *zap.Logger) *Compactor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compactor{ctrl: ctrl, log: log}
}

// Start schedules the nightly compaction (03:00).
func (s *Compactor) Start() {
	s.c = cron.New(cron.WithSeconds())

	_, err := s.c.AddFunc("0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.ctrl.Compact(ctx); err != nil {
			s.log.Warn("order compaction request failed", zap.Error(err))
			return
		}
		s.log.Info("order compaction requested")
	})
	if err != nil {
		s.log.Error("failed to create compaction cron job", zap.Error(err))
		return
	}

	s.log.Info("compaction scheduler started (nightly at 03:00)")
	s.c.Start()
}

// Stop halts the scheduler; running jobs finish on their own.
func (s *Compactor) Stop() {
	if s.c != nil {
		s.c.Stop()
	}
}
