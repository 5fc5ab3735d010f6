// Package sweeper reclaims rooms that webhook delivery alone cannot clean
// up: archived rooms past their grace window and rooms so old their finish
// event must have been lost.
package sweeper

import (
	"context"
	"time"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/events"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
	"github.com/lingopods/roomsync/internal/infrastructure/metrics"
	"github.com/lingopods/roomsync/internal/reconcile"
)

type Summary struct {
	Evaluated int `json:"evaluated"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

type Sweeper struct {
	rooms     domain.RoomRepository
	publisher *events.RoomPublisher
	rules     reconcile.Rules
	interval  time.Duration
	logger    logging.Logger
}

func New(rooms domain.RoomRepository, publisher *events.RoomPublisher, rules reconcile.Rules, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		rooms:     rooms,
		publisher: publisher,
		rules:     rules,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled. Overlapping
// invocations (a slow sweep meeting the next tick, or a second service
// instance) are safe: deletes are idempotent, so a double sweep is
// wasteful but never incorrect.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep is one best-effort pass: query candidates, re-check each against
// the reconciliation policy, delete the ones it condemns. A failed delete
// is logged and skipped; one bad record must not abort the whole sweep.
func (s *Sweeper) Sweep(ctx context.Context) Summary {
	start := time.Now()
	now := start.UTC()

	var summary Summary

	candidates, err := s.rooms.FindReapable(ctx, reconcile.ReapQueryAt(now, s.rules))
	if err != nil {
		s.logger.Error(logging.Sweeper, logging.Reap, "failed to query reapable rooms", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return summary
	}

	for _, room := range candidates {
		summary.Evaluated++

		decision := reconcile.ForAge(room, now, s.rules)
		if decision.Action != reconcile.ActionDelete {
			continue
		}

		if err := s.rooms.Delete(ctx, room.ID); err != nil {
			summary.Failed++
			metrics.SweepFailuresTotal.Inc()
			s.logger.Error(logging.Sweeper, logging.Reap, "failed to delete room", map[logging.ExtraKey]any{
				logging.RoomID:       room.ID,
				logging.ErrorMessage: err.Error(),
			})
			continue
		}

		summary.Deleted++
		metrics.RoomsReapedTotal.WithLabelValues(decision.Reason).Inc()

		if err := s.publisher.PublishRoomReaped(ctx, room, decision.Reason); err != nil {
			s.logger.Warn(logging.RabbitMQ, logging.Publish, "failed to publish room reaped", map[logging.ExtraKey]any{
				logging.RoomID:       room.ID,
				logging.ErrorMessage: err.Error(),
			})
		}

		s.logger.Info(logging.Sweeper, logging.Reap, "room reaped", map[logging.ExtraKey]any{
			logging.RoomID: room.ID,
			logging.Reason: decision.Reason,
		})
	}

	metrics.SweepRunsTotal.Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	s.logger.Info(logging.Sweeper, logging.Reap, "sweep completed", map[logging.ExtraKey]any{
		"Evaluated": summary.Evaluated,
		"Deleted":   summary.Deleted,
		"Failed":    summary.Failed,
	})

	return summary
}
