// Package jobs holds periodic background jobs run by the worker process
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// a session younger than this is probably still open in the buyer's browser
	settleGrace = time.Minute
	batchSize   = 100
)

// PendingLister lists checkout sessions still waiting for settlement
type PendingLister interface {
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.CheckoutSession, error)
}

// Settler reads a pending session back from the processor and records its outcome
type Settler interface {
	SettlePending(ctx context.Context, session *models.CheckoutSession) (models.CheckoutStatus, error)
}

// Reconciler settles checkout sessions whose buyers never came back to the success page
type Reconciler struct {
	sessions PendingLister
	settler  Settler
	logger   *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewReconciler creates a new reconciler
func NewReconciler(sessions PendingLister, settler Settler, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		sessions: sessions,
		settler:  settler,
		logger:   logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start runs the reconciler on the given cron schedule, e.g. "@every 5m"
func (r *Reconciler) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() { r.Run(context.Background()) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.logger.Info("Reconciler started", zap.String("schedule", schedule))
	return nil
}

// Stop stops scheduling and waits for a running pass to finish
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("Reconciler stopped")
}

// Run performs one reconciliation pass and returns the number of sessions settled
func (r *Reconciler) Run(ctx context.Context) int {
	sessions, err := r.sessions.ListPendingBefore(ctx, r.now().Add(-settleGrace), batchSize)
	if err != nil {
		r.logger.Error("Failed to list pending checkout sessions", zap.Error(err))
		return 0
	}

	settled := 0
	for i := range sessions {
		session := &sessions[i]
		status, err := r.settler.SettlePending(ctx, session)
		if err != nil {
			r.logger.Warn("Failed to settle checkout session",
				zap.Int("id", session.ID),
				zap.String("session_id", session.SessionID),
				zap.Error(err),
			)
			continue
		}
		if status != models.CheckoutPending {
			settled++
		}
	}

	if len(sessions) > 0 {
		r.logger.Info("Reconciled checkout sessions",
			zap.Int("pending", len(sessions)),
			zap.Int("settled", settled),
		)
	}
	return settled
}
