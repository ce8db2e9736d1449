// Package scheduler drives recurring payments: it periodically scans the
// unconsumed ledger states for due entries and hands them to the payment
// flow for execution.
package scheduler

import (
	"context"
	"time"

	"github.com/api-sage/retail-bank-ledger/internal/domain"
	"github.com/api-sage/retail-bank-ledger/internal/ledger"
	"github.com/api-sage/retail-bank-ledger/internal/logger"
)

// StateSource yields a snapshot of the current unconsumed ledger states.
type StateSource interface {
	Unconsumed() []ledger.StateAndRef
}

// Executor performs one due iteration of a recurring payment.
type Executor interface {
	ExecuteRecurringPayment(ctx context.Context, payment domain.RecurringPaymentState) error
}

type Scheduler struct {
	source   StateSource
	executor Executor
	interval time.Duration
	now      func() time.Time
}

func New(source StateSource, executor Executor, interval time.Duration) *Scheduler {
	return &Scheduler{
		source:   source,
		executor: executor,
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks until the context is cancelled, ticking at the configured
// interval. Each tick executes every due recurring payment once.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("scheduler started", logger.Fields{
		"interval": s.interval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped", nil)
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick executes all currently due recurring payments.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	for _, due := range s.duePayments(now) {
		if err := s.executor.ExecuteRecurringPayment(ctx, due); err != nil {
			logger.Error("scheduler recurring payment execution failed", err, logger.Fields{
				"linearId": due.LinearID,
			})
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Scheduler) duePayments(now time.Time) []domain.RecurringPaymentState {
	var due []domain.RecurringPaymentState
	for _, ref := range s.source.Unconsumed() {
		payment, ok := ref.State.(domain.RecurringPaymentState)
		if !ok {
			continue
		}
		next, active := payment.NextExecution()
		if !active || next.After(now) {
			continue
		}
		due = append(due, payment)
	}
	return due
}
