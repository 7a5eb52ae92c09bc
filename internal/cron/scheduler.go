package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"zarinpal/internal/payment"
)

// UnverifiedLister is implemented by gateways that can list unverified payments.
type UnverifiedLister interface {
	UnverifiedTransactions(ctx context.Context) *payment.UnverifiedOutcome
}

// Scheduler periodically reports payments the user completed but nobody verified.
type Scheduler struct {
	cron    *cron.Cron
	lister  UnverifiedLister
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a new cron scheduler.
func New(lister UnverifiedLister, timeout time.Duration, logger *zap.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		lister:  lister,
		logger:  logger,
		timeout: timeout,
	}
}

// Start registers the sweep on spec and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	s.logger.Info("Starting cron scheduler...", zap.String("unverified_schedule", spec))

	if _, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("Running: unverified transactions sweep")
		s.sweepUnverified()
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// sweepUnverified returns the number of unverified payments it reported.
func (s *Scheduler) sweepUnverified() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	out := s.lister.UnverifiedTransactions(ctx)
	if !out.Succeeded() {
		s.logger.Error("Unverified transactions sweep failed", zap.Error(out.Err()))
		return 0
	}

	for _, tx := range out.Transactions {
		s.logger.Warn("Unverified payment",
			zap.String("authority", tx.Authority),
			zap.Int64("amount", tx.Amount),
			zap.String("callback_url", tx.CallbackURL),
			zap.String("date", tx.Date))
	}
	return len(out.Transactions)
}
