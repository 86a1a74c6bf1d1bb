package main

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/sirupsen/logrus"
)

// OverdueSweeper periodically flags past-due unpaid invoices as overdue.
// With redis connected only one instance sweeps at a time.
type OverdueSweeper struct {
	Logger    *logrus.Logger
	BatchSize int
	Interval  time.Duration
	LockTTL   time.Duration

	obtainLock func(ctx context.Context, key string, ttl time.Duration, moduleName string, functionName string) (func(), bool, error)
	sweep      func(ctx context.Context, now time.Time, limit int) (int, error)
}

func NewOverdueSweeper(logger *logrus.Logger) *OverdueSweeper {
	return &OverdueSweeper{
		Logger:    logger,
		BatchSize: 200,
		Interval:  time.Duration(config.EnvInt("OVERDUE_SWEEP_INTERVAL_MINUTES", 15)) * time.Minute,
		LockTTL:   5 * time.Minute,

		obtainLock: utils.ObtainLock,
		sweep:      workflow.SweepOverdueInvoices,
	}
}

func (s *OverdueSweeper) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.Interval):
		}
	}
}

func (s *OverdueSweeper) sweepOnce(ctx context.Context) {
	release, _, err := s.obtainLock(ctx, "overdue-sweeper", s.LockTTL, "overdueSweeper.go", "sweepOnce")
	if utils.IsLockContention(err) {
		s.Logger.WithFields(logrus.Fields{"field": "OverdueSweeper"}).Debug("sweep running on another instance")
		return
	}
	if err != nil {
		config.LogError(s.Logger, "overdueSweeper.go", "sweepOnce", "ObtainLock", "overdue-sweeper", err)
		return
	}
	defer release()

	ctx = utils.SetUserNameInContext(ctx, "System")
	ctx = utils.SetCorrelationIdInContext(ctx, "")
	swept, err := s.sweep(ctx, time.Now(), s.BatchSize)
	if err != nil {
		config.LogError(s.Logger, "overdueSweeper.go", "sweepOnce", "SweepOverdueInvoices", nil, err)
		return
	}
	if swept > 0 {
		s.Logger.WithFields(logrus.Fields{"field": "OverdueSweeper", "swept": swept}).Info("invoices marked overdue")
	}
}
