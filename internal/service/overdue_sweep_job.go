package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-finance-api/pkg/jobs"
)

// OverdueSweepJobType identifies scheduled overdue sweeps on the job queue.
const OverdueSweepJobType = "installments.overdue_sweep"

type overdueSweeper interface {
	MarkOverdueSweep(ctx context.Context, asOf time.Time) (int64, error)
}

// NewOverdueSweepJob adapts the ledger sweep to a queue handler. The payload may carry the
// reference time; a nil payload sweeps as of now.
func NewOverdueSweepJob(sweeper overdueSweeper, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		asOf := time.Now().UTC()
		switch payload := job.Payload.(type) {
		case nil:
		case time.Time:
			asOf = payload
		default:
			return fmt.Errorf("overdue sweep: unexpected payload %T", job.Payload)
		}
		changed, err := sweeper.MarkOverdueSweep(ctx, asOf)
		if err != nil {
			return err
		}
		logger.Debug("scheduled overdue sweep", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Int64("changed", changed))
		return nil
	}
}
