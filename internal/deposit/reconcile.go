package deposit

import (
	"context"
	"time"

	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/pkg/logger"
)

// ReconcileJob retries entries in the failed reclaim ledger. It is run
// periodically by the scheduler.
type ReconcileJob struct {
	DB       *db.DB
	Registry string
}

// Run retries every failed reclaim once. Entries that succeed are removed
// from the ledger; the rest stay for the next sweep.
func (job *ReconcileJob) Run(ctx context.Context) {
	failed, err := ListFailed(ctx, job.DB, job.Registry)
	if err != nil {
		logger.Error(ctx, "Failed to list reclaim failures : %s", err)
		return
	}

	if len(failed) == 0 {
		return
	}

	logger.Info(ctx, "Retrying %d failed deposit reclaims", len(failed))

	now := time.Now()
	for _, f := range failed {
		var retryErr error
		switch f.Stage {
		case StageCredit:
			// Deposit record already removed, only the credit is owed.
			retryErr = creditRefund(ctx, job.DB, job.Registry, f.Payer, f.Amount, now)
		default:
			retryErr = reclaimOne(ctx, job.DB, job.Registry, f.Asset, f.Spender, now)
		}

		if retryErr != nil {
			logger.Warn(ctx, "Reclaim retry failed for asset %s spender %s : %s",
				f.Asset, f.Spender, retryErr)
			continue
		}

		if err := RemoveFailed(ctx, job.DB, job.Registry, f.ID); err != nil {
			logger.Error(ctx, "Failed to clear reclaim failure %s : %s", f.ID, err)
		}
	}
}
