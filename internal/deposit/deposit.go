package deposit

import (
	"context"
	"time"

	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// Escrow records value held against a spender's approval on an asset. If a
// deposit already exists for the pair, the previous payer is credited before
// the record is replaced.
func Escrow(ctx context.Context, dbConn *db.DB, registry string, d *Deposit) error {
	ctx, span := trace.StartSpan(ctx, "internal.deposit.Escrow")
	defer span.End()

	existing, err := Fetch(ctx, dbConn, registry, d.Asset, d.Spender)
	if err == nil {
		if err := creditRefund(ctx, dbConn, registry, existing.Payer, existing.Amount, d.CreatedAt); err != nil {
			return errors.Wrap(err, "Failed to credit replaced deposit")
		}
	} else if errors.Cause(err) != ErrNotFound {
		return err
	}

	return Save(ctx, dbConn, registry, d)
}

// Reclaim returns the deposits escrowed against the invalidated approvals to
// whoever paid them. It is best-effort cleanup after a committed transfer:
// individual failures are appended to the failed reclaim ledger and logged,
// never propagated, so a settled sale cannot be unwound here.
func Reclaim(ctx context.Context, dbConn *db.DB, registry string, assetID string,
	spenders []string, now time.Time) {

	ctx, span := trace.StartSpan(ctx, "internal.deposit.Reclaim")
	defer span.End()

	for _, spender := range spenders {
		if err := reclaimOne(ctx, dbConn, registry, assetID, spender, now); err != nil {
			logger.Warn(ctx, "Reclaim failed for asset %s spender %s : %s", assetID, spender, err)
		}
	}
}

// reclaimOne releases a single deposit. A partial failure is recorded with
// the stage it reached so the reconcile job can resume it.
func reclaimOne(ctx context.Context, dbConn *db.DB, registry string, assetID string,
	spender string, now time.Time) error {

	d, err := Fetch(ctx, dbConn, registry, assetID, spender)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil // No deposit escrowed for this approval
		}

		recordFailure(ctx, dbConn, registry, &FailedReclaim{
			Asset: assetID, Spender: spender, Stage: StageRemove,
			Reason: err.Error(), FailedAt: now,
		})
		return err
	}

	if err := Remove(ctx, dbConn, registry, assetID, spender); err != nil {
		recordFailure(ctx, dbConn, registry, &FailedReclaim{
			Asset: assetID, Spender: spender, Payer: d.Payer, Amount: d.Amount,
			Stage: StageRemove, Reason: err.Error(), FailedAt: now,
		})
		return err
	}

	if err := creditRefund(ctx, dbConn, registry, d.Payer, d.Amount, now); err != nil {
		recordFailure(ctx, dbConn, registry, &FailedReclaim{
			Asset: assetID, Spender: spender, Payer: d.Payer, Amount: d.Amount,
			Stage: StageCredit, Reason: err.Error(), FailedAt: now,
		})
		return err
	}

	logger.Verbose(ctx, "Reclaimed deposit of %d for %s (asset %s, spender %s)",
		d.Amount, d.Payer, assetID, spender)
	return nil
}

// creditRefund adds to the payer's refundable balance.
func creditRefund(ctx context.Context, dbConn *db.DB, registry string, payer string,
	amount uint64, now time.Time) error {

	r, err := FetchRefund(ctx, dbConn, registry, payer)
	if err != nil {
		return err
	}

	r.Amount += amount
	r.UpdatedAt = now

	return SaveRefund(ctx, dbConn, registry, r)
}

func recordFailure(ctx context.Context, dbConn *db.DB, registry string, f *FailedReclaim) {
	f.ID = uuid.New().String()
	if err := SaveFailed(ctx, dbConn, registry, f); err != nil {
		// Nothing left to do but shout. The entry is lost for the reconcile
		// job and needs manual follow up from the logs.
		logger.Error(ctx, "Failed to record reclaim failure for asset %s spender %s : %s",
			f.Asset, f.Spender, err)
	}
}
