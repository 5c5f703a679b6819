package deposit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/assetized/asset-registry/internal/platform/db"

	"github.com/pkg/errors"
)

const (
	depositKey = "deposits"
	refundKey  = "refunds"
	failedKey  = "reclaim_failed"
)

// ErrNotFound abstracts the standard not found error.
var ErrNotFound = errors.New("Deposit not found")

// Save puts a single deposit in storage.
func Save(ctx context.Context, dbConn *db.DB, registry string, d *Deposit) error {
	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal deposit")
	}

	return dbConn.Put(ctx, buildDepositPath(registry, d.Asset, d.Spender), data)
}

// Fetch gets the deposit escrowed against an asset/spender approval.
func Fetch(ctx context.Context, dbConn *db.DB, registry string, assetID string, spender string) (*Deposit, error) {
	b, err := dbConn.Fetch(ctx, buildDepositPath(registry, assetID, spender))
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "Failed to fetch deposit")
	}

	d := Deposit{}
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal deposit")
	}

	return &d, nil
}

// Remove deletes the deposit escrowed against an asset/spender approval.
func Remove(ctx context.Context, dbConn *db.DB, registry string, assetID string, spender string) error {
	if err := dbConn.Remove(ctx, buildDepositPath(registry, assetID, spender)); err != nil {
		if err == db.ErrNotFound {
			return ErrNotFound
		}
		return errors.Wrap(err, "Failed to remove deposit")
	}
	return nil
}

// FetchRefund gets the accumulated refund balance for a payer. A missing
// record is a zero balance.
func FetchRefund(ctx context.Context, dbConn *db.DB, registry string, payer string) (*Refund, error) {
	b, err := dbConn.Fetch(ctx, buildRefundPath(registry, payer))
	if err != nil {
		if err == db.ErrNotFound {
			return &Refund{Payer: payer}, nil
		}

		return nil, errors.Wrap(err, "Failed to fetch refund")
	}

	r := Refund{}
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal refund")
	}

	return &r, nil
}

// SaveRefund puts a payer's refund balance in storage.
func SaveRefund(ctx context.Context, dbConn *db.DB, registry string, r *Refund) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal refund")
	}

	return dbConn.Put(ctx, buildRefundPath(registry, r.Payer), data)
}

// SaveFailed appends an entry to the failed reclaim ledger.
func SaveFailed(ctx context.Context, dbConn *db.DB, registry string, f *FailedReclaim) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal failed reclaim")
	}

	return dbConn.Put(ctx, buildFailedPath(registry, f.ID), data)
}

// RemoveFailed deletes an entry from the failed reclaim ledger.
func RemoveFailed(ctx context.Context, dbConn *db.DB, registry string, id string) error {
	return dbConn.Remove(ctx, buildFailedPath(registry, id))
}

// ListFailed returns every entry in the failed reclaim ledger.
func ListFailed(ctx context.Context, dbConn *db.DB, registry string) ([]*FailedReclaim, error) {
	keys, err := dbConn.List(ctx, fmt.Sprintf("%s/%s", failedKey, registry))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list failed reclaims")
	}

	result := make([]*FailedReclaim, 0, len(keys))
	for _, key := range keys {
		b, err := dbConn.Fetch(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to fetch failed reclaim")
		}

		f := FailedReclaim{}
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, errors.Wrap(err, "Failed to unmarshal failed reclaim")
		}
		result = append(result, &f)
	}

	return result, nil
}

func buildDepositPath(registry string, assetID string, spender string) string {
	return fmt.Sprintf("%s/%s/%s/%s", depositKey, registry, assetID, spender)
}

func buildRefundPath(registry string, payer string) string {
	return fmt.Sprintf("%s/%s/%s", refundKey, registry, payer)
}

func buildFailedPath(registry string, id string) string {
	return fmt.Sprintf("%s/%s/%s", failedKey, registry, id)
}
