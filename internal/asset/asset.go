package asset

import (
	"context"
	"time"

	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

var (
	// ErrNotFound abstracts the standard not found error.
	ErrNotFound = errors.New("Asset not found")

	// ErrExists occurs when minting an asset id that is already registered.
	ErrExists = errors.New("Asset already exists")

	// ErrUnauthorized occurs when a caller's approval id does not match the
	// asset's active approval for that caller.
	ErrUnauthorized = errors.New("Caller not authorized for asset")
)

// Retrieve gets the specified asset from the registry.
func Retrieve(ctx context.Context, dbConn *db.DB, registry string, assetID string) (*Asset, error) {
	ctx, span := trace.StartSpan(ctx, "internal.asset.Retrieve")
	defer span.End()

	a, err := Fetch(ctx, dbConn, registry, assetID)
	if err != nil {
		return nil, err
	}

	// A valid record always carries an approval map, possibly empty.
	if a.Approvals == nil {
		a.Approvals = make(map[string]uint64)
	}
	return a, nil
}

// Create mints the asset.
func Create(ctx context.Context, dbConn *db.DB, registry string, nu *NewAsset, now time.Time) (*Asset, error) {
	ctx, span := trace.StartSpan(ctx, "internal.asset.Create")
	defer span.End()

	if _, err := Fetch(ctx, dbConn, registry, nu.ID); err == nil {
		return nil, ErrExists
	} else if errors.Cause(err) != ErrNotFound {
		return nil, err
	}

	a := Asset{
		ID:        nu.ID,
		Owner:     nu.Owner,
		Metadata:  nu.Metadata,
		Approvals: make(map[string]uint64),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := Save(ctx, dbConn, registry, &a); err != nil {
		return nil, err
	}

	logger.Verbose(ctx, "Minted asset %s for %s", a.ID, a.Owner)
	return &a, nil
}

// Approve grants the spender an approval on the asset and returns the issued
// approval id. Ids are issued monotonically per asset. Re-approving a spender
// replaces any active approval.
func Approve(ctx context.Context, dbConn *db.DB, registry string, assetID string,
	spender string, now time.Time) (uint64, error) {

	ctx, span := trace.StartSpan(ctx, "internal.asset.Approve")
	defer span.End()

	a, err := Retrieve(ctx, dbConn, registry, assetID)
	if err != nil {
		return 0, err
	}

	approvalID := a.NextApprovalID
	a.Approvals[spender] = approvalID
	a.NextApprovalID++
	a.UpdatedAt = now

	if err := Save(ctx, dbConn, registry, a); err != nil {
		return 0, errors.Wrap(err, "Failed to save approval")
	}

	logger.Verbose(ctx, "Approved %s on asset %s with id %d", spender, assetID, approvalID)
	return approvalID, nil
}

// Revoke removes the spender's active approval on the asset.
func Revoke(ctx context.Context, dbConn *db.DB, registry string, assetID string,
	spender string, now time.Time) error {

	ctx, span := trace.StartSpan(ctx, "internal.asset.Revoke")
	defer span.End()

	a, err := Retrieve(ctx, dbConn, registry, assetID)
	if err != nil {
		return err
	}

	if _, exists := a.Approvals[spender]; !exists {
		return ErrUnauthorized
	}

	delete(a.Approvals, spender)
	a.UpdatedAt = now

	if err := Save(ctx, dbConn, registry, a); err != nil {
		return errors.Wrap(err, "Failed to save revocation")
	}

	logger.Verbose(ctx, "Revoked approval for %s on asset %s", spender, assetID)
	return nil
}
