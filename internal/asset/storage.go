package asset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/assetized/asset-registry/internal/platform/db"

	"github.com/pkg/errors"
)

const storageKey = "assets"

// Save puts a single asset in storage.
func Save(ctx context.Context, dbConn *db.DB, registry string, as *Asset) error {
	data, err := json.Marshal(as)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal asset")
	}

	return dbConn.Put(ctx, buildStoragePath(registry, as.ID), data)
}

// Fetch gets a single asset from storage.
func Fetch(ctx context.Context, dbConn *db.DB, registry string, assetID string) (*Asset, error) {
	key := buildStoragePath(registry, assetID)

	b, err := dbConn.Fetch(ctx, key)
	if err != nil {
		if err == db.ErrNotFound {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "Failed to fetch asset")
	}

	as := Asset{}
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal asset")
	}

	return &as, nil
}

// List returns the ids of all assets in the registry.
func List(ctx context.Context, dbConn *db.DB, registry string) ([]string, error) {
	keys, err := dbConn.List(ctx, fmt.Sprintf("%s/%s", storageKey, registry))
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list assets")
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		as := Asset{}
		b, err := dbConn.Fetch(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to fetch asset")
		}
		if err := json.Unmarshal(b, &as); err != nil {
			return nil, errors.Wrap(err, "Failed to unmarshal asset")
		}
		ids = append(ids, as.ID)
	}

	return ids, nil
}

// buildStoragePath returns the storage path for an asset id.
func buildStoragePath(registry string, assetID string) string {
	return fmt.Sprintf("%s/%s/%s", storageKey, registry, assetID)
}
