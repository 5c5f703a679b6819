package cmd

import (
	"fmt"

	"github.com/assetized/asset-registry/internal/asset"
	"github.com/assetized/asset-registry/internal/platform/node"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdMint = &cobra.Command{
	Use:     "mint <asset_id> <owner> [metadata]",
	Short:   "Register a new asset with an initial owner.",
	Example: "registryctl mint A-1 seller.example 'rare collectible'",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) < 2 {
			return errors.New("Missing asset id or owner")
		}

		ctx := newContext()
		cfg := newConfig(ctx)
		masterDB := newMasterDB(ctx, cfg)
		defer masterDB.Close()

		nu := asset.NewAsset{
			ID:    args[0],
			Owner: args[1],
		}
		if len(args) > 2 {
			nu.Metadata = args[2]
		}

		v := node.ContextValues(ctx)
		a, err := asset.Create(ctx, masterDB, cfg.Registry.Name, &nu, v.Now)
		if err != nil {
			return err
		}

		fmt.Printf("Minted %s owned by %s\n", a.ID, a.Owner)
		return nil
	},
}
