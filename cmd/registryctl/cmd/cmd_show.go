package cmd

import (
	"fmt"

	"github.com/assetized/asset-registry/internal/asset"
	"github.com/assetized/asset-registry/internal/deposit"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cmdShow = &cobra.Command{
	Use:     "show <asset_id>",
	Short:   "Load and print an asset record with its escrowed deposits.",
	Example: "registryctl show A-1",
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("Missing asset id")
		}

		ctx := newContext()
		cfg := newConfig(ctx)
		masterDB := newMasterDB(ctx, cfg)
		defer masterDB.Close()

		a, err := asset.Retrieve(ctx, masterDB, cfg.Registry.Name, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("# Asset %s\n\n", a.ID)
		spew.Dump(a)

		for spender := range a.Approvals {
			d, err := deposit.Fetch(ctx, masterDB, cfg.Registry.Name, a.ID, spender)
			if err != nil {
				if errors.Cause(err) == deposit.ErrNotFound {
					continue
				}
				return err
			}

			fmt.Printf("## Deposit for %s\n\n", spender)
			spew.Dump(d)
		}

		return nil
	},
}
