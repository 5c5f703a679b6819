package cmd

import (
	"fmt"

	"github.com/assetized/asset-registry/internal/asset"

	"github.com/spf13/cobra"
)

var cmdList = &cobra.Command{
	Use:   "list",
	Short: "List the ids of every registered asset.",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := newContext()
		cfg := newConfig(ctx)
		masterDB := newMasterDB(ctx, cfg)
		defer masterDB.Close()

		ids, err := asset.List(ctx, masterDB, cfg.Registry.Name)
		if err != nil {
			return err
		}

		for _, id := range ids {
			fmt.Println(id)
		}

		return nil
	},
}
