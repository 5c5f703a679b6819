package cmd

import (
	"fmt"

	"github.com/assetized/asset-registry/internal/deposit"

	"github.com/spf13/cobra"
)

var cmdFailed = &cobra.Command{
	Use:   "failed",
	Short: "List deposit reclaims waiting for a retry.",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := newContext()
		cfg := newConfig(ctx)
		masterDB := newMasterDB(ctx, cfg)
		defer masterDB.Close()

		failed, err := deposit.ListFailed(ctx, masterDB, cfg.Registry.Name)
		if err != nil {
			return err
		}

		if len(failed) == 0 {
			fmt.Println("No failed reclaims")
			return nil
		}

		for _, f := range failed {
			fmt.Printf("%s : asset=%s spender=%s payer=%s amount=%d stage=%s : %s\n",
				f.FailedAt.Format("2006-01-02 15:04:05"), f.Asset, f.Spender, f.Payer,
				f.Amount, f.Stage, f.Reason)
		}

		return nil
	},
}
