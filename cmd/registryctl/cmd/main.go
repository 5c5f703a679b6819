package cmd

import (
	"context"

	"github.com/assetized/asset-registry/internal/platform/config"
	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/pkg/logger"

	"github.com/spf13/cobra"
)

var rcCmd = &cobra.Command{
	Use:   "registryctl",
	Short: "Asset Registry CLI",
}

func Execute() {
	rcCmd.AddCommand(cmdMint)
	rcCmd.AddCommand(cmdShow)
	rcCmd.AddCommand(cmdList)
	rcCmd.AddCommand(cmdFailed)
	rcCmd.Execute()
}

func newContext() context.Context {
	ctx := logger.ContextWithLogConfig(context.Background(), logger.NewDevelopmentConfig())
	return node.ContextWithValues(ctx)
}

func newConfig(ctx context.Context) *config.Config {
	cfg, err := config.Environment()
	if err != nil {
		logger.Fatal(ctx, "Parsing Config : %s", err)
	}
	return cfg
}

func newMasterDB(ctx context.Context, cfg *config.Config) *db.DB {
	masterDB, err := db.New(&db.StorageConfig{
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKeyID,
		Secret:    cfg.AWS.SecretAccessKey,
		Bucket:    cfg.Storage.Bucket,
		Root:      cfg.Storage.Root,
	})
	if err != nil {
		logger.Fatal(ctx, "Register DB : %s", err)
	}
	return masterDB
}
