package tests

import (
	"context"
	"os"
	"time"

	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/pkg/logger"
	"github.com/assetized/asset-registry/pkg/scheduler"

	"github.com/pkg/errors"
)

// Test holds the state shared across a package's tests: a standalone DB in a
// throwaway directory and a log config wired for stdout.
type Test struct {
	logConfig  *logger.Config
	Registry   string
	DB         *db.DB
	Locks      *node.AssetLock
	Scheduler  scheduler.Scheduler
	schStarted bool
	path       string
}

func (test *Test) Setup(ctx context.Context) error {
	test.logConfig = logger.NewDevelopmentConfig()
	test.logConfig.Main.SetWriter(os.Stdout)
	test.logConfig.Main.Format |= logger.IncludeSystem | logger.IncludeMicro
	test.logConfig.Main.MinLevel = logger.LevelDebug
	test.logConfig.EnableSubSystem(scheduler.SubSystem)

	ctx = logger.ContextWithLogConfig(ctx, test.logConfig)

	test.Registry = "test"
	test.Locks = node.NewAssetLock()

	path, err := os.MkdirTemp("", "registry_test")
	if err != nil {
		return errors.Wrap(err, "Failed to create test storage dir")
	}
	test.path = path

	test.DB, err = db.New(&db.StorageConfig{
		Bucket: "standalone",
		Root:   path,
	})
	if err != nil {
		return errors.Wrap(err, "Failed to create DB")
	}

	test.schStarted = true
	go func() {
		if err := test.Scheduler.Run(ctx); err != nil {
			logger.Error(ctx, "Scheduler failed : %s", err)
		}
		logger.Info(ctx, "Scheduler finished")
	}()

	return nil
}

func (test *Test) Close(ctx context.Context) {
	if test.schStarted {
		test.Scheduler.Stop(ctx)
	}
	if test.DB != nil {
		test.DB.Close()
	}
	if len(test.path) > 0 {
		os.RemoveAll(test.path)
	}
}

// Context returns a fresh request context carrying the test log config, a
// trace id, and a fixed timestamp.
func (test *Test) Context(ctx context.Context, traceID string) context.Context {
	v := node.Values{
		TraceID: traceID,
		Now:     time.Now().UTC(),
	}
	ctx = context.WithValue(ctx, node.KeyValues, &v)

	return logger.ContextWithLogConfig(ctx, test.logConfig)
}
