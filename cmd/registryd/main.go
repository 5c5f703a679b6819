package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assetized/asset-registry/cmd/registryd/handlers"
	"github.com/assetized/asset-registry/internal/deposit"
	"github.com/assetized/asset-registry/internal/payment"
	"github.com/assetized/asset-registry/internal/platform/config"
	"github.com/assetized/asset-registry/internal/platform/db"
	"github.com/assetized/asset-registry/internal/platform/node"
	"github.com/assetized/asset-registry/internal/settlement"
	"github.com/assetized/asset-registry/pkg/logger"
	"github.com/assetized/asset-registry/pkg/scheduler"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
	buildUser    = "unknown"
)

// Asset Registry Daemon
//
func main() {
	// -------------------------------------------------------------------------
	// Logging

	logConfig := logger.NewDevelopmentConfig()
	logConfig.EnableSubSystem(scheduler.SubSystem)

	ctx := logger.ContextWithLogConfig(context.Background(), logConfig)

	// -------------------------------------------------------------------------
	// Config

	cfg, err := config.Environment()
	if err != nil {
		logger.Fatal(ctx, "main : Parsing Config : %s", err)
	}

	// -------------------------------------------------------------------------
	// App Starting

	logger.Info(ctx, "main : Started : Application Initializing")
	defer logger.Info(ctx, "main : Completed")

	logger.Info(ctx, "main : Build %v (%v on %v)", buildVersion, buildUser, buildDate)

	cfgJSON, err := json.MarshalIndent(config.SafeConfig(*cfg), "", "    ")
	if err != nil {
		logger.Fatal(ctx, "main : Marshalling Config to JSON : %s", err)
	}
	logger.Info(ctx, "main : Config : %v", string(cfgJSON))

	// -------------------------------------------------------------------------
	// Start Database / Storage

	logger.Info(ctx, "main : Started : Initialize Database")

	masterDB, err := db.New(&db.StorageConfig{
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKeyID,
		Secret:    cfg.AWS.SecretAccessKey,
		Bucket:    cfg.Storage.Bucket,
		Root:      cfg.Storage.Root,
	})
	if err != nil {
		logger.Fatal(ctx, "main : Register DB : %s", err)
	}
	defer masterDB.Close()

	// -------------------------------------------------------------------------
	// Payment Forwarding

	var publisher payment.Publisher
	amqpPublisher, err := payment.NewAMQPPublisher(cfg.AMQP.URL)
	if err != nil {
		if !cfg.Registry.IsTest {
			logger.Fatal(ctx, "main : AMQP Connect : %s", err)
		}
		logger.Warn(ctx, "main : AMQP unavailable, forwards will be logged only : %s", err)
		publisher = payment.NewLogPublisher()
	} else {
		publisher = amqpPublisher
	}
	defer publisher.Close()

	forwarder := payment.NewForwarder(publisher, cfg.Registry.ForwardReserve)

	// -------------------------------------------------------------------------
	// Settlement Service

	locks := node.NewAssetLock()

	service := &settlement.Service{
		DB:        masterDB,
		Registry:  cfg.Registry.Name,
		Locks:     locks,
		Forwarder: forwarder,
	}

	// -------------------------------------------------------------------------
	// Deposit Reconciliation

	sch := scheduler.Scheduler{}

	reconcile := scheduler.NewPeriodicProcess("reconcile-deposits",
		&deposit.ReconcileJob{DB: masterDB, Registry: cfg.Registry.Name},
		time.Duration(cfg.Reconcile.FrequencySec)*time.Second)

	if err := sch.ScheduleJob(ctx, reconcile); err != nil {
		logger.Fatal(ctx, "main : Schedule Reconcile Job : %s", err)
	}

	schedulerErrors := make(chan error, 1)
	go func() {
		schedulerErrors <- sch.Run(ctx)
	}()

	// -------------------------------------------------------------------------
	// Start API Service

	api := http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handlers.API(masterDB, cfg.Registry.Name, locks, service),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info(ctx, "main : API listening on %s", cfg.HTTP.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		logger.Fatal(ctx, "main : Error starting server : %s", err)

	case err := <-schedulerErrors:
		logger.Fatal(ctx, "main : Scheduler stopped : %s", err)

	case <-osSignals:
		logger.Info(ctx, "main : Start shutdown...")

		if err := sch.Stop(ctx); err != nil {
			logger.Error(ctx, "main : Could not stop scheduler : %s", err)
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "main : Graceful shutdown did not complete : %s", err)
			if err := api.Close(); err != nil {
				logger.Fatal(ctx, "main : Could not stop http server : %s", err)
			}
		}
	}
}
