package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pdptracker/internal/amqp"
	"pdptracker/internal/cli"
	"pdptracker/internal/config"
	"pdptracker/internal/log"
	"pdptracker/internal/roster"
	gsheet "pdptracker/internal/sheets/google"
	"pdptracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting pdptracker-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("The mirror worker reads the sqlite database; set DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.MirrorEnabled() {
		logger.Error("The mirror worker needs AMQP_URL and GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	people, err := roster.Load(cfg.RosterFile)
	if err != nil {
		logger.Error("Failed to load roster", log.FieldError, err, "path", cfg.RosterFile)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheets, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Roster:          people,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker only reads the repository, so read errors stay visible and
	// change events are never re-published.
	mirror := worker.NewMirrorWorker(repo, sheets, sheets)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	logger.Info("Rebuilding mirror from the database")
	if err := mirror.Rebuild(ctx); err != nil {
		logger.Error("Startup rebuild failed", log.FieldError, err)
	}

	go func() {
		ticker := time.NewTicker(cfg.MirrorResyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mirror.Rebuild(ctx); err != nil {
					logger.Error("Periodic rebuild failed", log.FieldError, err)
				}
			}
		}
	}()

	go func() {
		if err := amqpClient.ConsumeEntryChanged(ctx, mirror.HandleEntryChanged); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
