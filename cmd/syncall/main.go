package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YHTerrance/UniFrames/app"
	"github.com/YHTerrance/UniFrames/services"
	"github.com/YHTerrance/UniFrames/services/objectstore"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Minute, "abort the run after this long")
	flag.Parse()

	cfg, log, store, err := app.Bootstrap(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap failed:", err)
		os.Exit(1)
	}
	defer store.Close()

	objects, err := objectstore.NewClient(objectstore.ConfigFromStorage(cfg.Storage))
	if err != nil {
		log.WithError(err).Fatal("Failed to create object store client")
	}

	db := store.GetDB()
	frameStore := services.NewFrameStore(db)
	resolver := services.NewUniversityResolver(db, log)
	syncer := services.NewFrameSyncService(db, frameStore, objects, resolver, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	report, err := syncer.SyncAll(ctx)
	if err != nil {
		log.WithError(err).Fatal("Bulk sync failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.WithError(err).Fatal("Failed to write report")
	}

	if len(report.Failed) > 0 {
		os.Exit(2)
	}
}
