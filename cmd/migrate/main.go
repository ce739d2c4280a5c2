package main

import (
	"fmt"
	"os"

	"github.com/YHTerrance/UniFrames/app"
)

func main() {
	_, log, store, err := app.Bootstrap(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap failed:", err)
		os.Exit(1)
	}
	defer store.Close()

	// Run migrations
	if err := store.Init(); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Health check
	if err := store.HealthCheck(); err != nil {
		log.WithError(err).Fatal("Database health check failed")
	}

	log.Info("All migrations completed successfully")
}
