// Command main is the entry point for the FocusHive backend. HTTP
// transport is out of scope (spec.md's Non-goals) — this process wires
// the core components and runs their background schedulers (presence
// stale sweep, timer startup reconciliation, partnership pending-request
// expiry) until signalled to stop.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sanctum/internal/bootstrap"
	"sanctum/internal/config"
)

const partnershipSweepInterval = 1 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("runtime initialization failed: %v", err)
	}

	if err := rt.Timer.Reconcile(ctx); err != nil {
		log.Printf("warning: timer reconciliation failed: %v", err)
	}

	rt.Presence.StartStaleSweep()

	rt.Scheduler.Every("partnership-pending-sweep", partnershipSweepInterval, func(ctx context.Context) {
		if err := rt.Buddy.ExpireStalePending(ctx); err != nil {
			log.Printf("warning: partnership pending sweep failed: %v", err)
		}
	})

	log.Println("focushive backend started")
	<-ctx.Done()

	log.Println("shutting down...")
	rt.Scheduler.Stop()

	sqlDB, err := rt.DB.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
}
