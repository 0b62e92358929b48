// Command graphrun is the reference host embedding the hgraph-go
// runtime: it loads configuration, builds a small demo graph, and runs it
// to completion (simulation clock) or until interrupted (realtime
// clock). Adapted from the teacher's cmd/indengine/main.go: same
// load-config / build-signal-context / run-to-completion-or-interrupt
// shape, thinned to a few lines now that internal/graphrun.Service holds
// the wiring.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/graphrun"
	"github.com/hgraph-go/runtime/internal/runtimeconfig"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[graphrun] starting...")

	cfg := runtimeconfig.Load()

	svc, err := graphrun.New(*cfg)
	if err != nil {
		log.Fatalf("[graphrun] init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[graphrun] shutdown signal received")
		cancel()
	}()

	end := clock.EngineTime(100)
	if cfg.ClockMode == "realtime" {
		end = clock.MaxDT
	}

	if err := svc.Run(ctx, end); err != nil {
		log.Fatalf("[graphrun] run failed: %v", err)
	}
	log.Println("[graphrun] stopped cleanly")
}
