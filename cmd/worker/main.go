package main

import (
	"context"
	"flag"
	"log"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/app/bootstrap"
)

// The worker only drains view events; it serves no ports, so it can run on
// the same host as the api.
func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to the YAML config file")
	flag.Parse()

	ctx := context.Background()
	rt, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap view count worker: %v", err)
	}
	if err := rt.RunWorker(ctx); err != nil {
		log.Fatalf("view count worker stopped: %v", err)
	}
}
