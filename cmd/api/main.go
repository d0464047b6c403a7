package main

import (
	"context"
	"flag"
	"log"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/app/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to the YAML config file")
	flag.Parse()

	ctx := context.Background()
	rt, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap stream access api: %v", err)
	}
	if err := rt.RunAPI(ctx); err != nil {
		log.Fatalf("stream access api stopped: %v", err)
	}
}
