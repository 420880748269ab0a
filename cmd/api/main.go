package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	leaseAPI "lease_economics/pkg/api/lease"
	"lease_economics/pkg/core/config"
	"lease_economics/pkg/core/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to engine.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	// Analysis store: Postgres when configured, JSON files otherwise
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := store.InitDB(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			fmt.Printf("[WARNING] Database unavailable, falling back to files: %v\n", err)
			store.Close()
		} else {
			pool = store.GetPool()
			defer store.Close()
		}
	}
	repo := store.NewAnalysisRepo(pool, cfg.Cache.Dir)
	fmt.Printf("[STORE] Using %s\n", repo.Backend())

	mux := http.NewServeMux()
	leaseAPI.NewHandler(cfg.Engine, repo).Register(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})

	fmt.Printf("API server starting on %s...\n", cfg.Addr())
	fmt.Println("  - POST /api/lease/analyze")
	fmt.Println("  - GET  /api/lease/analysis?lease_id=")
	fmt.Println("  - GET  /api/lease/analyses")
	fmt.Println("  - POST /api/lease/scenarios")
	fmt.Println("  - POST /api/lease/compare")
	fmt.Println("  - POST /api/lease/termination")
	fmt.Println("  - POST /api/lease/equivalency")
	fmt.Printf("  discount rate %.4f, amortization rate %.4f, top %d drivers\n",
		cfg.Engine.DiscountRate, cfg.Engine.AmortizationRate, cfg.Engine.DriverTopN)

	if err := http.ListenAndServe(cfg.Addr(), mux); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
