// cmd/tools/config-seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/database"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/store"
)

// config-seeder creates the scoring tables and inserts the default field and
// factor configuration. Existing rows are left untouched, so it is safe to
// run against a populated database.
func main() {
	reset := flag.Bool("reset", false, "drop cached configuration snapshots after seeding")
	timeout := flag.Duration("timeout", 30*time.Second, "overall operation timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres connection failed: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres ping failed: %v\n", err)
		os.Exit(1)
	}

	// Redis is optional here: without it the seeder still works, the running
	// manager just serves stale snapshots until its cache TTL expires.
	var st *store.Store
	if *reset {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer rdb.Close()
		st = store.New(pg.DB, rdb.Client, 0, log)
	} else {
		st = store.New(pg.DB, nil, 0, log)
	}

	if err := st.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "schema migration failed: %v\n", err)
		os.Exit(1)
	}

	if err := st.Seed(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	if *reset {
		st.InvalidateCache(ctx)
	}

	fmt.Printf("Seeded %d fields and %d factor configurations\n",
		len(store.DefaultFields()), len(store.DefaultFactors()))
}
