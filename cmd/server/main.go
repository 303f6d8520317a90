/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the inventory and sales tracker server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (env, .env), then apply command-line flags
  2. Build the zap logger
  3. Open the key-value store (bolt, sqlite or memory)
  4. Create catalog, ledger and API handler
  5. Optionally seed a scenario into an empty catalog
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides SERVER_PORT)
  -driver  Store driver: bolt, sqlite or memory (overrides STORE_DRIVER)
  -db      Store file path (overrides STORE_PATH)
  -seed    Scenario name or YAML path (overrides SEED_SCENARIO)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SHUTDOWN_TIMEOUT)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with the default bolt file
  ./server

  # Run with SQLite
  ./server -driver=sqlite -db="./data/stock.sqlite"

  # Throwaway demo
  ./server -driver=memory -seed=demo

SEE ALSO:
  - internal/config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/bolt/bolt.go, store/sqlite/sqlite.go: Storage backends
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/MrDieggo/controleEstoque-app/api"
	"github.com/MrDieggo/controleEstoque-app/internal/config"
	"github.com/MrDieggo/controleEstoque-app/internal/lifecycle"
	"github.com/MrDieggo/controleEstoque-app/pkg/logger"
	"github.com/MrDieggo/controleEstoque-app/seed"
	"github.com/MrDieggo/controleEstoque-app/stock"
	memstore "github.com/MrDieggo/controleEstoque-app/stock/store"
	"github.com/MrDieggo/controleEstoque-app/store/bolt"
	"github.com/MrDieggo/controleEstoque-app/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Flags
	port := flag.String("port", cfg.HTTP.Port, "HTTP server port")
	driver := flag.String("driver", cfg.Store.Driver, "store driver: bolt, sqlite or memory")
	dbPath := flag.String("db", cfg.Store.Path, "store file path")
	scenario := flag.String("seed", cfg.Seed.Scenario, "scenario to load into an empty catalog")
	flag.Parse()

	cfg.HTTP.Port = *port
	cfg.Store.Driver = *driver
	cfg.Store.Path = *dbPath
	cfg.Seed.Scenario = *scenario
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	ctx := manager.Listen(context.Background())

	// Initialize store
	kv, closeStore, err := openStore(cfg.Store)
	if err != nil {
		zapLogger.Fatal("failed to open store",
			zap.String("driver", cfg.Store.Driver),
			zap.String("path", cfg.Store.Path),
			zap.Error(err),
		)
	}
	manager.Register("store", func(context.Context) error { return closeStore() })
	zapLogger.Info("store opened", zap.String("driver", cfg.Store.Driver), zap.String("path", cfg.Store.Path))

	catalog := stock.NewCatalog(kv, zapLogger.Named("catalog"))
	ledger := stock.NewLedger(catalog, zapLogger.Named("ledger"))

	if cfg.Seed.Scenario != "" {
		if err := seedIfEmpty(ctx, cfg.Seed.Scenario, catalog, ledger, zapLogger); err != nil {
			zapLogger.Error("seed failed", zap.String("scenario", cfg.Seed.Scenario), zap.Error(err))
		}
	}

	handler := api.NewHandler(catalog, ledger, zapLogger.Named("http"))
	router := api.NewRouter(handler, cfg.HTTP.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	manager.Register("http", server.Shutdown)

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		zapLogger.Error("server failed", zap.Error(err))
	}

	zapLogger.Info("shutting down")
	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("shutdown incomplete", zap.Error(err))
		return
	}
	zapLogger.Info("server stopped")
}

// openStore returns the configured backend and its close function.
func openStore(cfg config.StoreConfig) (stock.TxKV, func() error, error) {
	switch cfg.Driver {
	case config.DriverBolt:
		s, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverMemory:
		return memstore.NewMemory(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// seedIfEmpty loads a scenario only into a store with no products, so a
// restart does not duplicate the demo data.
func seedIfEmpty(ctx context.Context, ref string, catalog *stock.Catalog, ledger *stock.Ledger, zapLogger *zap.Logger) error {
	products, err := catalog.List(ctx)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		zapLogger.Info("catalog not empty, skipping seed", zap.Int("products", len(products)))
		return nil
	}

	sc, err := seed.Resolve(ref)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, sc, catalog, ledger)
	if err != nil {
		return err
	}
	zapLogger.Info("scenario seeded",
		zap.String("scenario", res.Scenario),
		zap.Int("products", res.Products),
		zap.Int("sales", res.Sales),
	)
	return nil
}
