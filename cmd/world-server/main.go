package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"companion-world/internal/config"
	"companion-world/internal/logging"
	"companion-world/internal/session"
	"companion-world/internal/sim"
	"companion-world/internal/store"
	httptransport "companion-world/internal/transport/http"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	catalog, err := sim.LoadCatalog(cfg.Server.CatalogPath)
	if err != nil {
		return err
	}
	repo, err := store.Open(ctx, cfg.Server.StoreDriver, cfg.Server.DatabaseDSN, cfg.Server.AutoMigrate)
	if err != nil {
		return err
	}
	defer repo.Close()

	mgr := newManager(repo, catalog, cfg)
	mgr.StartJanitor(ctx, cfg.Server.JanitorInterval)
	defer mgr.Shutdown()

	r := httptransport.NewRouter(mgr, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.HTTPAddr).
			Str("store", cfg.Server.StoreDriver).
			Dur("tick_interval", cfg.Sim.TickInterval).
			Msg("http listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newManager(repo store.Repository, catalog *sim.Catalog, cfg config.AppConfig) *session.Manager {
	return session.NewManager(repo, session.Options{
		Tuning:       cfg.Sim.Tuning(),
		Catalog:      catalog,
		TickInterval: cfg.Sim.TickInterval,
		IdleTimeout:  cfg.Server.SessionIdleTimeout,
		Seed:         cfg.Sim.Seed,
	})
}
