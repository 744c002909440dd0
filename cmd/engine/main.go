package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"internmatch-engine/internal/config"
	"internmatch-engine/internal/events"
	"internmatch-engine/internal/httpapi"
	"internmatch-engine/internal/scheduler"
	"internmatch-engine/internal/store"
)

func main() {
	cfgPath := flag.String("config", filepath.Join("config", "config.yml"), "path to config file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("config load failed", zap.String("path", *cfgPath), zap.Error(err))
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, warn := range vr.Warnings {
		log.Warn("config", zap.String("warning", warn))
	}
	if !vr.OK() {
		// a missing primary DSN lands here; it is startup-fatal
		log.Fatal("config invalid", zap.Strings("errors", vr.Errors))
	}

	dataDir := cfg.App.DataDir
	if v := os.Getenv("INTERNMATCH_DATA_DIR"); v != "" {
		dataDir = v
	}
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal("data dir", zap.Error(err))
	}

	// One engine per data dir. A second instance would fight over the
	// sqlite files, so bail out early instead.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatal("data dir lock", zap.Error(err))
	}
	if !locked {
		log.Fatal("another engine instance holds the data dir", zap.String("dir", dataDir))
	}
	defer func() { _ = lock.Unlock() }()

	pools := store.NewPoolRegistry(log,
		cfg.Database.Primary,
		cfg.Database.ReplicaNorth,
		cfg.Database.ReplicaSouth,
		store.PoolOpts{
			MaxOpen:      cfg.Database.MaxOpenConns,
			MaxIdle:      cfg.Database.MaxIdleConns,
			ConnLifetime: cfg.Database.ConnLifetime(),
		})
	defer func() {
		if err := pools.CloseAll(); err != nil {
			log.Warn("closing pools", zap.Error(err))
		}
	}()

	primary, err := pools.Primary()
	if err != nil {
		log.Fatal("primary pool", zap.Error(err))
	}
	if err := store.Migrate(primary); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	hub := events.NewHub()
	deps := httpapi.Deps{
		Pools:    pools,
		Router:   store.NewRouter(pools),
		Postings: store.NewPostingStore(primary, log),
		Queries:  store.NewShardQueries(primary, log),
		Runs:     store.NewSequencer(primary, log),
		Hub:      hub,
		Log:      log,

		QueryTimeout: cfg.Database.QueryTimeout(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.Every(ctx, time.Duration(cfg.Health.ProbeSeconds)*time.Second, "health-probe", log,
		func(ctx context.Context) error {
			h := pools.CheckHealth(ctx)
			if !h.Primary {
				log.Warn("primary unhealthy")
			}
			return nil
		})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("listen", zap.String("addr", addr), zap.Error(err))
	}

	srv := &http.Server{
		Handler:           httpapi.Routes(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("engine listening", zap.String("addr", addr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}
