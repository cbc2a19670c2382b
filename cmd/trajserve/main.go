// Command trajserve serves stored trajectory runs over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tracksmith/internal/api"
	"tracksmith/pkg/config"
	"tracksmith/pkg/db"
	"tracksmith/pkg/db/maintenance"
	"tracksmith/pkg/logging"
	"tracksmith/pkg/probe"
	"tracksmith/pkg/store"
	"tracksmith/pkg/tracker"
	"tracksmith/pkg/version"
)

var (
	configPath = flag.String("config", "configs/tracksmith.yaml", "Path to config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "trajserve: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Optional .env for deployment overrides; absence is fine.
	_ = godotenv.Load()

	appCfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if v := os.Getenv("TRACKSMITH_DB"); v != "" {
		appCfg.DB.Path = v
	}
	if v := os.Getenv("TRACKSMITH_ADDR"); v != "" {
		appCfg.Server.Address = v
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Trajserve started", "version", version.Version, "db", appCfg.DB.Path)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)
	defer st.Close()

	results := probe.Run(ctx, []probe.Probe{
		{Name: "Database", Check: dbConn.PingContext, Critical: true},
	})
	if err := probe.Analyze(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	if err := maintenance.Run(ctx, dbConn, maintenance.DefaultRetention); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	srv := api.NewServer(appCfg.Server.Address,
		api.NewRunHandler(st),
		api.NewTrajectoryHandler(st),
		api.NewStatsHandler(tracker.New()),
		cancel)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
