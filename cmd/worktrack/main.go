package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worktrack/internal/clock"
	"worktrack/internal/config"
	"worktrack/internal/entity"
	"worktrack/internal/server"
	"worktrack/internal/storage"
	"worktrack/internal/storage/memory"
	"worktrack/internal/storage/postgres"
	"worktrack/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	addrFlag := flag.String("addr", cfg.Addr, "HTTP listen address")
	driverFlag := flag.String("driver", string(cfg.Driver), "Storage driver: memory, sqlite or postgres")
	dbFlag := flag.String("db", cfg.DBPath, "Path to sqlite database file")
	dsnFlag := flag.String("dsn", cfg.PostgresDSN, "Postgres connection string")
	staticFlag := flag.String("static", cfg.StaticDir, "Directory with built dashboard")
	levelFlag := flag.String("log-level", cfg.LogLevel.String(), "Log level: debug, info, warn or error")
	flag.Parse()

	cfg.Addr = *addrFlag
	cfg.Driver = config.Driver(*driverFlag)
	cfg.DBPath = *dbFlag
	cfg.PostgresDSN = *dsnFlag
	cfg.StaticDir = *staticFlag
	if cfg.LogLevel, err = config.ParseLevel(*levelFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	backend, err := openBackend(cfg, logger)
	if err != nil {
		logger.Error("unable to open storage", slog.String("driver", string(cfg.Driver)), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()

	store := entity.NewStore(backend, clock.Real(), logger, entity.Options{
		RequireTicketScope: cfg.RequireTicketScope,
	})
	srv := server.New(store, logger, server.Options{
		StaticDir:   cfg.StaticDir,
		CORSOrigins: cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("driver", string(cfg.Driver)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func openBackend(cfg config.Config, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; records are lost on exit")
		return memory.New(logger), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.DBPath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.Open(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
