package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sproutlearn/sprout/internal/server"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		addr        string
		dbPath      string
		seed        bool
		showVersion bool
	)
	flag.StringVar(&addr, "addr", ":8000", "listen address")
	flag.StringVar(&dbPath, "db", "sprout.db", "sqlite database path")
	flag.BoolVar(&seed, "seed", false, "seed sample learning content")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("sproutd %s\n", Version)
		return
	}

	if err := run(addr, dbPath, seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, dbPath string, seed bool) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := server.OpenDB(dbPath)
	if err != nil {
		return err
	}

	if seed {
		if err := server.Seed(db, logger); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	srv := server.NewServer(addr, db, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	}
}
