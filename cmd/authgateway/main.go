package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/glandu2/rzauth/internal/config"
	"github.com/glandu2/rzauth/internal/gateway"
	"github.com/glandu2/rzauth/internal/store"
)

const ConfigPath = "config/authgateway.yaml"

// buildSHA is set at build time via -ldflags
// "-X main.buildSHA=$(git rev-parse HEAD)"; it feeds the VERSION "INFO"
// probe clients use to fingerprint the running deployment (spec.md
// §4.E.1). Left at its zero value, parseInfoValue falls back to 0.
var buildSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	slog.Info("rzauth auth gateway starting")

	cfgPath := ConfigPath
	if p := os.Getenv("RZAUTH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded",
		"clientBind", cfg.Auth.Client.ListenIP, "clientPort", cfg.Auth.Client.Port,
		"gameBind", cfg.Auth.Game.ListenIP, "gamePort", cfg.Auth.Game.Port)

	st, err := store.Open(ctx, cfg.Auth.DB.ConnectionString)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()
	slog.Info("database connected")

	sv := gateway.NewServer(cfg, st, buildSHA)
	defer sv.Close()

	if err := sv.Run(ctx); err != nil {
		return fmt.Errorf("running gateway server: %w", err)
	}

	return nil
}
