package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sagiri-relay/backend/global"
	"sagiri-relay/backend/initialize"
	"sagiri-relay/backend/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("SAGIRI_CONFIG"), "path to broker YAML config (optional)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initialize.Build(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init failed:", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Relay.Start(ctx); err != nil {
		global.Logger.Error().Err(err).Msg("sweeper")
		os.Exit(1)
	}
	if err := app.WatchConfig(); err != nil {
		global.Logger.Warn().Err(err).Msg("config hot reload disabled")
	}

	cfg := app.Cfg
	global.Logger.Info().
		Str("addr", cfg.Addr()).
		Dur("horizon", cfg.Sweep.Horizon).
		Str("files", cfg.Files.Backend).
		Msg("relay starting")

	srv := server.NewHTTPServer(cfg.Host, cfg.Port, app.Router, cfg.ShutdownTimeout)
	if err := srv.Serve(ctx); err != nil {
		global.Logger.Error().Err(err).Msg("http server stopped")
		app.Close()
		os.Exit(1)
	}
	global.Logger.Info().Msg("relay stopped")
}
