package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sagiri-relay/agent/internal/config"
	"sagiri-relay/agent/internal/db"
	"sagiri-relay/agent/internal/device"
	"sagiri-relay/agent/internal/logger"
	"sagiri-relay/agent/internal/service"
	"sagiri-relay/agent/internal/state"
	"sagiri-relay/network"
)

func main() {
	var (
		cfgPath  = flag.String("config", os.Getenv("SAGIRI_AGENT_CONFIG"), "Path to configuration file")
		server   = flag.String("server", "", "Relay URL (overrides config and RELAY_SERVER)")
		deviceID = flag.String("device-id", "", "Device id (default: derived from uname)")
	)
	flag.Parse()

	cfg, err := config.Init(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot load config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogPath, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "Cannot open log file:", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.ServerURL = *server
	}
	if *deviceID != "" {
		cfg.DeviceID = *deviceID
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = device.ID()
	}
	state.SetDeviceID(cfg.DeviceID)

	gdb, err := db.Init(cfg.DBPath)
	if err != nil {
		logger.Error("Cannot open SQLite: ", err)
		os.Exit(1)
	}
	ledger := db.NewLedger(gdb)
	if n, err := ledger.Prune(time.Now().Add(-24 * time.Hour)); err != nil {
		logger.Warnf("prune ledger: %v", err)
	} else if n > 0 {
		logger.Infof("pruned %d old executions", n)
	}

	client, err := network.New(cfg.ServerURL,
		network.WithDeviceID(cfg.DeviceID),
		network.WithTimeouts(network.Timeouts{
			Control: cfg.ControlTimeout,
			Normal:  cfg.NormalTimeout,
			Bulk:    cfg.BulkTimeout,
		}),
	)
	if err != nil {
		logger.Error("Invalid relay URL: ", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Ping(ctx); err != nil {
		logger.Warnf("relay %s not reachable yet: %v", client.BaseURL(), err)
	}

	injector := service.NewInjector(cfg.Injector)
	opts := service.Options{
		DeviceID:        cfg.DeviceID,
		CommandInterval: cfg.CommandInterval,
		KeyInterval:     cfg.KeyInterval,
		Screen: service.ScreenOptions{
			MaxWidth:  cfg.Screen.MaxWidth,
			MaxHeight: cfg.Screen.MaxHeight,
			AutoStart: cfg.Screen.AutoStart,
		},
		Audio: service.AudioOptions{
			Rate:         cfg.Audio.Rate,
			Channels:     cfg.Audio.Channels,
			ChunkBytes:   cfg.Audio.ChunkBytes,
			PollInterval: cfg.Audio.PollInterval,
		},
		Relay:       client,
		Ledger:      ledger,
		Pointer:     injector,
		Keys:        injector,
		ScreenState: state.NewScreen(cfg.Screen.Quality, cfg.Screen.Interval),
		AudioState:  &state.Audio{},
	}
	if cfg.Screen.Command != "" {
		opts.Capturer = service.CommandCapturer{Command: cfg.Screen.Command}
	}
	if cfg.Audio.SourceCmd != "" {
		opts.Mic = service.CommandSource{Command: cfg.Audio.SourceCmd}
	}
	if cfg.Audio.SinkCmd != "" {
		opts.Speaker = service.CommandSink{Command: cfg.Audio.SinkCmd}
	}

	logger.Infof("Agent %s connecting to %s", cfg.DeviceID, client.BaseURL())
	if err := service.New(opts).Run(ctx); err != nil {
		logger.Error("Agent stopped: ", err)
		os.Exit(1)
	}
	logger.Info("Agent stopped")
}
