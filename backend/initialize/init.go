package initialize

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"sagiri-relay/backend/app/relay"
	"sagiri-relay/backend/app/repo"
	"sagiri-relay/backend/app/services"
	"sagiri-relay/backend/config"
	"sagiri-relay/backend/global"
	"sagiri-relay/backend/router"
)

type App struct {
	Cfg        *config.Config
	ConfigPath string
	Relay      *relay.Relay
	Router     http.Handler
	logCloser  io.Closer
}

func Build(ctx context.Context, configPath string) (*App, error) {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	global.Config = *cfg
	logCloser := SetupLogger(cfg.Log)

	retention := services.NewRetention(cfg.Sweep.Horizon)
	blobs, err := NewBlobRepository(ctx, cfg.Files, BlobTTL(retention))
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	r, err := relay.New(relay.Options{
		Retention:       retention,
		SweepSchedule:   cfg.Sweep.Schedule,
		MaxCommands:     cfg.MaxCommands,
		MaxKeyboard:     cfg.MaxKeyboard,
		MicCapacity:     cfg.MicCapacity,
		SpeakerCapacity: cfg.SpeakerCapacity,
		Blobs:           blobs,
		MaxUpload:       cfg.Files.MaxUpload,
		Logger:          global.Logger,
	})
	if err != nil {
		_ = blobs.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("build relay: %w", err)
	}

	h := router.NewRouter(router.NewControllers(r))
	return &App{Cfg: cfg, ConfigPath: configPath, Relay: r, Router: h, logCloser: logCloser}, nil
}

// BlobTTL keeps redis blobs alive for twice the current horizon, so a
// horizon raised at runtime never expires a blob before its record.
func BlobTTL(retention *services.Retention) func() time.Duration {
	return func() time.Duration { return 2 * retention.Horizon() }
}

// NewBlobRepository picks the file storage backend. ttl only applies to
// redis, where it bounds blobs orphaned by a restart.
func NewBlobRepository(ctx context.Context, cfg config.Files, ttl func() time.Duration) (repo.BlobRepository, error) {
	switch cfg.Backend {
	case "redis":
		blobs, err := repo.NewRedisBlobRepository(ctx, repo.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      ttl,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		global.Logger.Info().Str("addr", cfg.Redis.Addr).Msg("file storage: redis")
		return blobs, nil
	default:
		blobs, err := repo.NewDiskBlobRepository(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("file storage: %w", err)
		}
		global.Logger.Info().Str("dir", blobs.Dir()).Msg("file storage: disk")
		return blobs, nil
	}
}

// WatchConfig applies runtime-changeable settings (sweep horizon, log
// level) when the config file is edited.
func (a *App) WatchConfig() error {
	if a.ConfigPath == "" {
		return nil
	}
	return config.Watch(a.ConfigPath, func(cfg *config.Config) {
		if cfg.Sweep.Horizon != a.Relay.Horizon() {
			a.Relay.SetHorizon(cfg.Sweep.Horizon)
		}
		if err := SetLevel(cfg.Log.Level); err != nil {
			global.Logger.Warn().Err(err).Msg("ignoring log level change")
		}
	}, func(err error) {
		global.Logger.Warn().Err(err).Msg("config reload rejected")
	})
}

func (a *App) Close() error {
	err := a.Relay.Close()
	_ = a.logCloser.Close()
	return err
}
