package initialize

import (
	"io"
	"os"
	"time"

	"sagiri-relay/backend/config"
	"sagiri-relay/backend/global"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

func init() {
	// basic zerolog setup: console writer to stdout
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	global.Logger = log.Output(cw)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogger builds the global logger. When a path is set, JSON logs are
// also written to a rotating file. Call it before any goroutine logs.
func SetupLogger(cfg config.Log) io.Closer {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	var closer io.Closer = nopCloser{}
	if cfg.Path != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
		closer = rotator
	}
	global.Logger = zerolog.New(out).With().Timestamp().Logger()
	if err := SetLevel(cfg.Level); err != nil {
		global.Logger.Warn().Err(err).Str("level", cfg.Level).Msg("unknown log level, using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return closer
}

// SetLevel changes the process-wide log level. Safe to call while
// requests are being logged.
func SetLevel(name string) error {
	if name == "" {
		name = "info"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
