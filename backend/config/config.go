package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Log struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Sweep struct {
	Horizon  time.Duration
	Schedule string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Files struct {
	Backend   string // "disk" or "redis"
	Dir       string
	MaxUpload int64
	Redis     Redis
}

type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	Log             Log
	Sweep           Sweep
	MaxCommands     int
	MaxKeyboard     int
	MicCapacity     int
	SpeakerCapacity int
	Files           Files
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix("SAGIRI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("broker.host", "0.0.0.0")
	v.SetDefault("broker.port", 5000)
	v.SetDefault("broker.shutdown_timeout", "10s")
	v.SetDefault("broker.log.level", "info")
	v.SetDefault("broker.log.path", "")
	v.SetDefault("broker.log.max_size_mb", 50)
	v.SetDefault("broker.log.max_backups", 5)
	v.SetDefault("broker.log.max_age_days", 14)
	v.SetDefault("broker.sweep.horizon", "1h")
	v.SetDefault("broker.sweep.schedule", "@every 5m")
	v.SetDefault("broker.commands.max_entries", 10000)
	v.SetDefault("broker.keyboard.max_entries", 10000)
	v.SetDefault("broker.audio.microphone_capacity", 50)
	v.SetDefault("broker.audio.speaker_capacity", 50)
	v.SetDefault("broker.files.backend", "disk")
	v.SetDefault("broker.files.dir", "")
	v.SetDefault("broker.files.max_upload_mb", 100)
	v.SetDefault("broker.files.redis.addr", "127.0.0.1:6379")
	v.SetDefault("broker.files.redis.password", "")
	v.SetDefault("broker.files.redis.db", 0)
	v.SetDefault("broker.files.redis.prefix", "sagiri:file:")
	return v
}

// Load reads path if given; without a file, defaults and SAGIRI_* env vars
// still apply (SAGIRI_BROKER_PORT=8080).
func Load(path string) (*Config, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:            v.GetString("broker.host"),
		Port:            v.GetInt("broker.port"),
		ShutdownTimeout: v.GetDuration("broker.shutdown_timeout"),
		Log: Log{
			Level:      v.GetString("broker.log.level"),
			Path:       v.GetString("broker.log.path"),
			MaxSizeMB:  v.GetInt("broker.log.max_size_mb"),
			MaxBackups: v.GetInt("broker.log.max_backups"),
			MaxAgeDays: v.GetInt("broker.log.max_age_days"),
		},
		Sweep: Sweep{
			Horizon:  v.GetDuration("broker.sweep.horizon"),
			Schedule: v.GetString("broker.sweep.schedule"),
		},
		MaxCommands:     v.GetInt("broker.commands.max_entries"),
		MaxKeyboard:     v.GetInt("broker.keyboard.max_entries"),
		MicCapacity:     v.GetInt("broker.audio.microphone_capacity"),
		SpeakerCapacity: v.GetInt("broker.audio.speaker_capacity"),
		Files: Files{
			Backend:   strings.ToLower(v.GetString("broker.files.backend")),
			Dir:       v.GetString("broker.files.dir"),
			MaxUpload: v.GetInt64("broker.files.max_upload_mb") << 20,
			Redis: Redis{
				Addr:     v.GetString("broker.files.redis.addr"),
				Password: v.GetString("broker.files.redis.password"),
				DB:       v.GetInt("broker.files.redis.db"),
				Prefix:   v.GetString("broker.files.redis.prefix"),
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("broker.port %d out of range", c.Port))
	}
	if c.Sweep.Horizon <= 0 {
		errs = append(errs, fmt.Errorf("broker.sweep.horizon must be positive"))
	}
	if c.Files.Backend != "disk" && c.Files.Backend != "redis" {
		errs = append(errs, fmt.Errorf("broker.files.backend %q: want disk or redis", c.Files.Backend))
	}
	if c.Files.MaxUpload < 0 {
		errs = append(errs, fmt.Errorf("broker.files.max_upload_mb must not be negative"))
	}
	return errors.Join(errs...)
}

// Watch re-reads path whenever it changes and hands the new config to
// onChange. Invalid edits are reported through onError and otherwise
// ignored. Only settings that can change at runtime should be applied by
// the caller.
func Watch(path string, onChange func(*Config), onError func(error)) error {
	if path == "" {
		return errors.New("watch config: no config file")
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			onError(fmt.Errorf("reload %s: %w", e.Name, err))
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
