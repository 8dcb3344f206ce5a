package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Screen struct {
	Interval  time.Duration
	Quality   int
	MaxWidth  int
	MaxHeight int
	// Command prints one PNG or JPEG screenshot to stdout. Empty means the
	// built-in test pattern.
	Command   string
	AutoStart bool
}

type Audio struct {
	Rate         int
	Channels     int
	ChunkBytes   int
	SourceCmd    string
	SinkCmd      string
	PollInterval time.Duration
}

type AppConfig struct {
	ServerURL       string
	DeviceID        string
	LogPath         string
	LogLevel        string
	DBPath          string
	CommandInterval time.Duration
	KeyInterval     time.Duration
	ControlTimeout  time.Duration
	NormalTimeout   time.Duration
	BulkTimeout     time.Duration
	Injector        string
	Screen          Screen
	Audio           Audio
}

var cfg AppConfig

// Init loads .env (if present), then the YAML file at path, then
// SAGIRI_AGENT_* environment overrides.
func Init(path string) (AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SAGIRI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("agent.server_url", "http://127.0.0.1:5000")
	v.SetDefault("agent.device_id", "")
	v.SetDefault("agent.log_path", "")
	v.SetDefault("agent.log_level", "info")
	v.SetDefault("agent.db_path", filepath.Join(os.TempDir(), "sagiri-relay", "agent.db"))
	v.SetDefault("agent.command_interval", "2s")
	v.SetDefault("agent.keyboard_interval", "500ms")
	v.SetDefault("agent.timeouts.control", "800ms")
	v.SetDefault("agent.timeouts.normal", "5s")
	v.SetDefault("agent.timeouts.bulk", "120s")
	v.SetDefault("agent.injector", "auto")
	v.SetDefault("agent.screen.interval", "500ms")
	v.SetDefault("agent.screen.quality", 70)
	v.SetDefault("agent.screen.max_width", 1920)
	v.SetDefault("agent.screen.max_height", 1080)
	v.SetDefault("agent.screen.command", "")
	v.SetDefault("agent.screen.autostart", false)
	v.SetDefault("agent.audio.rate", 48000)
	v.SetDefault("agent.audio.channels", 1)
	v.SetDefault("agent.audio.chunk_bytes", 8192)
	v.SetDefault("agent.audio.source_cmd", "")
	v.SetDefault("agent.audio.sink_cmd", "")
	v.SetDefault("agent.audio.poll_interval", "50ms")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, err
		}
	}

	cfg = AppConfig{
		ServerURL:       firstNonEmpty(os.Getenv("RELAY_SERVER"), v.GetString("agent.server_url")),
		DeviceID:        v.GetString("agent.device_id"),
		LogPath:         v.GetString("agent.log_path"),
		LogLevel:        v.GetString("agent.log_level"),
		DBPath:          v.GetString("agent.db_path"),
		CommandInterval: v.GetDuration("agent.command_interval"),
		KeyInterval:     v.GetDuration("agent.keyboard_interval"),
		ControlTimeout:  v.GetDuration("agent.timeouts.control"),
		NormalTimeout:   v.GetDuration("agent.timeouts.normal"),
		BulkTimeout:     v.GetDuration("agent.timeouts.bulk"),
		Injector:        v.GetString("agent.injector"),
		Screen: Screen{
			Interval:  v.GetDuration("agent.screen.interval"),
			Quality:   v.GetInt("agent.screen.quality"),
			MaxWidth:  v.GetInt("agent.screen.max_width"),
			MaxHeight: v.GetInt("agent.screen.max_height"),
			Command:   v.GetString("agent.screen.command"),
			AutoStart: v.GetBool("agent.screen.autostart"),
		},
		Audio: Audio{
			Rate:         v.GetInt("agent.audio.rate"),
			Channels:     v.GetInt("agent.audio.channels"),
			ChunkBytes:   v.GetInt("agent.audio.chunk_bytes"),
			SourceCmd:    v.GetString("agent.audio.source_cmd"),
			SinkCmd:      v.GetString("agent.audio.sink_cmd"),
			PollInterval: v.GetDuration("agent.audio.poll_interval"),
		},
	}
	return cfg, nil
}

func Get() AppConfig { return cfg }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
