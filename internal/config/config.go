package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aurachat/aurasync/internal/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Typing    TypingConfig
	Translate TranslateConfig
	Archive   ArchiveConfig
	Log       log.Config
}

// ServerConfig locates the backend the client talks to.
type ServerConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	WSBaseURL   string        `mapstructure:"ws_base_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type TypingConfig struct {
	// DebounceQuiet is how long after the last keystroke the sender
	// emits is_typing=false.
	DebounceQuiet time.Duration `mapstructure:"debounce_quiet"`
	// IndicatorTTL is the receiver-side self-clear for typing entries
	// whose is_typing=false event never arrives.
	IndicatorTTL time.Duration `mapstructure:"indicator_ttl"`
}

type TranslateConfig struct {
	// CacheCapacity bounds the number of (room, language) cache entries.
	CacheCapacity int `mapstructure:"cache_capacity"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func Load() (*Config, error) {
	v, err := read("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.base_url", "http://localhost:8000/api")
	v.SetDefault("server.ws_base_url", "ws://localhost:8000/ws")
	v.SetDefault("server.http_timeout", "15s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("typing.debounce_quiet", "2s")
	v.SetDefault("typing.indicator_ttl", "10s")
	v.SetDefault("translate.cache_capacity", 64)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.path", "aurasync.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// Override from environment
	v.BindEnv("server.base_url", "AURASYNC_BASE_URL")
	v.BindEnv("server.ws_base_url", "AURASYNC_WS_BASE_URL")
	v.BindEnv("archive.enabled", "AURASYNC_ARCHIVE")
	v.BindEnv("archive.path", "AURASYNC_ARCHIVE_PATH")
	v.BindEnv("log.level", "AURASYNC_LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.HTTPTimeout = parseDuration(v, "server.http_timeout", 15*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Typing.DebounceQuiet = parseDuration(v, "typing.debounce_quiet", 2*time.Second)
	cfg.Typing.IndicatorTTL = parseDuration(v, "typing.indicator_ttl", 10*time.Second)

	return &cfg, nil
}

// read loads configuration from file and environment variables.
func read(configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil // Config file not found, rely on env vars
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}
