package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string          `mapstructure:"mode"`
	Port            int             `mapstructure:"port"`
	Secret          string          `mapstructure:"secret"`
	LogLevel        string          `mapstructure:"log_level"`
	ICEServers      []string        `mapstructure:"ice_servers"`
	Negotiation     string          `mapstructure:"negotiation"`
	GatherTimeout   time.Duration   `mapstructure:"gather_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string        `mapstructure:"cors_origins"`
	Stream          StreamConfig    `mapstructure:"stream"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
	Events          EventsConfig    `mapstructure:"events"`
}

type StreamConfig struct {
	FPS       int    `mapstructure:"fps"`
	Transform string `mapstructure:"transform"`
	MTU       int    `mapstructure:"mtu"`
}

// RateLimitConfig bounds start_stream calls per client; Start <= 0 disables it.
type RateLimitConfig struct {
	Start    int           `mapstructure:"start"`
	Interval time.Duration `mapstructure:"interval"`
}

type EventsConfig struct {
	Buffer int `mapstructure:"buffer"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("secret", "stagestream-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("negotiation", "offer")
	v.SetDefault("gather_timeout", "10s")
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("stream.fps", 30)
	v.SetDefault("stream.transform", "rotate")
	v.SetDefault("stream.mtu", 1200)
	v.SetDefault("rate_limit.start", 10)
	v.SetDefault("rate_limit.interval", "1m")
	v.SetDefault("events.buffer", 32)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("stagestream", pflag.ContinueOnError)
	fs.String("mode", "", "gin mode: release or debug")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("log-level", "", "zerolog level")
	fs.String("negotiation", "", "offer or answer")
	return fs
}

// Load reads config/config.<CONFIG_ENV>.yaml, then STAGESTREAM_* env vars,
// then command-line flags; later sources win.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		fileName = fmt.Sprintf("%s/config.%s.yaml", strings.TrimRight(dir, "/"), env)
	}

	v.SetConfigFile(fileName)
	setDefaults(v)

	v.SetEnvPrefix("STAGESTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	for key, flag := range map[string]string{
		"mode":        "mode",
		"port":        "port",
		"log_level":   "log-level",
		"negotiation": "negotiation",
	} {
		if f := fs.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("mode", cfg.Mode).Int("port", cfg.Port).Str("negotiation", cfg.Negotiation).Msg("config")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Negotiation {
	case "offer", "answer":
	default:
		return fmt.Errorf("invalid negotiation %q: want offer or answer", c.Negotiation)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Stream.FPS <= 0 {
		return fmt.Errorf("invalid stream.fps %d", c.Stream.FPS)
	}
	if c.Stream.MTU <= 0 || c.Stream.MTU > 65535 {
		return fmt.Errorf("invalid stream.mtu %d", c.Stream.MTU)
	}
	return nil
}
