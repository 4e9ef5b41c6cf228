package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/aravindh-murugesan/delayctl-go/internal/delay"
	"github.com/aravindh-murugesan/delayctl-go/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. DELAYCTL_BACKOFF_MAX=1m.
const EnvPrefix = "DELAYCTL"

// Keys shared by the config file, the environment and the CLI flag bindings.
const (
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeySeed          = "seed"
	KeyTimeout       = "timeout"
	KeyBackoffBase   = "backoff.base"
	KeyBackoffMax    = "backoff.max"
	KeyJitterFactor  = "jitter.factor"
	KeyDaemonSched   = "daemon.schedule"
	KeySplayMin      = "daemon.splay_min"
	KeySplayMax      = "daemon.splay_max"
	KeyDaemonAddress = "daemon.bind_address"
)

type Config struct {
	// Logging level (debug, info, warn, error) and format (text, json).
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Seed for the random source behind jitter and random ranges.
	// Zero means a fresh, non-reproducible source.
	Seed int64 `mapstructure:"seed"`

	// Upper bound for a whole command; zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`

	Backoff BackoffConfig `mapstructure:"backoff"`
	Jitter  JitterConfig  `mapstructure:"jitter"`
	Daemon  DaemonConfig  `mapstructure:"daemon"`
}

type BackoffConfig struct {
	// Wait for attempt zero; doubled for every further attempt.
	Base time.Duration `mapstructure:"base"`
	// Cap on any single backoff wait.
	Max time.Duration `mapstructure:"max"`
}

type JitterConfig struct {
	// Fraction of the base delay that may be added at random. Values above
	// one are clamped to one; zero or less disables jitter.
	Factor float64 `mapstructure:"factor"`
}

type DaemonConfig struct {
	// Standard five-field cron expression, evaluated in UTC.
	Schedule string `mapstructure:"schedule"`
	// Each tick is released after a random splay in [SplayMin, SplayMax].
	SplayMin time.Duration `mapstructure:"splay_min"`
	SplayMax time.Duration `mapstructure:"splay_max"`
	// Address for the scheduler dashboard; empty disables it.
	BindAddress string `mapstructure:"bind_address"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: logging.FormatText,
		Backoff: BackoffConfig{
			Base: delay.DefaultBackoffBase,
			Max:  delay.DefaultBackoffMax,
		},
		Jitter: JitterConfig{
			Factor: delay.DefaultJitterFactor,
		},
		Daemon: DaemonConfig{
			Schedule: "*/10 * * * *",
			SplayMin: 0,
			SplayMax: 30 * time.Second,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeySeed, d.Seed)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyBackoffBase, d.Backoff.Base)
	v.SetDefault(KeyBackoffMax, d.Backoff.Max)
	v.SetDefault(KeyJitterFactor, d.Jitter.Factor)
	v.SetDefault(KeyDaemonSched, d.Daemon.Schedule)
	v.SetDefault(KeySplayMin, d.Daemon.SplayMin)
	v.SetDefault(KeySplayMax, d.Daemon.SplayMax)
	v.SetDefault(KeyDaemonAddress, d.Daemon.BindAddress)
}

// Load resolves the configuration from, in increasing priority: defaults,
// the optional config file at path (YAML, JSON or TOML), DELAYCTL_*
// environment variables and any flags already bound to v.
func Load(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrReadConfigFail, path, err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigParsingFail, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot be acted upon. Delay durations and
// the jitter factor are not checked here: the delay package normalises them
// on every call.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative, got %s", ErrInvalidConfig, c.Timeout)
	}
	if c.Daemon.SplayMin > c.Daemon.SplayMax {
		return fmt.Errorf("%w: splay_min %s is greater than splay_max %s",
			ErrInvalidConfig, c.Daemon.SplayMin, c.Daemon.SplayMax)
	}
	if _, err := cron.ParseStandard(c.Daemon.Schedule); err != nil {
		return fmt.Errorf("%w: daemon schedule %q: %w", ErrInvalidConfig, c.Daemon.Schedule, err)
	}
	return nil
}
