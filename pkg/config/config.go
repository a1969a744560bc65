package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	Prod = "prod"
	Dev  = "dev"
	Test = "test"
)

// EnvPrefix is prepended to every environment override, e.g. REFPTR_STRESS_GOROUTINES.
const EnvPrefix = "REFPTR"

var (
	ErrUnknownEnv        = errors.New("unknown env")
	ErrInvalidStress     = errors.New("stress goroutines and iterations must be positive")
	ErrInvalidLogLevel   = errors.New("unknown log level")
	ErrMissingServerPort = errors.New("metrics server is enabled but port is empty")
)

type Config struct {
	Env      string   `mapstructure:"env" yaml:"env"`
	Logs     Logs     `mapstructure:"logs" yaml:"logs"`
	Demo     Demo     `mapstructure:"demo" yaml:"demo"`
	Stress   Stress   `mapstructure:"stress" yaml:"stress"`
	Metrics  Metrics  `mapstructure:"metrics" yaml:"metrics"`
	Tracker  Tracker  `mapstructure:"tracker" yaml:"tracker"`
	Shutdown Shutdown `mapstructure:"shutdown" yaml:"shutdown"`
}

type Logs struct {
	Level string `mapstructure:"level" yaml:"level"` // zerolog level name: debug, info, warn, error
}

type Demo struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled"`
	Scenarios []string `mapstructure:"scenarios" yaml:"scenarios"` // empty means all of them
}

type Stress struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled"`
	Goroutines       int           `mapstructure:"goroutines" yaml:"goroutines"`
	Iterations       int           `mapstructure:"iterations" yaml:"iterations"`               // copy+release pairs per goroutine
	ProgressInterval time.Duration `mapstructure:"progress_interval" yaml:"progress_interval"` // min interval between progress logs
}

type Metrics struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Name    string `mapstructure:"name" yaml:"name"`
	Port    string `mapstructure:"port" yaml:"port"`
}

type Tracker struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Shards      int           `mapstructure:"shards" yaml:"shards"`
	ReportAfter time.Duration `mapstructure:"report_after" yaml:"report_after"` // blocks older than this are reported on exit
}

type Shutdown struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", Dev)
	v.SetDefault("logs.level", "info")
	v.SetDefault("demo.enabled", true)
	v.SetDefault("demo.scenarios", []string{})
	v.SetDefault("stress.enabled", true)
	v.SetDefault("stress.goroutines", 8)
	v.SetDefault("stress.iterations", 100_000)
	v.SetDefault("stress.progress_interval", time.Second)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.name", "refptr.debug")
	v.SetDefault("metrics.port", "8020")
	v.SetDefault("tracker.enabled", true)
	v.SetDefault("tracker.shards", 64)
	v.SetDefault("tracker.report_after", time.Duration(0))
	v.SetDefault("shutdown.timeout", time.Minute)
}

// LoadConfig reads the yaml file at path. Variables from an optional .env file in the working
// directory are exported first, then every key may be overridden by REFPTR_<SECTION>_<KEY>.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config from %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Env {
	case Prod, Dev, Test:
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownEnv, c.Env)
	}

	switch strings.ToLower(c.Logs.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidLogLevel, c.Logs.Level)
	}

	if c.Stress.Enabled && (c.Stress.Goroutines <= 0 || c.Stress.Iterations <= 0) {
		return ErrInvalidStress
	}

	if c.Metrics.Enabled && c.Metrics.Port == "" {
		return ErrMissingServerPort
	}

	return nil
}

func (c *Config) IsProd() bool {
	return c.Env == Prod
}

// YAML renders the effective configuration, used for the startup log.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
