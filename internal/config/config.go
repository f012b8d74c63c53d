// Package config loads sharenv server settings from defaults, an optional
// config file, SHARENV_* environment variables and command-line flags.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SHARENV"

// Config holds the server settings.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" validate:"required,hostname_port"`
	VarsDir         string        `mapstructure:"vars_dir" yaml:"vars_dir" validate:"required"`
	AliasesFile     string        `mapstructure:"aliases_file" yaml:"aliases_file"`
	Debounce        time.Duration `mapstructure:"debounce" yaml:"debounce" validate:"gte=0"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	LogLevel        string        `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins" validate:"dive,startswith=http://|startswith=https://|eq=*"`
}

// Defaults.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = "5000"
	DefaultVarsDir         = "./vars"
	DefaultAliasesFile     = "./aliases"
	DefaultDebounce        = 200 * time.Millisecond
	DefaultPollInterval    = 2 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultLogLevel        = "info"
)

var validate = validator.New()

// New returns a viper instance with sharenv defaults and environment
// bindings. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	// addr has no default so that host and port apply unless it is set.
	v.SetDefault("addr", "")
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("vars_dir", DefaultVarsDir)
	v.SetDefault("aliases_file", DefaultAliasesFile)
	v.SetDefault("debounce", DefaultDebounce)
	v.SetDefault("poll_interval", DefaultPollInterval)
	v.SetDefault("shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("cors_origins", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Unprefixed HOST and PORT are honored for container platforms.
	_ = v.BindEnv("host", EnvPrefix+"_HOST", "HOST") //nolint:errcheck // only fails without a key
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT") //nolint:errcheck // only fails without a key
	return v
}

// Load reads the optional config file at path into v and returns the
// validated Config. An empty path skips the file.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = net.JoinHostPort(v.GetString("host"), v.GetString("port"))
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
