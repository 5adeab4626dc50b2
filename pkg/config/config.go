package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"byteshift/pkg/appdir"
	"byteshift/pkg/transform"
)

// EnvPrefix prefixes every environment override, e.g. BYTESHIFT_COMPRESSION.
const EnvPrefix = "BYTESHIFT"

type Config struct {
	LogLevel     string `mapstructure:"log_level"`
	LogDB        string `mapstructure:"log_db"` // empty disables the SQLite run log
	Compression  string `mapstructure:"compression"`
	ZstdLevel    string `mapstructure:"zstd_level"`
	ReportTiming bool   `mapstructure:"report_timing"`
	ConfigFile   string `mapstructure:"config_file"` // file actually read, if any
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		Compression:  string(transform.CompressionNone),
		ZstdLevel:    "default",
		ReportTiming: true,
		ConfigFile:   "byteshift", // searched without extension
	}
}

// Load reads configuration from defaults, the config file and the environment,
// in increasing order of precedence. With an empty path it searches ".",
// the application directory and /etc/byteshift/ for byteshift.yaml and a
// missing file is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(cfg.ConfigFile)
		v.AddConfigPath(".")
		v.AddConfigPath(appdir.Dir())
		v.AddConfigPath("/etc/byteshift/")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Defaults make every key visible to AutomaticEnv during Unmarshal.
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_db", cfg.LogDB)
	v.SetDefault("compression", cfg.Compression)
	v.SetDefault("zstd_level", cfg.ZstdLevel)
	v.SetDefault("report_timing", cfg.ReportTiming)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if _, err := transform.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("invalid compression: %w", err)
	}
	if _, err := transform.ParseZstdLevel(c.ZstdLevel); err != nil {
		return fmt.Errorf("invalid zstd_level: %w", err)
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
