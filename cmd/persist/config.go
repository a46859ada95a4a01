package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/privacy"
)

// Config is the persist configuration, read from persist.yaml, PERSIST_*
// environment variables and flags, in increasing precedence.
type Config struct {
	// Schema is the path of the YAML model schema.
	Schema string `mapstructure:"schema"`

	// Dialect is one of postgres, mysql or sqlite. It also names the
	// database/sql driver.
	Dialect string `mapstructure:"dialect"`

	// DSN is the data source name passed to the driver.
	DSN string `mapstructure:"dsn"`

	// Debug logs every statement.
	Debug bool `mapstructure:"debug"`

	// Stats logs statement statistics when the command ends.
	Stats bool `mapstructure:"stats"`

	// Deny lists the operations refused by the write policy: insert,
	// update or delete.
	Deny []string `mapstructure:"deny"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	configName = "persist"
	envPrefix  = "PERSIST"
)

// flagKeys maps configuration keys to their persistent flags.
var flagKeys = map[string]string{
	"schema":     "schema",
	"dialect":    "dialect",
	"dsn":        "dsn",
	"debug":      "debug",
	"stats":      "stats",
	"deny":       "deny",
	"log.level":  "log-level",
	"log.format": "log-format",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadConfig reads the configuration. An explicit path must exist; without
// one, a persist.yaml in the working directory is read if present.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	var cfg Config
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := dialect.Check(cfg.Dialect); err != nil {
		return cfg, err
	}
	if _, err := cfg.policy(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var ops = map[string]persist.Op{
	"insert": persist.OpInsert,
	"update": persist.OpUpdate,
	"delete": persist.OpDelete,
}

// policy returns the write policy refusing the denied operations, or nil
// when nothing is denied.
func (c Config) policy() (privacy.MutationRule, error) {
	var policy privacy.MutationPolicy
	for _, name := range c.Deny {
		op, ok := ops[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown operation %q in deny", name)
		}
		policy = append(policy, privacy.DenyMutationOperationRule(op))
	}
	if len(policy) == 0 {
		return nil, nil
	}
	return policy, nil
}

// newLogger returns a text or JSON logger writing to w. Debug lowers the
// level so statement logs are visible.
func newLogger(w io.Writer, cfg Config) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if cfg.Debug {
		level = min(level, slog.LevelDebug)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
}
