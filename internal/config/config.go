package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/procshim/internal/logger"
)

// EnvPIDFile supplies the PID file location from the environment. It takes
// precedence over the config file value and is read exactly once, in Load;
// nothing else consults the environment.
const EnvPIDFile = "PROCSHIM_PIDFILE"

// DefaultStopWait bounds how long stop polls for process death.
const DefaultStopWait = 5 * time.Second

var (
	ErrNoPIDFile = errors.New("config: no pidfile configured (set managed.pidfile or " + EnvPIDFile + ")")
	ErrNoBinary  = errors.New("config: managed.binary is required")
)

// Managed describes the single external binary under supervision.
// Immutable for the life of one invocation.
type Managed struct {
	Name       string        `mapstructure:"name"`
	Binary     string        `mapstructure:"binary"`
	Args       []string      `mapstructure:"args"`
	ConfigPath string        `mapstructure:"config"`   // passed through as -c
	PIDFile    string        `mapstructure:"pidfile"`  // passed through as -p
	LockFile   string        `mapstructure:"lockfile"` // sentinel marker path
	StopWait   time.Duration `mapstructure:"stop_wait"`
}

// HistoryConfig selects where lifecycle events are recorded. Empty DSN
// disables recording.
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ServerConfig configures the optional HTTP status/control API.
type ServerConfig struct {
	Listen   string `mapstructure:"listen"`
	BasePath string `mapstructure:"base_path"`
	Metrics  bool   `mapstructure:"metrics"`
}

// Config is the explicit configuration threaded through constructors.
type Config struct {
	Managed Managed       `mapstructure:"managed"`
	Log     logger.Config `mapstructure:"log"`
	History HistoryConfig `mapstructure:"history"`
	Server  ServerConfig  `mapstructure:"server"`
}

// Load reads the TOML file at path (optional: empty path loads defaults only),
// applies the PROCSHIM_PIDFILE override, fills defaults, and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	var cfg Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if env := os.Getenv(EnvPIDFile); env != "" {
		cfg.Managed.PIDFile = env
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	m := &c.Managed
	if m.Name == "" && m.Binary != "" {
		m.Name = filepath.Base(m.Binary)
	}
	if m.LockFile == "" && m.Name != "" {
		m.LockFile = filepath.Join("/var/lock/subsys", m.Name)
	}
	if m.StopWait <= 0 {
		m.StopWait = DefaultStopWait
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/api"
	}
}

// Validate enforces the minimum a supervisor invocation needs.
func (c *Config) Validate() error {
	if c.Managed.Binary == "" {
		return ErrNoBinary
	}
	if c.Managed.PIDFile == "" {
		return ErrNoPIDFile
	}
	return nil
}

// LauncherArgs returns the argv passed to the managed binary: configured
// extra args plus the -c/-p passthrough.
func (m Managed) LauncherArgs() []string {
	args := append([]string(nil), m.Args...)
	if m.ConfigPath != "" {
		args = append(args, "-c", m.ConfigPath)
	}
	args = append(args, "-p", m.PIDFile)
	return args
}
