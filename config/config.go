// Package config holds the settings shared by the ecsfs commands.
package config

import (
	"io"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config is the configuration for the ecsfs commands.
type Config struct {
	// LogLevel is a logrus level name: trace, debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	// LogFormat is "text", "json" or "plain". Plain prints info messages
	// bare and everything else as text.
	LogFormat string `toml:"log_format"`
	// Lock takes an exclusive advisory lock on images while they are open.
	Lock bool `toml:"lock"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "warn",
		LogFormat: "plain",
		Lock:      true,
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, errors.Errorf("config %s: unknown key %q", path, undec[0].String())
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// Validate checks the log settings.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := formatter(c.LogFormat); err != nil {
		return err
	}
	return nil
}

var defaultLogFormatter = &log.TextFormatter{DisableTimestamp: true}

// plainFormatter prints info events as the bare message, for output meant
// to be read by people.
type plainFormatter struct{}

func (f *plainFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return defaultLogFormatter.Format(entry)
}

func formatter(name string) (log.Formatter, error) {
	switch name {
	case "", "plain":
		return new(plainFormatter), nil
	case "text":
		return defaultLogFormatter, nil
	case "json":
		return &log.JSONFormatter{}, nil
	}
	return nil, errors.Errorf("unknown log format %q", name)
}

// NewLogger returns a logger writing to w at the configured level and format.
func (c *Config) NewLogger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	f, err := formatter(c.LogFormat)
	if err != nil {
		return nil, err
	}
	l := log.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(f)
	return l, nil
}
