package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	// DEFAULTINTERVAL is the time between passes of serve.
	DEFAULTINTERVAL = 24 * time.Hour

	// DEFAULTMAXAGE is how long a downloaded list is reused.
	DEFAULTMAXAGE = 48 * time.Hour
)

type Config struct {
	Sources   Sources   `mapstructure:"sources" yaml:"sources"`
	Custom    []string  `mapstructure:"custom" yaml:"custom,omitempty"`
	Blacklist string    `mapstructure:"blacklist" yaml:"blacklist,omitempty"`
	Whitelist string    `mapstructure:"whitelist" yaml:"whitelist,omitempty"`
	TLD       TLDConfig `mapstructure:"tld" yaml:"tld"`
	Output    Output    `mapstructure:"output" yaml:"output"`
	Serve     Serve     `mapstructure:"serve" yaml:"serve"`
	Workers   int       `mapstructure:"workers" yaml:"workers,omitempty"`
}

type TLDConfig struct {
	Table     string `mapstructure:"table" yaml:"table,omitempty"`
	Blacklist string `mapstructure:"blacklist" yaml:"blacklist,omitempty"`
	Whitelist string `mapstructure:"whitelist" yaml:"whitelist,omitempty"`
}

type Output struct {
	Format    string `mapstructure:"format" yaml:"format"`
	Block     string `mapstructure:"block" yaml:"block,omitempty"`
	Allow     string `mapstructure:"allow" yaml:"allow,omitempty"`
	IP        string `mapstructure:"ip" yaml:"ip,omitempty"`
	BlockFile string `mapstructure:"block_file" yaml:"block_file,omitempty"`
	AllowFile string `mapstructure:"allow_file" yaml:"allow_file,omitempty"`
	SQLite    string `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	CDB       string `mapstructure:"cdb" yaml:"cdb,omitempty"`
	Metrics   string `mapstructure:"metrics" yaml:"metrics,omitempty"`
}

type Serve struct {
	Listen   string        `mapstructure:"listen" yaml:"listen"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	MaxAge   time.Duration `mapstructure:"max_age" yaml:"max_age"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output.format", PLAINFORMAT)
	v.SetDefault("output.ip", "0.0.0.0")
	v.SetDefault("serve.listen", "127.0.0.1:8053")
	v.SetDefault("serve.interval", DEFAULTINTERVAL)
	v.SetDefault("serve.max_age", DEFAULTMAXAGE)
	v.SetDefault("workers", defaultWorkers)
}

// LoadConfig decodes the configuration held by v and checks everything
// that can be checked without reading a source.
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	err := v.Unmarshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations which could only produce a partial or
// unusable blocklist.
func (c *Config) Validate() error {
	err := c.Plan().Validate()
	if err != nil {
		return err
	}

	_, err = c.Output.Formatter()
	if err != nil {
		return err
	}

	if c.Output.BlockFile == "" && c.Output.SQLite == "" && c.Output.CDB == "" {
		return fmt.Errorf("no output configured")
	}

	if c.Serve.Interval < 0 || c.Serve.MaxAge < 0 {
		return fmt.Errorf("serve durations must not be negative")
	}

	return nil
}
