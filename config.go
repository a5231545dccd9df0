package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the top-level server configuration, read from a YAML file
// with command-line flag overrides.
type Config struct {
	Listen   ListenConfig `mapstructure:"listen"`
	Dbfile   string       `mapstructure:"dbfile"`
	Mediadir string       `mapstructure:"mediadir"`
	Cachedir string       `mapstructure:"cachedir"`
	Logfile  string       `mapstructure:"logfile"`
	Notify   NotifyConfig `mapstructure:"notify"`
}

type ListenConfig struct {
	Port    int    `mapstructure:"port"`
	TlsCert string `mapstructure:"tlscert"`
	TlsKey  string `mapstructure:"tlskey"`
}

type NotifyConfig struct {
	// RefreshIntervalSec between periodic notification refreshes.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec"`
	// PushWebhook receives high-priority notifications. Empty
	// disables push.
	PushWebhook string `mapstructure:"push_webhook"`
}

func loadConfig() (*Config, error) {
	flags := pflag.NewFlagSet("amora-server", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "amora.yaml", "path of config file")
	flags.Int("listen.port", 8080, "port to listen on")
	flags.String("dbfile", "amora.db", "path of the sqlite database")
	flags.String("mediadir", "media", "directory with cover art and photos")
	flags.String("logfile", "", "log destination: path, 'stdout' or 'none'")
	flags.Parse(os.Args[1:])

	v := viper.New()
	v.SetConfigFile(*configFile)
	v.SetConfigType("yaml")

	v.SetDefault("listen.port", 8080)
	v.SetDefault("dbfile", "amora.db")
	v.SetDefault("mediadir", "media")
	v.SetDefault("cachedir", "")
	v.SetDefault("notify.refresh_interval_sec", 60)

	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// a missing config file is fine, flags and defaults apply
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", *configFile, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", *configFile, err)
	}
	return cfg, nil
}
