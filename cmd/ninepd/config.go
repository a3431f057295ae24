package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is ninepd's on-disk configuration file shape.
type Config struct {
	Listen struct {
		Network string `toml:"network"`
		Addr    string `toml:"addr"`
	} `toml:"listen"`

	Tree struct {
		RootUid string `toml:"root_uid"`
		RootGid string `toml:"root_gid"`
	} `toml:"tree"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

func defaultConfig() Config {
	var c Config
	c.Listen.Network = "tcp"
	c.Listen.Addr = ":5640"
	c.Tree.RootUid = "root"
	c.Tree.RootGid = "root"
	c.Log.Level = "info"
	return c
}

func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("ninepd: reading config: %w", err)
	}
	if err := toml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("ninepd: parsing config: %w", err)
	}
	return c, nil
}
