/*
Package config loads server configuration.

Defaults cover local development; a TOML file overrides them. Flags in
cmd/server take final precedence for the two most common knobs (port
and database path).

Example config.toml:

  [server]
  host = "0.0.0.0"
  port = 8080

  [database]
  path = "./data/fleur.db"

  [rewards]
  clawback_streak_bonus = false
  counter_retention_days = 400
*/
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Rewards  RewardsConfig  `toml:"rewards"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" for ephemeral.
	Path string `toml:"path"`
}

type RewardsConfig struct {
	// ClawbackStreakBonus also reverses a same-day streak bonus when a
	// check-in is undone. Off by default, matching the mobile app.
	ClawbackStreakBonus bool `toml:"clawback_streak_bonus"`

	// CounterRetentionDays bounds the per-user daily counter maps.
	CounterRetentionDays int `toml:"counter_retention_days"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: DatabaseConfig{Path: "fleur.db"},
		Rewards:  RewardsConfig{CounterRetentionDays: 400},
	}
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
