// Package config provides YAML-based configuration loading for Linebid.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/linebid/linebid/internal/metrics"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Linebid configuration, loaded from
// linebid.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Policy   PolicyConfig   `yaml:"policy"`

	// CycleLength is the required day-template length for imported
	// schedules.
	CycleLength int `yaml:"cycle_length"`

	// Weights are the default score weights used when a caller
	// supplies none.
	Weights metrics.Weights `yaml:"weights"`

	// ShiftCategories is the boundary table for bucketing shift begin
	// times. Kept in configuration because the boundaries vary by
	// organization; intervals are half-open [start, end).
	ShiftCategories []metrics.CategoryBoundary `yaml:"shift_categories"`

	Broadcast BroadcastConfig `yaml:"broadcast"`

	// RecomputeCron is a 5-field cron expression for scheduled metrics
	// recomputation; empty disables the job.
	RecomputeCron string `yaml:"recompute_cron"`
}

// DatabaseConfig holds MySQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// PolicyConfig holds organization-wide behavior switches.
type PolicyConfig struct {
	// CanClaimLines allows end users to claim lines directly. When
	// false, only administrative assignment is permitted.
	CanClaimLines bool `yaml:"can_claim_lines"`
}

// BroadcastConfig wires optional event sinks.
type BroadcastConfig struct {
	SlackWebhookURL  string `yaml:"slack_webhook_url"`
	DiscordToken     string `yaml:"discord_token"`
	DiscordChannelID string `yaml:"discord_channel_id"`
}

// Load reads a YAML config file from path and returns a validated
// Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.CycleLength == 0 {
		c.CycleLength = 56
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Database.Name == "" {
		errs = append(errs, "database.name is required")
	}
	if c.CycleLength < 1 {
		errs = append(errs, "cycle_length must be positive")
	}
	for i, b := range c.ShiftCategories {
		if b.Name == "" {
			errs = append(errs, fmt.Sprintf("shift_categories[%d].name is required", i))
		}
		if b.Start == "" || b.End == "" {
			errs = append(errs, fmt.Sprintf("shift_categories[%d] needs start and end", i))
		}
	}
	if (c.Broadcast.DiscordToken == "") != (c.Broadcast.DiscordChannelID == "") {
		errs = append(errs, "broadcast discord_token and discord_channel_id must be set together")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
