// Package config provides configuration structures for the athenaq CLI.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the CLI configuration.
type Config struct {
	// Query target
	Database       string `yaml:"database" json:"database"`
	OutputLocation string `yaml:"output_location" json:"output_location"`
	Region         string `yaml:"region" json:"region"`

	// Polling policy
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	MaxWait      time.Duration `yaml:"max_wait" json:"max_wait"`

	// Observability
	LogLevel       string `yaml:"log_level" json:"log_level"`
	MetricsAddress string `yaml:"metrics_address" json:"metrics_address"`
}

// Validate validates the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.OutputLocation == "" {
		return fmt.Errorf("output location is required")
	}
	if !strings.HasPrefix(c.OutputLocation, "s3://") {
		return fmt.Errorf("output location must be an s3:// URI, got %q", c.OutputLocation)
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}

	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxWait < 0 {
		return fmt.Errorf("max wait cannot be negative")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return nil
}

// DefaultConfig returns the default configuration, mirroring the example
// flights dataset setup. Callers are expected to override database, output
// location, and region for their own account.
func DefaultConfig() *Config {
	return &Config{
		Database:       "flights",
		OutputLocation: "s3://is3600-cam/query_results/",
		Region:         "us-west-2",
		PollInterval:   2 * time.Second,
		MaxWait:        0, // poll until terminal
		LogLevel:       "info",
		MetricsAddress: "",
	}
}
