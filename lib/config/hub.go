// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/remedy/lib/cron"
)

// HubConfig is the remedy hub's configuration.
type HubConfig struct {
	// ListenAddress is the TCP address for heartbeats and the
	// dashboard API. Default: ":8471".
	ListenAddress string `yaml:"listen_address"`

	// DatabasePath is the SQLite file holding the action store.
	// Default: /var/lib/remedy/hub.db.
	DatabasePath string `yaml:"database_path"`

	// HeartbeatIntervalSeconds is the interval agents are expected
	// to poll at. The hub derives host health from it: online within
	// one interval, suspect within three, offline beyond that.
	// Default: 60.
	HeartbeatIntervalSeconds int `yaml:"heartbeat_interval_seconds"`

	// CommandTimeoutSeconds is the wall-clock limit sent with every
	// dispatched command. Default: 30.
	CommandTimeoutSeconds int `yaml:"command_timeout_seconds"`

	// ExecutionGracePeriodSeconds bounds how long an action may sit
	// in executing before the reaper fails it as stuck. Zero
	// disables the reaper. Default: 0.
	ExecutionGracePeriodSeconds int `yaml:"execution_grace_period_seconds"`

	// AuthSecret is the shared secret agents sign heartbeat bodies
	// with. Empty disables signature checking. Use expansion to keep
	// it out of the file: ${REMEDY_AUTH_SECRET:-}.
	AuthSecret string `yaml:"auth_secret"`

	// ShutdownTimeoutSeconds bounds graceful HTTP shutdown.
	// Default: 10.
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds"`

	// MaintenanceWindows are recurring windows during which new
	// actions start approved instead of pending.
	MaintenanceWindows []MaintenanceWindowConfig `yaml:"maintenance_windows,omitempty"`
}

// MaintenanceWindowConfig is one recurring maintenance window.
type MaintenanceWindowConfig struct {
	// Schedule is a 5-field cron expression for the window opening,
	// in UTC.
	Schedule string `yaml:"schedule"`

	// Duration is how long each opening lasts, in Go duration syntax
	// ("4h", "90m").
	Duration string `yaml:"duration"`
}

// DefaultHub returns the hub configuration defaults.
func DefaultHub() *HubConfig {
	return &HubConfig{
		ListenAddress:            ":8471",
		DatabasePath:             "/var/lib/remedy/hub.db",
		HeartbeatIntervalSeconds: 60,
		CommandTimeoutSeconds:    30,
		ShutdownTimeoutSeconds:   10,
	}
}

// LoadHub loads hub configuration from the REMEDY_HUB_CONFIG
// environment variable. Fails if the variable is not set; there are
// no fallback locations.
func LoadHub() (*HubConfig, error) {
	path := os.Getenv("REMEDY_HUB_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("REMEDY_HUB_CONFIG environment variable not set; " +
			"set it to the path of your hub.yaml config file, or use --config")
	}
	return LoadHubFile(path)
}

// LoadHubFile loads hub configuration from a specific path, applying
// defaults first and variable expansion after.
func LoadHubFile(path string) (*HubConfig, error) {
	cfg := DefaultHub()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hub config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing hub config %s: %w", path, err)
	}

	cfg.ListenAddress = expandVars(cfg.ListenAddress)
	cfg.DatabasePath = expandVars(cfg.DatabasePath)
	cfg.AuthSecret = expandVars(cfg.AuthSecret)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hub config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors. All problems are
// reported at once.
func (c *HubConfig) Validate() error {
	var errs []error

	if c.ListenAddress == "" {
		errs = append(errs, fmt.Errorf("listen_address is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, fmt.Errorf("database_path is required"))
	}
	if c.HeartbeatIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat_interval_seconds must be positive, got %d", c.HeartbeatIntervalSeconds))
	}
	if c.CommandTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("command_timeout_seconds must be positive, got %d", c.CommandTimeoutSeconds))
	}
	if c.ExecutionGracePeriodSeconds < 0 {
		errs = append(errs, fmt.Errorf("execution_grace_period_seconds must not be negative, got %d", c.ExecutionGracePeriodSeconds))
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout_seconds must be positive, got %d", c.ShutdownTimeoutSeconds))
	}
	for i, window := range c.MaintenanceWindows {
		if _, err := window.Window(); err != nil {
			errs = append(errs, fmt.Errorf("maintenance_windows[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Window parses the entry into a cron.Window.
func (w MaintenanceWindowConfig) Window() (cron.Window, error) {
	duration, err := time.ParseDuration(w.Duration)
	if err != nil {
		return cron.Window{}, fmt.Errorf("duration %q: %w", w.Duration, err)
	}
	return cron.NewWindow(w.Schedule, duration)
}

// Windows parses every configured maintenance window. Call after
// Validate; parse errors here mean Validate was skipped.
func (c *HubConfig) Windows() ([]cron.Window, error) {
	windows := make([]cron.Window, 0, len(c.MaintenanceWindows))
	for i, entry := range c.MaintenanceWindows {
		window, err := entry.Window()
		if err != nil {
			return nil, fmt.Errorf("maintenance_windows[%d]: %w", i, err)
		}
		windows = append(windows, window)
	}
	return windows, nil
}

// HeartbeatInterval returns the expected agent poll interval.
func (c *HubConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSeconds) * time.Second
}

// ExecutionGracePeriod returns the stuck-execution bound, or zero
// when the reaper is disabled.
func (c *HubConfig) ExecutionGracePeriod() time.Duration {
	return time.Duration(c.ExecutionGracePeriodSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *HubConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
