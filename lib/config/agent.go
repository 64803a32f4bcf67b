// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentConfig is the remedy agent's configuration.
type AgentConfig struct {
	// HubURL is the base URL of the hub (e.g.,
	// "http://hub.internal:8471"). Required.
	HubURL string `yaml:"hub_url"`

	// HostID is the identity this agent reports. Defaults to the
	// machine hostname.
	HostID string `yaml:"host_id"`

	// HeartbeatIntervalSeconds is the poll interval. Default: 60.
	HeartbeatIntervalSeconds int `yaml:"heartbeat_interval_seconds"`

	// AuthSecret signs heartbeat bodies when set. Must match the
	// hub's secret. Use expansion: ${REMEDY_AUTH_SECRET:-}.
	AuthSecret string `yaml:"auth_secret"`

	// EscalationPrefix is prepended to every command after whitelist
	// validation, for agents that run unprivileged (e.g., "sudo -n").
	// Empty runs commands as the agent's own user.
	EscalationPrefix string `yaml:"escalation_prefix"`

	// RedundantServices lists systemd units this host serves as one
	// half of a redundant pair. Restarts of these units honor the
	// contention cool-down.
	RedundantServices []string `yaml:"redundant_services,omitempty"`

	// ContentionCooldownMinutes is the minimum spacing between runs
	// of the same command class on a redundant service. Default: 30.
	ContentionCooldownMinutes int `yaml:"contention_cooldown_minutes"`

	// SocketPath is the Unix socket for the local admin interface.
	// Default: /run/remedy/agent.sock.
	SocketPath string `yaml:"socket_path"`

	// RequestTimeoutSeconds bounds one heartbeat HTTP round trip.
	// Default: 15.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// DefaultAgent returns the agent configuration defaults. HostID is
// resolved from the machine hostname; it is empty only if the
// hostname cannot be read.
func DefaultAgent() *AgentConfig {
	hostname, _ := os.Hostname()
	return &AgentConfig{
		HostID:                    hostname,
		HeartbeatIntervalSeconds:  60,
		ContentionCooldownMinutes: 30,
		SocketPath:                "/run/remedy/agent.sock",
		RequestTimeoutSeconds:     15,
	}
}

// LoadAgent loads agent configuration from the REMEDY_AGENT_CONFIG
// environment variable. Fails if the variable is not set.
func LoadAgent() (*AgentConfig, error) {
	path := os.Getenv("REMEDY_AGENT_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("REMEDY_AGENT_CONFIG environment variable not set; " +
			"set it to the path of your agent.yaml config file, or use --config")
	}
	return LoadAgentFile(path)
}

// LoadAgentFile loads agent configuration from a specific path,
// applying defaults first and variable expansion after.
func LoadAgentFile(path string) (*AgentConfig, error) {
	cfg := DefaultAgent()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agent config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing agent config %s: %w", path, err)
	}

	cfg.HubURL = expandVars(cfg.HubURL)
	cfg.HostID = expandVars(cfg.HostID)
	cfg.AuthSecret = expandVars(cfg.AuthSecret)
	cfg.SocketPath = expandVars(cfg.SocketPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors. All problems are
// reported at once.
func (c *AgentConfig) Validate() error {
	var errs []error

	if c.HubURL == "" {
		errs = append(errs, fmt.Errorf("hub_url is required"))
	} else if parsed, err := url.Parse(c.HubURL); err != nil {
		errs = append(errs, fmt.Errorf("hub_url: %w", err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errs = append(errs, fmt.Errorf("hub_url must be http or https, got %q", c.HubURL))
	}

	if c.HostID == "" {
		errs = append(errs, fmt.Errorf("host_id is required (hostname lookup failed; set it explicitly)"))
	}
	if c.HeartbeatIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat_interval_seconds must be positive, got %d", c.HeartbeatIntervalSeconds))
	}
	if c.ContentionCooldownMinutes < 0 {
		errs = append(errs, fmt.Errorf("contention_cooldown_minutes must not be negative, got %d", c.ContentionCooldownMinutes))
	}
	if c.SocketPath == "" {
		errs = append(errs, fmt.Errorf("socket_path is required"))
	}
	if c.RequestTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds))
	}
	for i, unit := range c.RedundantServices {
		if strings.TrimSpace(unit) == "" {
			errs = append(errs, fmt.Errorf("redundant_services[%d] is empty", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HeartbeatInterval returns the poll interval.
func (c *AgentConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSeconds) * time.Second
}

// ContentionCooldown returns the redundant-service spacing window.
func (c *AgentConfig) ContentionCooldown() time.Duration {
	return time.Duration(c.ContentionCooldownMinutes) * time.Minute
}

// RequestTimeout returns the per-heartbeat HTTP bound.
func (c *AgentConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
