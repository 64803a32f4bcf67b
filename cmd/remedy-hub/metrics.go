// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// hubMetrics holds the hub's Prometheus collectors. Each hub owns its
// registry, so tests can build servers independently without
// colliding on the default registry.
type hubMetrics struct {
	registry *prometheus.Registry

	heartbeats         prometheus.Counter
	heartbeatErrors    prometheus.Counter
	results            *prometheus.CounterVec
	commandsDispatched prometheus.Counter
	actionsCreated     *prometheus.CounterVec
}

func newHubMetrics() *hubMetrics {
	m := &hubMetrics{
		registry: prometheus.NewRegistry(),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_heartbeats_total",
			Help: "Heartbeats accepted from agents.",
		}),
		heartbeatErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_heartbeat_errors_total",
			Help: "Heartbeat requests rejected before processing.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_results_total",
			Help: "Command results received, by ingestion outcome.",
		}, []string{"outcome"}),
		commandsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "remedy_commands_dispatched_total",
			Help: "Commands delivered to agents in heartbeat responses.",
		}),
		actionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "remedy_actions_created_total",
			Help: "Actions created, by initial status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.heartbeats,
		m.heartbeatErrors,
		m.results,
		m.commandsDispatched,
		m.actionsCreated,
	)
	return m
}

// handler serves the registry in the Prometheus text format.
func (m *hubMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
