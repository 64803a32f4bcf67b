// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// The remedy agent runs on every managed host and polls the hub for
// remediation commands. The hub never connects to agents: all
// communication is agent-initiated heartbeats, so agents work behind
// NAT and strict ingress rules with only outbound HTTP(S) to the hub.
//
// # Heartbeat cycle
//
// Each beat POSTs a CBOR snapshot of the host (CPU, memory, uptime,
// agent version) together with any command results the hub has not
// yet acknowledged. The response carries acknowledgements plus at most
// one pending command. Results are kept in memory and re-sent until
// acknowledged, so a lost response never loses a result.
//
// # Command execution
//
// Commands run one at a time via sh -c, in their own process group,
// with a hard wall-clock timeout that kills the whole group. Before
// anything is spawned, the command is re-validated against the same
// whitelist the hub used; anything else is refused with exit -1. Both
// output streams are captured up to a fixed head and shipped with the
// result.
//
// Restarts of units listed in redundant_services honor a cool-down
// window: a restart of the same unit inside the window is skipped with
// a diagnostic instead of being run, so both halves of a redundant
// pair cannot be bounced in quick succession by one overeager
// operator.
//
// # Admin socket
//
// A Unix socket (socket_path) answers status and whitelist queries for
// the remedy CLI running on the same host.
//
// # Configuration
//
// Configuration is a YAML file named by --config or the
// REMEDY_AGENT_CONFIG environment variable. hub_url is required;
// host_id defaults to the machine hostname.
package main
