// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"net/http"

	"github.com/bureau-foundation/remedy/lib/codec"
	"github.com/bureau-foundation/remedy/lib/schema"
	"github.com/bureau-foundation/remedy/lib/service"
)

// maxHeartbeatBytes bounds the heartbeat request body. A heartbeat
// carries a metrics snapshot and unacknowledged results with at most
// 10KB of captured output per stream, so 1MB leaves generous room.
const maxHeartbeatBytes = 1 << 20

// handleHeartbeat is the protocol core: one agent poll in, results
// ingested, at most one command out. The cycle order is fixed —
// results are applied before the next command is chosen, so a result
// arriving in this request frees the host's execution slot for this
// same response.
//
// Malformed CBOR and a missing host_id are the only client errors.
// Results referencing unknown or non-executing actions are logged,
// counted, and acknowledged anyway; they never fail the heartbeat.
func (h *hubServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxHeartbeatBytes))
	if err != nil {
		h.metrics.heartbeatErrors.Inc()
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}

	if h.config.AuthSecret != "" {
		signature := r.Header.Get(schema.SignatureHeader)
		if err := service.VerifyRequestHMAC([]byte(h.config.AuthSecret), body, signature); err != nil {
			h.metrics.heartbeatErrors.Inc()
			h.logger.Warn("heartbeat rejected", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var request schema.HeartbeatRequest
	if err := codec.Unmarshal(body, &request); err != nil {
		h.metrics.heartbeatErrors.Inc()
		h.logger.Warn("heartbeat rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "decode heartbeat", http.StatusBadRequest)
		return
	}
	if request.HostID == "" {
		h.metrics.heartbeatErrors.Inc()
		http.Error(w, "host_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := h.store.UpsertHostSeen(ctx, request.HostID, request.Metrics); err != nil {
		h.serverError(w, "record host", request.HostID, err)
		return
	}

	// Results first. Every received result is acknowledged, applied
	// or dropped; an unacknowledged result would ride every future
	// heartbeat from this host.
	acknowledged := make([]int64, 0, len(request.CommandResults))
	for _, result := range request.CommandResults {
		outcome, err := h.store.ApplyResult(ctx, result)
		if err != nil {
			h.serverError(w, "apply result", request.HostID, err)
			return
		}
		h.metrics.results.WithLabelValues(outcome.String()).Inc()

		switch outcome {
		case ResultApplied:
			h.logger.Info("command result applied",
				"host", request.HostID,
				"action_id", result.ActionID,
				"exit_code", result.ExitCode)
		default:
			h.logger.Warn("command result dropped",
				"host", request.HostID,
				"action_id", result.ActionID,
				"outcome", outcome.String())
		}
		acknowledged = append(acknowledged, result.ActionID)
	}

	response := schema.HeartbeatResponse{AcknowledgedResultIDs: acknowledged}

	pending, err := h.dispatchPending(ctx, request.HostID)
	if err != nil {
		h.serverError(w, "dispatch", request.HostID, err)
		return
	}
	if pending != nil {
		response.PendingCommands = []schema.PendingCommand{*pending}
	}

	data, err := codec.Marshal(response)
	if err != nil {
		h.serverError(w, "encode response", request.HostID, err)
		return
	}

	h.metrics.heartbeats.Inc()
	w.Header().Set("Content-Type", schema.ContentTypeCBOR)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("heartbeat response write failed", "host", request.HostID, "error", err)
	}
}

// serverError logs a store or encoding failure and answers 500. The
// agent retries on its next interval; every store write involved is
// idempotent, so the retry is safe.
func (h *hubServer) serverError(w http.ResponseWriter, step, host string, err error) {
	h.metrics.heartbeatErrors.Inc()
	h.logger.Error("heartbeat failed", "step", step, "host", host, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
