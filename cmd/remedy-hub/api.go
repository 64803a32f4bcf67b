// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bureau-foundation/remedy/lib/command"
	"github.com/bureau-foundation/remedy/lib/schema"
)

// router assembles the hub's whole HTTP surface: the agent heartbeat
// endpoint, the dashboard JSON API, health, and metrics.
func (h *hubServer) router() http.Handler {
	r := chi.NewRouter()

	r.Post(schema.HeartbeatPath, h.handleHeartbeat)

	r.Post("/api/actions", h.handleCreateAction)
	r.Get("/api/actions", h.handleListActions)
	r.Get("/api/actions/{id}", h.handleGetAction)
	r.Post("/api/actions/{id}/approve", h.handleApproveAction)
	r.Post("/api/actions/{id}/reject", h.handleRejectAction)

	r.Get("/api/hosts", h.handleListHosts)
	r.Put("/api/hosts/{host}/maintenance", h.handleHostMaintenance)
	r.Put("/api/maintenance", h.handleGlobalMaintenance)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", h.metrics.handler())

	return r
}

// apiError is the JSON error body for dashboard endpoints.
type apiError struct {
	Error string `json:"error"`
}

func (h *hubServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("response encode failed", "error", err)
	}
}

func (h *hubServer) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, apiError{Error: message})
}

// createActionRequest is the dashboard's action-creation body.
type createActionRequest struct {
	Host       string            `json:"host"`
	ActionType string            `json:"action_type"`
	Parameters map[string]string `json:"parameters"`
	Origin     string            `json:"origin"`
}

// handleCreateAction builds, gates, and records a new action. The
// command string is resolved hub-side from the typed parameters; free
// text never enters the queue. 409 when the host already has a
// non-terminal action for the same operation.
func (h *hubServer) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	var request createActionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "decode request: "+err.Error())
		return
	}
	if request.Host == "" {
		h.writeError(w, http.StatusBadRequest, "host is required")
		return
	}

	origin := schema.OriginManual
	if request.Origin != "" {
		origin = schema.ActionOrigin(request.Origin)
		if !origin.IsKnown() {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown origin %q", request.Origin))
			return
		}
	}

	spec, err := command.FromParameters(schema.ActionType(request.ActionType), request.Parameters)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resolved, err := spec.Resolve()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := command.Validate(spec.Type(), resolved); err != nil {
		h.logger.Error("resolved command failed whitelist", "command", resolved, "error", err)
		h.writeError(w, http.StatusInternalServerError, "resolved command failed whitelist")
		return
	}

	ctx := r.Context()
	maintenance, err := h.store.MaintenanceActive(ctx, request.Host)
	if err != nil {
		h.logger.Error("create action: maintenance lookup", "host", request.Host, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := h.store.CreateAction(ctx, NewAction{
		Host:       request.Host,
		Type:       spec.Type(),
		Command:    resolved,
		Parameters: spec.Parameters(),
		DedupeKey:  spec.DedupeKey(),
		Origin:     origin,
		Status:     initialStatus(maintenance, h.clock.Now(), h.windows),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAction) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("create action", "host", request.Host, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.metrics.actionsCreated.WithLabelValues(string(created.Status)).Inc()
	h.logger.Info("action created",
		"action_id", created.ID,
		"host", created.Host,
		"action_type", created.Type,
		"status", created.Status,
		"origin", created.Origin)
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *hubServer) handleListActions(w http.ResponseWriter, r *http.Request) {
	filter := ActionFilter{Host: r.URL.Query().Get("host")}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = schema.ActionStatus(status)
		if !filter.Status.IsKnown() {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
			return
		}
	}

	actions, err := h.store.ListActions(r.Context(), filter)
	if err != nil {
		h.logger.Error("list actions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if actions == nil {
		actions = []schema.Action{}
	}
	h.writeJSON(w, http.StatusOK, actions)
}

func (h *hubServer) handleGetAction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.actionID(w, r)
	if !ok {
		return
	}

	action, err := h.store.GetAction(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("get action", "action_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, action)
}

func (h *hubServer) handleApproveAction(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "approved", h.store.ApproveAction)
}

func (h *hubServer) handleRejectAction(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "rejected", h.store.RejectAction)
}

// handleTransition runs one operator-driven status move and maps its
// failures: 404 for unknown ids, 409 when the current status forbids
// the move.
func (h *hubServer) handleTransition(w http.ResponseWriter, r *http.Request, verb string, apply func(ctx context.Context, id int64) (schema.Action, error)) {
	id, ok := h.actionID(w, r)
	if !ok {
		return
	}

	action, err := apply(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidTransition):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("action transition", "action_id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.logger.Info("action "+verb, "action_id", action.ID, "host", action.Host)
	h.writeJSON(w, http.StatusOK, action)
}

// actionID parses the {id} path parameter, answering 400 itself when
// it is not an integer.
func (h *hubServer) actionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid action id %q", raw))
		return 0, false
	}
	return id, true
}

func (h *hubServer) handleListHosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := h.store.ListHosts(r.Context())
	if err != nil {
		h.logger.Error("list hosts", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := h.clock.Now()
	interval := h.config.HeartbeatInterval()
	for i := range hosts {
		hosts[i].Health = classifyHealth(hosts[i].LastSeen, now, interval)
	}
	if hosts == nil {
		hosts = []schema.Host{}
	}
	h.writeJSON(w, http.StatusOK, hosts)
}

// maintenanceRequest is the body of both maintenance toggles.
type maintenanceRequest struct {
	Maintenance bool `json:"maintenance"`
}

func (h *hubServer) handleHostMaintenance(w http.ResponseWriter, r *http.Request) {
	var request maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "decode request: "+err.Error())
		return
	}

	name := chi.URLParam(r, "host")
	if err := h.store.SetHostMaintenance(r.Context(), name, request.Maintenance); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("set host maintenance", "host", name, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("host maintenance set", "host", name, "maintenance", request.Maintenance)
	host, err := h.store.GetHost(r.Context(), name)
	if err != nil {
		h.logger.Error("get host after maintenance set", "host", name, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeJSON(w, http.StatusOK, host)
}

func (h *hubServer) handleGlobalMaintenance(w http.ResponseWriter, r *http.Request) {
	var request maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "decode request: "+err.Error())
		return
	}

	if err := h.store.SetGlobalMaintenance(r.Context(), request.Maintenance); err != nil {
		h.logger.Error("set global maintenance", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("global maintenance set", "maintenance", request.Maintenance)
	h.writeJSON(w, http.StatusOK, maintenanceRequest{Maintenance: request.Maintenance})
}

func (h *hubServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
