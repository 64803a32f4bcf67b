// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/remedy/lib/schema"
)

// EnvHubURL is the environment variable consulted when --hub is not
// given.
const EnvHubURL = "REMEDY_HUB"

// defaultHubURL is the fallback when neither --hub nor REMEDY_HUB is
// set: the hub's default listen port on the local machine.
const defaultHubURL = "http://127.0.0.1:8471"

// requestTimeout bounds one CLI request to the hub. Dashboard calls
// are small row reads and writes; anything slower than this is a hub
// problem worth surfacing, not waiting out.
const requestTimeout = 15 * time.Second

// HubConnection holds the --hub flag for commands that talk to the
// hub's dashboard API. Embed it in a command's parameter struct and
// call [HubConnection.Client] in Run.
type HubConnection struct {
	HubURL string `flag:"hub" desc:"hub base URL (default $REMEDY_HUB, then http://127.0.0.1:8471)"`
}

// Client resolves the hub base URL (flag, environment, default, in
// that order) and returns an API client for it.
func (c *HubConnection) Client() (*HubClient, error) {
	base := c.HubURL
	if base == "" {
		base = os.Getenv(EnvHubURL)
	}
	if base == "" {
		base = defaultHubURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("hub URL %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("hub URL %q: scheme must be http or https", base)
	}

	return &HubClient{
		baseURL:    strings.TrimSuffix(base, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// HubClient calls the hub's dashboard JSON API. All methods surface
// the hub's error body text, so a 409 on a duplicate action reads as
// the hub's own explanation rather than a bare status code.
type HubClient struct {
	baseURL    string
	httpClient *http.Client
}

// CreateActionRequest is the body of [HubClient.CreateAction],
// mirroring the hub's action-creation endpoint.
type CreateActionRequest struct {
	Host       string            `json:"host"`
	ActionType string            `json:"action_type"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Origin     string            `json:"origin,omitempty"`
}

// CreateAction submits a new action. The hub resolves and validates
// the command, applies the approval gate, and returns the stored
// record.
func (c *HubClient) CreateAction(ctx context.Context, request CreateActionRequest) (schema.Action, error) {
	var action schema.Action
	err := c.do(ctx, http.MethodPost, "/api/actions", request, http.StatusCreated, &action)
	return action, err
}

// GetAction fetches one action by id.
func (c *HubClient) GetAction(ctx context.Context, id int64) (schema.Action, error) {
	var action schema.Action
	err := c.do(ctx, http.MethodGet, "/api/actions/"+strconv.FormatInt(id, 10), nil, http.StatusOK, &action)
	return action, err
}

// ListActions fetches actions newest-first, optionally filtered by
// host and status. Empty filter values mean "all".
func (c *HubClient) ListActions(ctx context.Context, host string, status schema.ActionStatus) ([]schema.Action, error) {
	query := url.Values{}
	if host != "" {
		query.Set("host", host)
	}
	if status != "" {
		query.Set("status", string(status))
	}
	path := "/api/actions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var actions []schema.Action
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &actions)
	return actions, err
}

// ApproveAction moves a pending action to approved.
func (c *HubClient) ApproveAction(ctx context.Context, id int64) (schema.Action, error) {
	var action schema.Action
	err := c.do(ctx, http.MethodPost, "/api/actions/"+strconv.FormatInt(id, 10)+"/approve", nil, http.StatusOK, &action)
	return action, err
}

// RejectAction moves a pending or approved action to rejected.
func (c *HubClient) RejectAction(ctx context.Context, id int64) (schema.Action, error) {
	var action schema.Action
	err := c.do(ctx, http.MethodPost, "/api/actions/"+strconv.FormatInt(id, 10)+"/reject", nil, http.StatusOK, &action)
	return action, err
}

// ListHosts fetches every registered host with its health
// classification and latest metrics.
func (c *HubClient) ListHosts(ctx context.Context) ([]schema.Host, error) {
	var hosts []schema.Host
	err := c.do(ctx, http.MethodGet, "/api/hosts", nil, http.StatusOK, &hosts)
	return hosts, err
}

// SetHostMaintenance toggles one host's maintenance flag and returns
// the updated record.
func (c *HubClient) SetHostMaintenance(ctx context.Context, host string, maintenance bool) (schema.Host, error) {
	body := map[string]bool{"maintenance": maintenance}
	var updated schema.Host
	err := c.do(ctx, http.MethodPut, "/api/hosts/"+url.PathEscape(host)+"/maintenance", body, http.StatusOK, &updated)
	return updated, err
}

// SetGlobalMaintenance toggles the fleet-wide maintenance flag.
func (c *HubClient) SetGlobalMaintenance(ctx context.Context, maintenance bool) error {
	body := map[string]bool{"maintenance": maintenance}
	return c.do(ctx, http.MethodPut, "/api/maintenance", body, http.StatusOK, nil)
}

// do runs one JSON request. On any status other than wantStatus it
// returns an error carrying the hub's error body (the "error" field of
// the JSON body when present, otherwise a short snippet).
func (c *HubClient) do(ctx context.Context, method, path string, requestBody any, wantStatus int, result any) error {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if requestBody != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return fmt.Errorf("contacting hub at %s: %w", c.baseURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != wantStatus {
		return fmt.Errorf("hub returned %s: %s", response.Status, errorText(response.Body))
	}

	if result != nil {
		if err := json.NewDecoder(response.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// errorText extracts the hub's error message from a failed response
// body: the JSON "error" field when the body parses, otherwise a
// trimmed snippet of whatever came back.
func errorText(body io.Reader) string {
	snippet, _ := io.ReadAll(io.LimitReader(body, 512))
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(snippet, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	text := strings.TrimSpace(string(snippet))
	if text == "" {
		return "(empty response body)"
	}
	return text
}
