// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bureau-foundation/remedy/lib/codec"
	"github.com/bureau-foundation/remedy/lib/config"
	"github.com/bureau-foundation/remedy/lib/schema"
	"github.com/bureau-foundation/remedy/lib/service"
)

// hubClient performs one signed CBOR heartbeat round trip.
type hubClient struct {
	heartbeatURL string
	authSecret   string
	httpClient   *http.Client
}

func newHubClient(cfg *config.AgentConfig) *hubClient {
	return &hubClient{
		heartbeatURL: strings.TrimSuffix(cfg.HubURL, "/") + schema.HeartbeatPath,
		authSecret:   cfg.AuthSecret,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

func (c *hubClient) Beat(ctx context.Context, request schema.HeartbeatRequest) (schema.HeartbeatResponse, error) {
	var response schema.HeartbeatResponse

	body, err := codec.Marshal(request)
	if err != nil {
		return response, fmt.Errorf("encoding heartbeat: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.heartbeatURL, bytes.NewReader(body))
	if err != nil {
		return response, fmt.Errorf("building heartbeat request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", schema.ContentTypeCBOR)
	if c.authSecret != "" {
		httpRequest.Header.Set(schema.SignatureHeader, service.SignRequestHMAC([]byte(c.authSecret), body))
	}

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return response, fmt.Errorf("posting heartbeat: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 512))
		return response, fmt.Errorf("hub returned %s: %s", httpResponse.Status, strings.TrimSpace(string(snippet)))
	}
	if err := codec.NewDecoder(httpResponse.Body).Decode(&response); err != nil {
		return response, fmt.Errorf("decoding heartbeat response: %w", err)
	}
	return response, nil
}

// runHeartbeats drives the poll loop until ctx is cancelled. An
// immediate first beat registers the host; after that the loop ticks
// at the configured interval.
func (a *agent) runHeartbeats(ctx context.Context) {
	// Spread fleet-wide restarts: without an initial offset, agents
	// brought up by the same deployment beat in the same instant
	// forever.
	if a.jitter > 0 {
		select {
		case <-ctx.Done():
			return
		case <-a.clock.After(a.jitter):
		}
	}

	ticker := a.clock.NewTicker(a.config.HeartbeatInterval())
	defer ticker.Stop()

	a.beat(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.beat(ctx)
		}
	}
}

// beat performs one heartbeat cycle: report metrics and finished
// results, then start whatever commands the hub handed back. A failed
// round trip leaves the result buffer untouched; everything in it
// rides the next beat.
func (a *agent) beat(ctx context.Context) {
	request := schema.HeartbeatRequest{
		HostID:         a.config.HostID,
		Metrics:        a.sampler.Sample(),
		CommandResults: a.results.Pending(),
	}

	response, err := a.client.Beat(ctx, request)
	a.recordBeat(err)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.logger.Warn("heartbeat failed",
			"hub", a.config.HubURL,
			"unacknowledged_results", a.results.Len(),
			"error", err,
		)
		return
	}

	a.results.Acknowledge(response.AcknowledgedResultIDs)

	for _, pending := range response.PendingCommands {
		a.logger.Info("command received",
			"action_id", pending.ActionID,
			"action_type", pending.Type,
			"command", pending.Command,
		)
		go func(pending schema.PendingCommand) {
			a.results.Add(a.executor.Execute(ctx, pending))
		}(pending)
	}
}

// recordBeat updates the status reported by the admin socket.
func (a *agent) recordBeat(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastBeat = a.clock.Now()
	a.beats++
	if err != nil {
		a.lastBeatError = err.Error()
	} else {
		a.lastBeatError = ""
	}
}
