// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestDeterministicEncoding(t *testing.T) {
	value := map[string]int{"zebra": 1, "alpha": 2, "mid": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("same value produced different encodings")
		}
	}
}

func TestJSONTagFallback(t *testing.T) {
	type wireType struct {
		HostID   string `json:"host_id"`
		ExitCode int    `json:"exit_code"`
		Omitted  string `json:"omitted,omitempty"`
	}

	data, err := Marshal(wireType{HostID: "web-01", ExitCode: -1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}

	if decoded["host_id"] != "web-01" {
		t.Errorf("host_id = %v, want web-01", decoded["host_id"])
	}
	if _, present := decoded["omitted"]; present {
		t.Error("empty omitempty field was encoded")
	}

	var roundTrip wireType
	if err := Unmarshal(data, &roundTrip); err != nil {
		t.Fatalf("Unmarshal into struct: %v", err)
	}
	if roundTrip.HostID != "web-01" || roundTrip.ExitCode != -1 {
		t.Errorf("round trip = %+v", roundTrip)
	}
}

func TestDefaultMapType(t *testing.T) {
	data, err := Marshal(map[string]any{"nested": map[string]any{"value": "x"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded top level is %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Fatalf("nested value is %T, want map[string]any", top["nested"])
	}
}

func TestRawMessageDelaysDecoding(t *testing.T) {
	type envelope struct {
		Action string     `cbor:"action"`
		Data   RawMessage `cbor:"data"`
	}
	type payload struct {
		Command string `cbor:"command"`
	}

	inner, err := Marshal(payload{Command: "systemctl restart nginx"})
	if err != nil {
		t.Fatalf("Marshal inner: %v", err)
	}
	outer, err := Marshal(envelope{Action: "execute", Data: inner})
	if err != nil {
		t.Fatalf("Marshal outer: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(outer, &decoded); err != nil {
		t.Fatalf("Unmarshal outer: %v", err)
	}
	var decodedPayload payload
	if err := Unmarshal(decoded.Data, &decodedPayload); err != nil {
		t.Fatalf("Unmarshal raw data: %v", err)
	}
	if decodedPayload.Command != "systemctl restart nginx" {
		t.Errorf("command = %q", decodedPayload.Command)
	}
}
