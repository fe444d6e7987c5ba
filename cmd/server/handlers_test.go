package main

import (
	"encoding/json"
	"testing"
)

func TestJSONRawOrNilOmitsEmptyColumn(t *testing.T) {
	if got := jsonRawOrNil(""); got != nil {
		t.Errorf("jsonRawOrNil(\"\") = %v, want nil", got)
	}
}

func TestJSONRawOrNilPassesThroughStoredJSON(t *testing.T) {
	raw := jsonRawOrNil(`{"theme":"blade_runner"}`)
	dto := RunDTO{ID: "r1", Parameters: raw}
	encoded, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("json.Marshal(RunDTO) error = %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if string(decoded["parameters"]) != `{"theme":"blade_runner"}` {
		t.Errorf("parameters field = %s, want embedded object not a quoted string", decoded["parameters"])
	}
}

func TestRenderRequestToParametersAppliesCLIMatchingDefaults(t *testing.T) {
	req := RenderRequest{Theme: "blade_runner"}
	params := req.ToParameters()
	if params.BarCount != 4 {
		t.Errorf("BarCount = %d, want 4 (default)", params.BarCount)
	}
	if params.QuantizeStrength != 0.8 {
		t.Errorf("QuantizeStrength = %v, want 0.8 (default)", params.QuantizeStrength)
	}
	if params.LookaheadMs != 100 {
		t.Errorf("LookaheadMs = %v, want 100 (default)", params.LookaheadMs)
	}
}
