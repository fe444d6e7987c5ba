package main

import (
	"encoding/json"
	"fmt"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)


// RenderRequest is the request body for POST /api/render. Audio is supplied
// separately as a multipart file; this struct carries the Parameters.
type RenderRequest struct {
	Theme            string  `json:"theme"`
	Template         string  `json:"template"`
	BPMOverride      float64 `json:"bpm_override,omitempty"`
	TimeSignature    string  `json:"time_signature,omitempty"`
	Division         string  `json:"division,omitempty"`
	Feel             string  `json:"feel,omitempty"`
	SwingAmount      float64 `json:"swing_amount,omitempty"`
	BarCount         int     `json:"bar_count,omitempty"`
	QuantizeStrength float64 `json:"quantize_strength,omitempty"`
	LookaheadMs      float64 `json:"lookahead_ms,omitempty"`
	BEmphasis        float64 `json:"b_emphasis,omitempty"`
}

// Validate checks the request for obviously invalid values before the
// pipeline is invoked.
func (r *RenderRequest) Validate() error {
	if r.Theme == "" {
		return fmt.Errorf("theme is required")
	}
	if r.SwingAmount < 0 || r.SwingAmount > 1 {
		return fmt.Errorf("swing_amount must be in [0,1]")
	}
	if r.BEmphasis < 0 || r.BEmphasis > 1 {
		return fmt.Errorf("b_emphasis must be in [0,1]")
	}
	if r.BarCount != 0 {
		switch r.BarCount {
		case 1, 2, 4, 8, 16:
		default:
			return fmt.Errorf("bar_count must be one of 1,2,4,8,16")
		}
	}
	return nil
}

// ToParameters converts a validated RenderRequest into beatforge.Parameters,
// applying the same defaults the CLI uses for unset fields.
func (r *RenderRequest) ToParameters() beatforge.Parameters {
	barCount := r.BarCount
	if barCount == 0 {
		barCount = 4
	}
	strength := r.QuantizeStrength
	if strength == 0 {
		strength = 0.8
	}
	lookahead := r.LookaheadMs
	if lookahead == 0 {
		lookahead = 100
	}
	return beatforge.Parameters{
		Theme:            r.Theme,
		Template:         parseTemplateName(r.Template),
		BPMOverride:      r.BPMOverride,
		TimeSignature:    parseTimeSignatureName(r.TimeSignature),
		Division:         parseDivisionName(r.Division),
		Feel:             parseFeelName(r.Feel),
		SwingAmount:      r.SwingAmount,
		BarCount:         barCount,
		QuantizeStrength: strength,
		LookaheadMs:      lookahead,
		BEmphasis:        r.BEmphasis,
	}
}

func parseTemplateName(s string) beatforge.Template {
	switch s {
	case "SynthwaveHalftime":
		return beatforge.SynthwaveHalftime
	case "ArpDrive":
		return beatforge.ArpDrive
	default:
		return beatforge.SynthwaveStraight
	}
}

func parseTimeSignatureName(s string) beatforge.TimeSignature {
	if s == "3/4" {
		return beatforge.ThreeFour
	}
	return beatforge.FourFour
}

func parseDivisionName(s string) beatforge.Division {
	switch s {
	case "1/8":
		return beatforge.DivisionEighth
	case "triplet":
		return beatforge.DivisionTriplet
	case "1/4":
		return beatforge.DivisionQuarter
	default:
		return beatforge.DivisionSixteenth
	}
}

func parseFeelName(s string) beatforge.Feel {
	switch s {
	case "swing":
		return beatforge.FeelSwing
	case "halftime":
		return beatforge.FeelHalftime
	default:
		return beatforge.FeelStraight
	}
}

// RenderResponse is the response for successful POST /api/render.
type RenderResponse struct {
	RunID           string                      `json:"run_id"`
	BPM             float64                     `json:"bpm"`
	TempoFallback   bool                        `json:"tempo_fallback"`
	EventsDropped   int                         `json:"events_dropped"`
	BarCount        int                         `json:"bar_count"`
	MidiURL         string                      `json:"midi_url"`
	WavURL          string                      `json:"wav_url"`
	DecisionRecords []beatforge.DecisionRecord `json:"decision_records"`
}

// ThemeDTO is a theme catalog entry exposed over GET /api/themes.
type ThemeDTO struct {
	Name     string `json:"name"`
	BPMRange [2]int `json:"bpm_range"`
	RootNote int    `json:"root_note"`
}

// ListThemesResponse is the response for GET /api/themes.
type ListThemesResponse struct {
	Themes []ThemeDTO `json:"themes"`
	Count  int        `json:"count"`
}

// RunDTO is a persisted run exposed over GET /api/runs.
type RunDTO struct {
	ID              string          `json:"id"`
	BPM             float64         `json:"bpm"`
	TempoFallback   bool            `json:"tempo_fallback"`
	EventsDropped   int             `json:"events_dropped"`
	CreatedAt       string          `json:"created_at"`
	Parameters      json.RawMessage `json:"parameters,omitempty"`
	DecisionRecords json.RawMessage `json:"decision_records,omitempty"`
}

// ListRunsResponse is the response for GET /api/runs.
type ListRunsResponse struct {
	Runs  []RunDTO `json:"runs"`
	Count int      `json:"count"`
}

// MetricsResponse provides server health and run-store metrics.
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	RunCount     int    `json:"run_count"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
