package synth

import (
	"math"
	"testing"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

func TestRenderOutputWithinLimiterBounds(t *testing.T) {
	arr := &beatforge.Arrangement{
		DrumLanes: []beatforge.Lane{
			{Name: beatforge.LaneKick, Notes: []beatforge.ArrangedNote{{TimestampMs: 0, DurationMs: 100, Velocity: 120}}},
			{Name: beatforge.LaneSnare},
			{Name: beatforge.LaneHat},
		},
		TotalDurationMs: 500,
	}
	samples := Render(arr)
	for i, s := range samples {
		if math.Abs(s) > 1.0 {
			t.Fatalf("sample %d = %v, exceeds limiter bound of 1.0", i, s)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	arr := &beatforge.Arrangement{
		DrumLanes: []beatforge.Lane{
			{Name: beatforge.LaneKick, Notes: []beatforge.ArrangedNote{{TimestampMs: 0, DurationMs: 100, Velocity: 100}}},
			{Name: beatforge.LaneSnare, Notes: []beatforge.ArrangedNote{{TimestampMs: 200, DurationMs: 100, Velocity: 90}}},
			{Name: beatforge.LaneHat},
		},
		TotalDurationMs: 500,
	}
	a := Render(arr)
	b := Render(arr)
	if len(a) != len(b) {
		t.Fatalf("len mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Render() not deterministic at sample %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSidechainDucksPitchedSignalNearKick(t *testing.T) {
	pitched := make([]float64, SampleRate) // 1 second of constant signal
	for i := range pitched {
		pitched[i] = 1.0
	}
	applySidechain(pitched, []float64{0}, 1.0)
	if pitched[0] > 0.1 {
		t.Errorf("sample right at the kick should be heavily ducked, got %v", pitched[0])
	}
	lateIdx := SampleRate - 1 // ~1000ms after the kick, well past the 150ms duck window
	if pitched[lateIdx] < 0.9 {
		t.Errorf("sample far from any kick should be nearly unducked, got %v", pitched[lateIdx])
	}
}

func TestMidiToFreqA4(t *testing.T) {
	freq := midiToFreq(69)
	if math.Abs(freq-440.0) > 1e-9 {
		t.Errorf("midiToFreq(69) = %v, want 440", freq)
	}
}

func TestSoftLimitPassesThroughBelowThreshold(t *testing.T) {
	if v := softLimit(0.5, 0.95); v != 0.5 {
		t.Errorf("softLimit(0.5, 0.95) = %v, want 0.5 (untouched below threshold)", v)
	}
}

func TestSoftLimitClampsAboveThreshold(t *testing.T) {
	v := softLimit(5.0, 0.95)
	if v >= 5.0 || v < 0.95 {
		t.Errorf("softLimit(5.0, 0.95) = %v, want compressed into [0.95, 5.0)", v)
	}
}
