package arranger

import (
	"testing"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/beatforge/themes"
)

func testTheme(t *testing.T) beatforge.Theme {
	th, err := themes.Lookup("blade_runner")
	if err != nil {
		t.Fatalf("themes.Lookup(blade_runner) error = %v", err)
	}
	return th
}

func testGridPlan() beatforge.GridPlan {
	return beatforge.GridPlan{BPM: 120, TimeSignature: beatforge.FourFour, Division: beatforge.DivisionSixteenth, BarCount: 4}
}

func TestArrangeRejectsUnknownTemplate(t *testing.T) {
	_, err := Arrange(nil, testGridPlan(), testTheme(t), beatforge.Template(99), 0)
	if err == nil {
		t.Fatal("Arrange() with an unknown template should error")
	}
	if _, ok := err.(*ErrTemplateUnknown); !ok {
		t.Errorf("err type = %T, want *ErrTemplateUnknown", err)
	}
}

func TestArrangeEmptyEventsProducesTemplateOnly(t *testing.T) {
	arrangement, err := Arrange(nil, testGridPlan(), testTheme(t), beatforge.SynthwaveStraight, 0)
	if err != nil {
		t.Fatalf("Arrange() error = %v", err)
	}
	for _, lane := range arrangement.DrumLanes {
		if lane.Name == beatforge.LaneKick && len(lane.Notes) == 0 {
			t.Error("kick lane should still have template-default notes with no input events")
		}
	}
}

func TestArrangeLaneNotesStrictlyMonotone(t *testing.T) {
	events := []beatforge.QuantizedEvent{
		{EventID: "a", QuantizedTimestampMs: 0, Event: beatforge.Event{ID: "a", Class: beatforge.BilabialPlosive, Confidence: 0.9}},
		{EventID: "b", QuantizedTimestampMs: 0, Event: beatforge.Event{ID: "b", Class: beatforge.BilabialPlosive, Confidence: 0.5}},
	}
	arrangement, err := Arrange(events, testGridPlan(), testTheme(t), beatforge.SynthwaveStraight, 0)
	if err != nil {
		t.Fatalf("Arrange() error = %v", err)
	}
	for _, lane := range arrangement.AllLanes() {
		for i := 1; i < len(lane.Notes); i++ {
			if lane.Notes[i].TimestampMs <= lane.Notes[i-1].TimestampMs {
				t.Errorf("lane %s notes not strictly increasing at %d", lane.Name, i)
			}
		}
	}
}

func TestArrangeAllLanesOrderIsFixed(t *testing.T) {
	arrangement, err := Arrange(nil, testGridPlan(), testTheme(t), beatforge.SynthwaveStraight, 0)
	if err != nil {
		t.Fatalf("Arrange() error = %v", err)
	}
	lanes := arrangement.AllLanes()
	wantOrder := []string{beatforge.LaneKick, beatforge.LaneSnare, beatforge.LaneHat, beatforge.LaneBass, beatforge.LanePad, beatforge.LaneArp}
	if len(lanes) != len(wantOrder) {
		t.Fatalf("len(lanes) = %d, want %d", len(lanes), len(wantOrder))
	}
	for i, lane := range lanes {
		if lane.Name != wantOrder[i] {
			t.Errorf("lane %d = %s, want %s", i, lane.Name, wantOrder[i])
		}
	}
}

func TestApplyBEmphasisBoostsVelocityAndSetsDuck(t *testing.T) {
	kick := beatforge.Lane{Notes: []beatforge.ArrangedNote{
		{TimestampMs: 0, Velocity: 90, SourceEventID: "evt"},
	}}
	applyBEmphasis(&kick, []float64{0, 500, 1000}, 1.0)
	if kick.Notes[0].Velocity <= 90 {
		t.Errorf("Velocity = %v, want boosted above 90", kick.Notes[0].Velocity)
	}
	if kick.DuckAmount != 1.0 {
		t.Errorf("DuckAmount = %v, want 1.0", kick.DuckAmount)
	}
}

func TestApplyBEmphasisSkipsTemplateOnlyNotes(t *testing.T) {
	kick := beatforge.Lane{Notes: []beatforge.ArrangedNote{
		{TimestampMs: 0, Velocity: 90, SourceEventID: ""},
	}}
	applyBEmphasis(&kick, []float64{0}, 1.0)
	if kick.Notes[0].Velocity != 90 {
		t.Errorf("template-only note velocity changed: %v, want unchanged 90", kick.Notes[0].Velocity)
	}
}

func TestAllBeatPositionsCoversEveryBeatNotJustDownbeats(t *testing.T) {
	plan := beatforge.GridPlan{BPM: 120, TimeSignature: beatforge.FourFour, BarCount: 2}
	positions := allBeatPositions(plan)
	if len(positions) != 8 {
		t.Fatalf("len(positions) = %d, want 8 (2 bars * 4 beats)", len(positions))
	}
	// beat 2 of bar 1 (0-indexed beat 1) at 120bpm is 500ms in.
	if positions[1] != 500 {
		t.Errorf("positions[1] = %v, want 500 (beat 2)", positions[1])
	}
}

func TestApplyBEmphasisAnchorsToNearestBeatNotOnlyDownbeat(t *testing.T) {
	plan := beatforge.GridPlan{BPM: 120, TimeSignature: beatforge.FourFour, BarCount: 1}
	kick := beatforge.Lane{Notes: []beatforge.ArrangedNote{
		{TimestampMs: 520, Velocity: 90, SourceEventID: "evt"},
	}}
	applyBEmphasis(&kick, allBeatPositions(plan), 1.0)
	if kick.Notes[0].TimestampMs != 500 {
		t.Errorf("TimestampMs = %v, want 500 (anchored to beat 2, not pulled back to beat 1 at 0ms)", kick.Notes[0].TimestampMs)
	}
}

func TestVelocityFromConfidenceClamped(t *testing.T) {
	v := velocityFromConfidence(1.0, 1.0)
	if v < 1 || v > 127 {
		t.Errorf("velocityFromConfidence(1,1) = %v, out of MIDI range", v)
	}
}

func TestDefaultPhraseStructureCoversAllBars(t *testing.T) {
	for _, bars := range []int{1, 4, 8, 16, 32} {
		ps := DefaultPhraseStructure(bars)
		if !ValidatePhraseStructure(ps) {
			t.Errorf("DefaultPhraseStructure(%d) failed validation: %+v", bars, ps)
		}
	}
}

func TestRulesForKnownTemplates(t *testing.T) {
	for _, tmpl := range []beatforge.Template{beatforge.SynthwaveStraight, beatforge.SynthwaveHalftime, beatforge.ArpDrive} {
		rules := RulesFor(tmpl)
		if rules.HatSubsPerBeat < 1 {
			t.Errorf("RulesFor(%v).HatSubsPerBeat = %d, want >= 1", tmpl, rules.HatSubsPerBeat)
		}
	}
}
