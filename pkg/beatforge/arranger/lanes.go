package arranger

import (
	"math"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

const (
	DrumHitDurationMs = 100 // drum hits never sustain past this (matches Rust ArrangedNote::from_quantized_event cap)
	AnchorWindowBaseMs = 30
	AnchorWindowSpanMs = 120
	VelocityBoostMax   = 30
)

// fillDrumLanes emits template-default ArrangedNotes for kick/snare/hat
// across bar_count bars (§4.G step 1).
func fillDrumLanes(plan beatforge.GridPlan, rules TemplateRules, barCount int) (kick, snare, hat beatforge.Lane) {
	beatsPerBar := plan.TimeSignature.BeatsPerBar()
	beatMs := plan.BeatMs()

	kick = beatforge.Lane{Name: beatforge.LaneKick, MidiNote: MidiKick}
	snare = beatforge.Lane{Name: beatforge.LaneSnare, MidiNote: MidiSnare}
	hat = beatforge.Lane{Name: beatforge.LaneHat, MidiNote: MidiClosedHihat}

	for bar := 0; bar < barCount; bar++ {
		for beat := 0; beat < beatsPerBar; beat++ {
			barBeatMs := plan.BeatPhaseMs + float64(bar*beatsPerBar+beat)*beatMs
			if containsBeat(rules.KickBeats, beat) {
				kick.Notes = append(kick.Notes, beatforge.ArrangedNote{
					TimestampMs: barBeatMs, DurationMs: DrumHitDurationMs, Velocity: DefaultKickVelocity, MidiNote: MidiKick,
				})
			}
			if containsBeat(rules.SnareBeats, beat) {
				snare.Notes = append(snare.Notes, beatforge.ArrangedNote{
					TimestampMs: barBeatMs, DurationMs: DrumHitDurationMs, Velocity: DefaultSnareVelocity, MidiNote: MidiSnare,
				})
			}
			subs := rules.HatSubsPerBeat
			if subs < 1 {
				continue
			}
			subMs := beatMs / float64(subs)
			for s := 0; s < subs; s++ {
				vel := DefaultHatVelocity
				if rules.HatVelocityVaries && s%2 == 1 {
					vel = HatVelocityLow
				}
				hat.Notes = append(hat.Notes, beatforge.ArrangedNote{
					TimestampMs: barBeatMs + float64(s)*subMs, DurationMs: DrumHitDurationMs, Velocity: vel, MidiNote: MidiClosedHihat,
				})
			}
		}
	}
	return
}

// mapEventsToLanes implements §4.G step 2: each quantized event is either
// merged into the nearest template note of its implied lane (within
// slot_ms/2) or inserted as an extra note.
func mapEventsToLanes(events []beatforge.QuantizedEvent, slotMs float64, kick, snare, hat, pad *beatforge.Lane, padRootNote int) {
	for _, qe := range events {
		switch qe.Event.Class {
		case beatforge.BilabialPlosive:
			mergeOrInsert(kick, qe, slotMs, velocityFromConfidence)
		case beatforge.HihatNoise:
			mergeOrInsert(hat, qe, slotMs, velocityFromConfidence)
		case beatforge.Click:
			mergeOrInsert(snare, qe, slotMs, velocityFromConfidence)
		case beatforge.HumVoiced:
			duration := qe.Event.DurationMs
			if duration < 300 {
				duration = 300
			}
			pad.Notes = append(pad.Notes, beatforge.ArrangedNote{
				TimestampMs:   qe.QuantizedTimestampMs,
				DurationMs:    duration,
				Velocity:      velocityFromConfidence(qe.Event.Confidence, qe.Event.Features.PeakAmplitude),
				MidiNote:      padRootNote,
				SourceEventID: qe.Event.ID,
			})
		}
	}
}

// mergeOrInsert finds the nearest existing note within slotMs/2 of qe's
// quantized time in lane and merges into it, or appends a new note.
func mergeOrInsert(lane *beatforge.Lane, qe beatforge.QuantizedEvent, slotMs float64, insertVelocity func(confidence, peakAmplitude float64) int) {
	threshold := slotMs / 2
	bestIdx := -1
	bestDist := math.Inf(1)
	for i := range lane.Notes {
		d := math.Abs(lane.Notes[i].TimestampMs - qe.QuantizedTimestampMs)
		if d <= threshold && d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		templateVel := lane.Notes[bestIdx].Velocity
		lane.Notes[bestIdx].Velocity = beatforge.ClampVelocity(int(math.Round(float64(templateVel) * (0.7 + 0.3*qe.Event.Confidence))))
		lane.Notes[bestIdx].SourceEventID = qe.Event.ID
		lane.Notes[bestIdx].TimestampMs = qe.QuantizedTimestampMs
		return
	}
	lane.Notes = append(lane.Notes, beatforge.ArrangedNote{
		TimestampMs:   qe.QuantizedTimestampMs,
		DurationMs:    DrumHitDurationMs,
		Velocity:      insertVelocity(qe.Event.Confidence, qe.Event.Features.PeakAmplitude),
		MidiNote:      lane.MidiNote,
		SourceEventID: qe.Event.ID,
	})
}

// velocityFromConfidence blends confidence and peak amplitude into a MIDI
// velocity for an inserted (template-less) note, ported from Rust
// drum_lanes.rs's calculate_velocity (30%/70% blend mapped to [60,127]).
func velocityFromConfidence(confidence, peakAmplitude float64) int {
	blended := 0.3*confidence + 0.7*peakAmplitude
	v := 60 + int(math.Round(blended*67))
	return beatforge.ClampVelocity(v)
}

// applyBEmphasis implements §4.G step 3: anchor pull, velocity boost, and
// the sidechain duck_amount flag. It deliberately does NOT trigger bass
// notes (binding decision, SPEC_FULL.md §10.1), unlike the Rust original's
// arrange_events().
func applyBEmphasis(kick *beatforge.Lane, beatPositionsMs []float64, bEmphasis float64) {
	anchorWindow := AnchorWindowSpanMs*(1-bEmphasis) + AnchorWindowBaseMs

	for i := range kick.Notes {
		note := &kick.Notes[i]
		if note.SourceEventID == "" {
			continue
		}
		if nearest, dist := nearestDownbeat(beatPositionsMs, note.TimestampMs); dist <= anchorWindow {
			note.TimestampMs = nearest
		}
		note.Velocity = beatforge.ClampVelocity(note.Velocity + int(math.Round(VelocityBoostMax*bEmphasis)))
	}
	kick.DuckAmount = bEmphasis
}

func nearestDownbeat(positions []float64, t float64) (float64, float64) {
	if len(positions) == 0 {
		return t, math.Inf(1)
	}
	best := positions[0]
	bestDist := math.Abs(best - t)
	for _, p := range positions[1:] {
		d := math.Abs(p - t)
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best, bestDist
}
