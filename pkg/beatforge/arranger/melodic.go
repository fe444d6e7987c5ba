package arranger

import (
	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/beatforge/themes"
)

const (
	BassVelocity = 90
	PadVelocity  = 70
	ArpVelocity  = 80
)

// buildBassLane implements §4.G step 4: pitch derived from the theme's
// chord progression per bar, rhythm from rules.BassBeats.
func buildBassLane(plan beatforge.GridPlan, rules TemplateRules, theme beatforge.Theme, barCount int) beatforge.Lane {
	lane := beatforge.Lane{Name: beatforge.LaneBass, MidiNote: 0}
	beatsPerBar := plan.TimeSignature.BeatsPerBar()
	beatMs := plan.BeatMs()

	for bar := 0; bar < barCount; bar++ {
		chordSymbol := themes.ChordForBar(theme.ChordProgression, bar)
		chord := themes.ChordNotes(theme.RootNote, theme.ScaleFamily, chordSymbol)
		pattern := themes.BassNotes(chord, theme.BassPattern)
		for _, beat := range rules.BassBeats {
			if beat >= beatsPerBar {
				continue
			}
			note := chord[0]
			if rules.BassUsesFifth {
				if beat%2 == 1 {
					note = chord[2]
				}
			} else if len(pattern) > 0 {
				note = pattern[beat%len(pattern)]
			}
			lane.Notes = append(lane.Notes, beatforge.ArrangedNote{
				TimestampMs: plan.BeatPhaseMs + float64(bar*beatsPerBar+beat)*beatMs,
				DurationMs:  beatMs * 0.9,
				Velocity:    BassVelocity,
				MidiNote:    note,
			})
		}
	}
	return lane
}

// buildPadLane implements §4.G step 5's pad half: one sustained note per
// chord spanning the chord's full bar range.
func buildPadLane(plan beatforge.GridPlan, theme beatforge.Theme, barCount int) beatforge.Lane {
	lane := beatforge.Lane{Name: beatforge.LanePad, MidiNote: 0}
	beatsPerBar := plan.TimeSignature.BeatsPerBar()
	beatMs := plan.BeatMs()
	barMs := beatMs * float64(beatsPerBar)
	barsPerChord := theme.ChordProgression.BarsPerChord
	if barsPerChord < 1 {
		barsPerChord = 1
	}

	for bar := 0; bar < barCount; bar += barsPerChord {
		chordSymbol := themes.ChordForBar(theme.ChordProgression, bar)
		chord := themes.ChordNotes(theme.RootNote, theme.ScaleFamily, chordSymbol)
		span := barsPerChord
		if bar+span > barCount {
			span = barCount - bar
		}
		lane.Notes = append(lane.Notes, beatforge.ArrangedNote{
			TimestampMs: plan.BeatPhaseMs + float64(bar)*barMs,
			DurationMs:  float64(span) * barMs,
			Velocity:    PadVelocity,
			MidiNote:    chord[0],
		})
	}
	return lane
}

// buildArpLane implements §4.G step 5's arp half: chord tones enumerated
// across octaves in the template's subdivision and the theme's arp
// pattern.
func buildArpLane(plan beatforge.GridPlan, rules TemplateRules, theme beatforge.Theme, barCount int) beatforge.Lane {
	lane := beatforge.Lane{Name: beatforge.LaneArp, MidiNote: 0}
	if !rules.ArpEnabled {
		return lane
	}
	beatsPerBar := plan.TimeSignature.BeatsPerBar()
	beatMs := plan.BeatMs()
	subs := rules.ArpSubsPerBeat
	if subs < 1 {
		subs = 1
	}
	subMs := beatMs / float64(subs)

	for bar := 0; bar < barCount; bar++ {
		chordSymbol := themes.ChordForBar(theme.ChordProgression, bar)
		chord := themes.ChordNotes(theme.RootNote, theme.ScaleFamily, chordSymbol)
		sequence := themes.ArpNotes(chord, theme.ArpPattern, theme.ArpOctaveRange)
		if len(sequence) == 0 {
			continue
		}
		step := 0
		for beat := 0; beat < beatsPerBar; beat++ {
			barBeatMs := plan.BeatPhaseMs + float64(bar*beatsPerBar+beat)*beatMs
			for s := 0; s < subs; s++ {
				note := sequence[step%len(sequence)]
				step++
				lane.Notes = append(lane.Notes, beatforge.ArrangedNote{
					TimestampMs: barBeatMs + float64(s)*subMs,
					DurationMs:  subMs * 0.9,
					Velocity:    ArpVelocity,
					MidiNote:    note,
				})
			}
		}
	}
	return lane
}
