package arranger

import (
	"sort"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/logger"
)

// ErrTemplateUnknown is returned for a template value outside the three
// mandatory templates (§4.G "Failure modes").
type ErrTemplateUnknown struct{ Template beatforge.Template }

func (e *ErrTemplateUnknown) Error() string {
	return "TemplateUnknown"
}

// Arrange implements Component G: applies a template to quantized events
// and a theme to produce the complete multi-lane Arrangement. An empty
// events slice produces a template-only arrangement (§4.G "EmptyEvents").
func Arrange(events []beatforge.QuantizedEvent, plan beatforge.GridPlan, theme beatforge.Theme, template beatforge.Template, bEmphasis float64) (*beatforge.Arrangement, error) {
	if template != beatforge.SynthwaveStraight && template != beatforge.SynthwaveHalftime && template != beatforge.ArpDrive {
		return nil, &ErrTemplateUnknown{Template: template}
	}
	rules := RulesFor(template)

	kick, snare, hat := fillDrumLanes(plan, rules, plan.BarCount)
	pad := beatforge.Lane{Name: beatforge.LanePad, MidiNote: 0}

	if len(events) > 0 {
		mapEventsToLanes(events, plan.SlotMs(), &kick, &snare, &hat, &pad, theme.RootNote)
	} else {
		logger.Debugf("arrange: EmptyEvents, producing template-only arrangement")
	}

	beatPositions := allBeatPositions(plan)
	applyBEmphasis(&kick, beatPositions, bEmphasis)

	sortAndEnforceMonotone(&kick)
	sortAndEnforceMonotone(&snare)
	sortAndEnforceMonotone(&hat)

	bass := buildBassLane(plan, rules, theme, plan.BarCount)
	melodicPad := buildPadLane(plan, theme, plan.BarCount)
	pad.Notes = append(pad.Notes, melodicPad.Notes...)
	sortAndEnforceMonotone(&pad)

	arp := buildArpLane(plan, rules, theme, plan.BarCount)

	halftimeMultiplier := 1.0
	if plan.Feel == beatforge.FeelHalftime {
		halftimeMultiplier = 2.0
	}
	totalDurationMs := float64(plan.BarCount) * float64(plan.TimeSignature.BeatsPerBar()) * plan.BeatMs() * halftimeMultiplier

	arrangement := &beatforge.Arrangement{
		DrumLanes:       []beatforge.Lane{kick, snare, hat},
		BassLane:        &bass,
		PadLane:         &pad,
		ArpLane:         &arp,
		Template:        template,
		TimeSignature:   plan.TimeSignature,
		TotalDurationMs: totalDurationMs,
		BarCount:        plan.BarCount,
		BPM:             plan.BPM,
		Phrases:         phraseStructurePtr(plan.BarCount),
	}
	return arrangement, nil
}

func phraseStructurePtr(barCount int) *beatforge.PhraseStructure {
	ps := DefaultPhraseStructure(barCount)
	return &ps
}

// allBeatPositions returns the timestamp of every beat (not just bar 1) in
// the plan, the anchor set b_emphasis pulls kicks toward (§4.G step 3). A
// beat-only anchor set, not a bar-only one, is what lets a kick near beat 2
// of a bar anchor to beat 2 instead of being pulled all the way back to the
// downbeat.
func allBeatPositions(plan beatforge.GridPlan) []float64 {
	beatsPerBar := plan.TimeSignature.BeatsPerBar()
	beatMs := plan.BeatMs()
	positions := make([]float64, plan.BarCount*beatsPerBar)
	for bar := 0; bar < plan.BarCount; bar++ {
		for beat := 0; beat < beatsPerBar; beat++ {
			positions[bar*beatsPerBar+beat] = plan.BeatPhaseMs + float64(bar*beatsPerBar+beat)*beatMs
		}
	}
	return positions
}

// sortAndEnforceMonotone sorts a lane's notes by timestamp and bumps any
// collision by 1ms to preserve strict monotonicity (§3 "Arrangement"
// invariant; §4.F "the arranger may coalesce them").
func sortAndEnforceMonotone(lane *beatforge.Lane) {
	sort.SliceStable(lane.Notes, func(i, j int) bool {
		return lane.Notes[i].TimestampMs < lane.Notes[j].TimestampMs
	})
	for i := 1; i < len(lane.Notes); i++ {
		if lane.Notes[i].TimestampMs <= lane.Notes[i-1].TimestampMs {
			lane.Notes[i].TimestampMs = lane.Notes[i-1].TimestampMs + 1
		}
	}
}
