// Package beatforge implements the offline beatbox-to-arrangement pipeline:
// decode, onset detection, feature extraction, classification, tempo and
// grid estimation, quantization, template arrangement, MIDI encoding and
// offline synth rendering. Every type in this file is pure data; no type
// here owns a file handle, a lock, or process-wide state.
package beatforge

import (
	"crypto/sha256"
	"fmt"
)

// EventClass is the fixed four-way classification of a detected percussive
// or voiced event.
type EventClass int

const (
	BilabialPlosive EventClass = iota
	HihatNoise
	Click
	HumVoiced
)

func (c EventClass) String() string {
	switch c {
	case BilabialPlosive:
		return "BilabialPlosive"
	case HihatNoise:
		return "HihatNoise"
	case Click:
		return "Click"
	case HumVoiced:
		return "HumVoiced"
	default:
		return "Unknown"
	}
}

// FeatureVector is the fixed-shape acoustic feature set computed per onset.
type FeatureVector struct {
	SpectralCentroid float64 // Hz
	ZCR              float64 // [0,1]
	LowBandEnergy    float64 // [0,1], low+mid+high == 1
	MidBandEnergy    float64
	HighBandEnergy   float64
	PeakAmplitude    float64 // [0,1]
}

// Event is a single detected percussive/voiced occurrence.
type Event struct {
	ID            string
	TimestampMs   float64
	DurationMs    float64
	Class         EventClass
	Confidence    float64
	Features      FeatureVector
}

// NewEventID derives a stable, content-based identifier from the event's
// position in the onset train, its timestamp and its class. Two runs over identical
// input produce identical ids; no randomness is involved.
func NewEventID(index int, timestampMs float64, class EventClass) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%.6f|%s", index, timestampMs, class)))
	return fmt.Sprintf("evt-%04d-%x", index, sum[:8])
}

// TimeSignature enumerates the two supported meters.
type TimeSignature int

const (
	FourFour TimeSignature = iota
	ThreeFour
)

func (t TimeSignature) BeatsPerBar() int {
	if t == ThreeFour {
		return 3
	}
	return 4
}

func (t TimeSignature) String() string {
	if t == ThreeFour {
		return "3/4"
	}
	return "4/4"
}

// Division is the grid subdivision resolution.
type Division int

const (
	DivisionQuarter Division = iota
	DivisionEighth
	DivisionSixteenth
	DivisionTriplet
)

// SubdivisionsPerBeat reports how many grid slots fall within one beat.
func (d Division) SubdivisionsPerBeat() int {
	switch d {
	case DivisionEighth:
		return 2
	case DivisionSixteenth:
		return 4
	case DivisionTriplet:
		return 3
	default:
		return 1
	}
}

func (d Division) String() string {
	switch d {
	case DivisionEighth:
		return "1/8"
	case DivisionSixteenth:
		return "1/16"
	case DivisionTriplet:
		return "triplet"
	default:
		return "1/4"
	}
}

// Feel is the rhythmic interpretation mode.
type Feel int

const (
	FeelStraight Feel = iota
	FeelSwing
	FeelHalftime
)

func (f Feel) String() string {
	switch f {
	case FeelSwing:
		return "swing"
	case FeelHalftime:
		return "halftime"
	default:
		return "straight"
	}
}

// GridPlan fixes the musical timing grid an arrangement is built against.
type GridPlan struct {
	BPM           float64
	TimeSignature TimeSignature
	Division      Division
	Feel          Feel
	SwingAmount   float64 // [0,1]
	BarCount      int     // one of {1,2,4,8,16}
	BeatPhaseMs   float64
}

// BeatMs is the duration of one beat in milliseconds.
func (g GridPlan) BeatMs() float64 { return 60000.0 / g.BPM }

// SlotMs is the duration of one grid slot given the division.
// Triplet+swing is treated as straight for swing purposes (§9 Open Questions);
// the slot duration itself is unaffected by feel, only by division.
func (g GridPlan) SlotMs() float64 {
	subs := g.Division.SubdivisionsPerBeat()
	if subs == 0 {
		subs = 1
	}
	return g.BeatMs() / float64(subs)
}

// QuantizedEvent is an Event after grid snapping.
type QuantizedEvent struct {
	EventID              string
	OriginalTimestampMs  float64
	QuantizedTimestampMs float64
	SnapDeltaMs          float64
	Event                Event
	GridPosition         GridPosition
}

// GridPosition locates a timestamp within bar/beat/subdivision coordinates.
type GridPosition struct {
	Bar         int
	Beat        int
	Subdivision int
}

// String renders a 1-indexed human-readable position, e.g. "2.3.1".
func (p GridPosition) String() string {
	return fmt.Sprintf("%d.%d.%d", p.Bar+1, p.Beat+1, p.Subdivision+1)
}

// ArrangedNote is one playable note inside a Lane. MidiNote carries the
// note's own pitch; for fixed-pitch drum lanes this equals the lane's
// MidiNote, for melodic lanes (bass/pad/arp) it varies note to note.
type ArrangedNote struct {
	TimestampMs   float64
	DurationMs    float64
	Velocity      int // [1,127]
	MidiNote      int
	SourceEventID string // empty means template-only, no source event
}

// ClampVelocity enforces the MIDI velocity invariant.
func ClampVelocity(v int) int {
	if v < 1 {
		return 1
	}
	if v > 127 {
		return 127
	}
	return v
}

// Lane is a single instrument's ordered note stream.
type Lane struct {
	Name     string
	MidiNote int
	Notes    []ArrangedNote
	// DuckAmount is the B-emphasis sidechain flag (§4.G step 3); consumed
	// only by the offline synth, not by MIDI encoding.
	DuckAmount float64
}

// fixed lane order per §9 Design Notes ("Reproducibility"): kick, snare,
// hat, bass, pad, arp. Never iterate lanes via a map.
const (
	LaneKick  = "DRUMS_KICK"
	LaneSnare = "DRUMS_SNARE"
	LaneHat   = "DRUMS_HIHAT"
	LaneBass  = "BASS"
	LanePad   = "PADS"
	LaneArp   = "ARP"
)

// Template names.
type Template int

const (
	SynthwaveStraight Template = iota
	SynthwaveHalftime
	ArpDrive
)

func (t Template) String() string {
	switch t {
	case SynthwaveHalftime:
		return "SynthwaveHalftime"
	case ArpDrive:
		return "ArpDrive"
	default:
		return "SynthwaveStraight"
	}
}

// Arrangement is the multi-lane output of the arranger, ready for MIDI
// encoding and synth rendering.
type Arrangement struct {
	DrumLanes       []Lane // kick, snare, hat in that order
	BassLane        *Lane
	PadLane         *Lane
	ArpLane         *Lane
	Template        Template
	TimeSignature   TimeSignature
	TotalDurationMs float64
	BarCount        int
	BPM             float64
	Phrases         *PhraseStructure // supplemented, descriptive only
}

// AllLanes returns every non-nil lane in the fixed reproducible order:
// kick, snare, hat, bass, pad, arp.
func (a *Arrangement) AllLanes() []*Lane {
	lanes := make([]*Lane, 0, len(a.DrumLanes)+3)
	for i := range a.DrumLanes {
		lanes = append(lanes, &a.DrumLanes[i])
	}
	if a.BassLane != nil {
		lanes = append(lanes, a.BassLane)
	}
	if a.PadLane != nil {
		lanes = append(lanes, a.PadLane)
	}
	if a.ArpLane != nil {
		lanes = append(lanes, a.ArpLane)
	}
	return lanes
}

// ScaleFamily enumerates the supported harmonic families.
type ScaleFamily int

const (
	ScaleMinor ScaleFamily = iota
	ScaleMajor
	ScaleDorian
	ScalePhrygian
)

// ChordQuality distinguishes major/minor triads built on a scale degree.
type ChordQuality int

const (
	ChordMajor ChordQuality = iota
	ChordMinor
)

// ChordSymbol is a scale-degree + quality pair, e.g. degree 0 minor == "i".
type ChordSymbol struct {
	Degree  int // 0-indexed scale degree
	Quality ChordQuality
}

// ChordProgression is an ordered list of chords with a shared bar span.
type ChordProgression struct {
	Chords       []ChordSymbol
	BarsPerChord int
}

// BassPattern enumerates supported bass rhythms.
type BassPattern int

const (
	BassRoot BassPattern = iota
	BassRootFifth
	BassOffbeatEighths
	BassWalking
)

// ArpPattern enumerates supported arpeggio orderings.
type ArpPattern int

const (
	ArpUp ArpPattern = iota
	ArpDown
	ArpAlternating
)

// DrumPalette names a percussive timbre set; the offline synth is the only
// consumer of this value (it has no effect on arrangement logic).
type DrumPalette int

const (
	DrumPaletteSynthwave DrumPalette = iota
	DrumPaletteAcoustic
	DrumPaletteTR808
)

// Theme is a read-only harmonic/timbral catalog entry.
type Theme struct {
	Name            string
	BPMRange        [2]int
	RootNote        int // MIDI 0-127
	ScaleFamily     ScaleFamily
	ChordProgression ChordProgression
	BassPattern     BassPattern
	ArpPattern      ArpPattern
	ArpOctaveRange  [2]int
	DrumPalette     DrumPalette
}

// CalibrationProfile adjusts classifier thresholds multiplicatively. Unknown
// keys are ignored by the classifier; missing keys default to 1.0.
type CalibrationProfile struct {
	Thresholds map[EventClass]float64 `json:"-"`
	Notes      string                 `json:"notes"`
}

// Parameters is the complete, serializable input to one pipeline invocation
// (besides the PCM bytes). The entire pipeline output is a pure function of
// (pcm, Parameters).
type Parameters struct {
	Theme             string
	Template          Template
	BPMOverride       float64 // 0 means "auto, use estimator"
	TimeSignature     TimeSignature
	Division          Division
	Feel              Feel
	SwingAmount       float64
	BarCount          int
	QuantizeStrength  float64
	LookaheadMs       float64
	BEmphasis         float64
	CalibrationProfile *CalibrationProfile
}

// DecisionRecord is the explainability output (§6 Output C): one entry per
// input event describing how it moved through the pipeline.
type DecisionRecord struct {
	EventID              string
	OriginalTimestampMs  float64
	QuantizedTimestampMs float64
	SnapDeltaMs          float64
	Class                EventClass
	Confidence           float64
	MappedTo             []string
	Features             FeatureVector
}

// PhraseType labels a descriptive section of an arrangement (supplemented
// feature, §13; purely informational — never consulted by lane generation).
type PhraseType int

const (
	PhraseIntro PhraseType = iota
	PhraseVerse
	PhraseBuildup
	PhraseDrop
	PhraseOutro
)

func (p PhraseType) String() string {
	switch p {
	case PhraseIntro:
		return "intro"
	case PhraseBuildup:
		return "buildup"
	case PhraseDrop:
		return "drop"
	case PhraseOutro:
		return "outro"
	default:
		return "verse"
	}
}

// Phrase is one labeled bar range, end exclusive.
type Phrase struct {
	StartBar int
	EndBar   int
	Type     PhraseType
}

func (p Phrase) LengthBars() int { return p.EndBar - p.StartBar }

func (p Phrase) ContainsBar(bar int) bool { return bar >= p.StartBar && bar < p.EndBar }

// PhraseStructure is the complete, descriptive phrase map for an arrangement.
type PhraseStructure struct {
	Phrases  []Phrase
	TotalBars int
}
