// Package arranger implements Component G, grounded structurally on the
// Rust original's arranger/templates.rs and arranger/drum_lanes.rs: templates
// are data (tables of drum-slot × velocity × lane), interpreted by one
// generator (§9 "Template polymorphism"), not separate code paths per
// template.
package arranger

import "github.com/himanishpuri/beatforge/pkg/beatforge"

const (
	DefaultKickVelocity  = 100
	DefaultSnareVelocity = 95
	DefaultHatVelocity   = 70
	HatVelocityLow       = 55 // SynthwaveHalftime's "velocity variation"

	MidiKick        = 36
	MidiSnare       = 38
	MidiClap        = 39
	MidiClosedHihat = 42
	MidiOpenHihat   = 46
)

// TemplateRules is the per-template data table the single generator reads.
// Positions are beat indices (0-indexed) within a bar at which a drum hit
// fires; hat/arp use subdivisions-per-beat instead of fixed positions.
type TemplateRules struct {
	KickBeats         []int
	SnareBeats        []int
	HatSubsPerBeat    int
	HatVelocityVaries bool
	BassBeats         []int // which beats carry a bass note
	BassUsesFifth     bool
	ArpEnabled        bool
	ArpSubsPerBeat    int
}

// RulesFor returns the fixed data table for a template (§4.G).
func RulesFor(t beatforge.Template) TemplateRules {
	switch t {
	case beatforge.SynthwaveHalftime:
		return TemplateRules{
			KickBeats:         []int{0},
			SnareBeats:        []int{2},
			HatSubsPerBeat:    2,
			HatVelocityVaries: true,
			BassBeats:         []int{0, 2},
			BassUsesFifth:     false,
		}
	case beatforge.ArpDrive:
		return TemplateRules{
			KickBeats:      []int{0, 1, 2, 3},
			SnareBeats:     []int{1, 3},
			HatSubsPerBeat: 4,
			BassBeats:      []int{0},
			BassUsesFifth:  false,
			ArpEnabled:     true,
			ArpSubsPerBeat: 4,
		}
	default: // SynthwaveStraight
		return TemplateRules{
			KickBeats:      []int{0, 2},
			SnareBeats:     []int{1, 3},
			HatSubsPerBeat: 2,
			BassBeats:      []int{0, 1, 2, 3},
			BassUsesFifth:  true,
		}
	}
}

func containsBeat(beats []int, beat int) bool {
	for _, b := range beats {
		if b == beat {
			return true
		}
	}
	return false
}
