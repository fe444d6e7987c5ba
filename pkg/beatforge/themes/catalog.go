// Package themes is the read-only theme catalog (§9 "Theme catalog"):
// loaded from static data, no mutation, lookups by name. Scale/chord/bass/
// arp note derivation is ported from the Rust original's themes/types.rs
// and themes/blade_runner.rs free functions.
package themes

import "github.com/himanishpuri/beatforge/pkg/beatforge"

// scaleIntervals returns the semitone intervals (from root) of a scale
// family, ported from Rust themes/types.rs's scale_notes tables.
func scaleIntervals(family beatforge.ScaleFamily) []int {
	switch family {
	case beatforge.ScaleMajor:
		return []int{0, 2, 4, 5, 7, 9, 11}
	case beatforge.ScaleDorian:
		return []int{0, 2, 3, 5, 7, 9, 10}
	case beatforge.ScalePhrygian:
		return []int{0, 1, 3, 5, 7, 8, 10}
	default: // ScaleMinor (natural minor)
		return []int{0, 2, 3, 5, 7, 8, 10}
	}
}

// ScaleNotes returns the absolute MIDI notes of one octave of family built
// on root.
func ScaleNotes(root int, family beatforge.ScaleFamily) []int {
	intervals := scaleIntervals(family)
	notes := make([]int, len(intervals))
	for i, iv := range intervals {
		notes[i] = root + iv
	}
	return notes
}

// ChordNotes returns the MIDI triad (root, third, fifth) for a chord symbol
// against the theme's root note and scale family, ported from Rust
// themes/types.rs's chord_notes degree lookup.
func ChordNotes(rootNote int, scale beatforge.ScaleFamily, chord beatforge.ChordSymbol) [3]int {
	scaleNotes := ScaleNotes(rootNote, scale)
	degreeRoot := scaleNotes[chord.Degree%len(scaleNotes)]
	thirdOffset, fifthOffset := 4, 7
	if chord.Quality == beatforge.ChordMinor {
		thirdOffset = 3
	}
	return [3]int{degreeRoot, degreeRoot + thirdOffset, degreeRoot + fifthOffset}
}

// BassNotes expands a chord's root into a bass-lane note sequence for one
// bar, in the rhythmic pattern named by p. Ported from Rust
// themes/types.rs's bass_notes.
func BassNotes(chord [3]int, p beatforge.BassPattern) []int {
	root, fifth := chord[0], chord[2]
	switch p {
	case beatforge.BassRootFifth:
		return []int{root, fifth, root, fifth}
	case beatforge.BassOffbeatEighths:
		return []int{root, root, root, root}
	case beatforge.BassWalking:
		return []int{root, chord[1], fifth, chord[1]}
	default: // BassRoot
		return []int{root, root, root, root}
	}
}

// ArpNotes expands a chord across octaveRange in pattern order. Ported from
// Rust themes/types.rs's arp_notes octave-expansion + pattern application.
func ArpNotes(chord [3]int, pattern beatforge.ArpPattern, octaveRange [2]int) []int {
	var expanded []int
	for oct := octaveRange[0]; oct <= octaveRange[1]; oct++ {
		for _, n := range chord {
			expanded = append(expanded, n+12*oct)
		}
	}
	switch pattern {
	case beatforge.ArpDown:
		reversed := make([]int, len(expanded))
		for i, n := range expanded {
			reversed[len(expanded)-1-i] = n
		}
		return reversed
	case beatforge.ArpAlternating:
		out := make([]int, 0, len(expanded)*2-1)
		for i := 0; i < len(expanded); i++ {
			out = append(out, expanded[i])
			if i < len(expanded)-1 {
				out = append(out, expanded[len(expanded)-1-i])
			}
		}
		return out
	default: // ArpUp
		return expanded
	}
}

// Catalog is the static, read-only set of named themes.
var Catalog = map[string]beatforge.Theme{
	"blade_runner": {
		Name:        "blade_runner",
		BPMRange:    [2]int{80, 100},
		RootNote:    62, // D
		ScaleFamily: beatforge.ScaleMinor,
		ChordProgression: beatforge.ChordProgression{
			Chords: []beatforge.ChordSymbol{
				{Degree: 0, Quality: beatforge.ChordMinor}, // i
				{Degree: 5, Quality: beatforge.ChordMajor}, // VI
				{Degree: 2, Quality: beatforge.ChordMajor}, // III
				{Degree: 6, Quality: beatforge.ChordMajor}, // VII
			},
			BarsPerChord: 2,
		},
		BassPattern:    beatforge.BassRootFifth,
		ArpPattern:     beatforge.ArpUp,
		ArpOctaveRange: [2]int{-1, 1},
		DrumPalette:    beatforge.DrumPaletteSynthwave,
	},
	"stranger_things": {
		Name:        "stranger_things",
		BPMRange:    [2]int{100, 120},
		RootNote:    57, // A
		ScaleFamily: beatforge.ScaleDorian,
		ChordProgression: beatforge.ChordProgression{
			Chords: []beatforge.ChordSymbol{
				{Degree: 0, Quality: beatforge.ChordMinor}, // i
				{Degree: 3, Quality: beatforge.ChordMinor}, // iv
				{Degree: 5, Quality: beatforge.ChordMajor}, // VI
				{Degree: 4, Quality: beatforge.ChordMinor}, // v
			},
			BarsPerChord: 1,
		},
		BassPattern:    beatforge.BassOffbeatEighths,
		ArpPattern:     beatforge.ArpAlternating,
		ArpOctaveRange: [2]int{0, 2},
		DrumPalette:    beatforge.DrumPaletteTR808,
	},
	"arp_drive": {
		Name:        "arp_drive",
		BPMRange:    [2]int{120, 140},
		RootNote:    60, // C
		ScaleFamily: beatforge.ScaleMajor,
		ChordProgression: beatforge.ChordProgression{
			Chords: []beatforge.ChordSymbol{
				{Degree: 0, Quality: beatforge.ChordMajor}, // I
				{Degree: 3, Quality: beatforge.ChordMajor}, // IV
				{Degree: 4, Quality: beatforge.ChordMajor}, // V
				{Degree: 5, Quality: beatforge.ChordMinor}, // vi
			},
			BarsPerChord: 1,
		},
		BassPattern:    beatforge.BassRoot,
		ArpPattern:     beatforge.ArpUp,
		ArpOctaveRange: [2]int{0, 1},
		DrumPalette:    beatforge.DrumPaletteSynthwave,
	},
}

// ErrThemeUnknown is returned by Lookup for a name absent from the catalog.
type ErrThemeUnknown struct{ Name string }

func (e *ErrThemeUnknown) Error() string { return "ThemeUnknown: " + e.Name }

// Lookup returns a catalog entry by name, or ErrThemeUnknown.
func Lookup(name string) (beatforge.Theme, error) {
	theme, ok := Catalog[name]
	if !ok {
		return beatforge.Theme{}, &ErrThemeUnknown{Name: name}
	}
	return theme, nil
}

// ChordForBar returns the chord active at the given 0-indexed bar.
func ChordForBar(progression beatforge.ChordProgression, bar int) beatforge.ChordSymbol {
	if len(progression.Chords) == 0 {
		return beatforge.ChordSymbol{}
	}
	barsPerChord := progression.BarsPerChord
	if barsPerChord < 1 {
		barsPerChord = 1
	}
	idx := (bar / barsPerChord) % len(progression.Chords)
	return progression.Chords[idx]
}
