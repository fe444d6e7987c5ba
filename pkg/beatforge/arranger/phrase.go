package arranger

import "github.com/himanishpuri/beatforge/pkg/beatforge"

// DefaultPhraseStructure derives a descriptive phrase map from bar count
// alone, ported from the Rust original's arranger/phrase.rs
// default_structure() heuristic. It is attached to an Arrangement purely
// for explainability/export labeling and never consulted when generating
// lanes (§13 supplement).
func DefaultPhraseStructure(totalBars int) beatforge.PhraseStructure {
	var phrases []beatforge.Phrase
	switch {
	case totalBars <= 4:
		phrases = []beatforge.Phrase{
			{StartBar: 0, EndBar: totalBars, Type: beatforge.PhraseVerse},
		}
	case totalBars <= 8:
		half := totalBars / 2
		phrases = []beatforge.Phrase{
			{StartBar: 0, EndBar: half, Type: beatforge.PhraseIntro},
			{StartBar: half, EndBar: totalBars, Type: beatforge.PhraseVerse},
		}
	case totalBars <= 16:
		introEnd := totalBars / 4
		buildupEnd := totalBars / 2
		dropEnd := totalBars * 3 / 4
		phrases = []beatforge.Phrase{
			{StartBar: 0, EndBar: introEnd, Type: beatforge.PhraseIntro},
			{StartBar: introEnd, EndBar: buildupEnd, Type: beatforge.PhraseVerse},
			{StartBar: buildupEnd, EndBar: dropEnd, Type: beatforge.PhraseBuildup},
			{StartBar: dropEnd, EndBar: totalBars, Type: beatforge.PhraseDrop},
		}
	default:
		introEnd := totalBars / 8
		verseEnd := totalBars * 3 / 8
		buildupEnd := totalBars / 2
		dropEnd := totalBars * 7 / 8
		phrases = []beatforge.Phrase{
			{StartBar: 0, EndBar: introEnd, Type: beatforge.PhraseIntro},
			{StartBar: introEnd, EndBar: verseEnd, Type: beatforge.PhraseVerse},
			{StartBar: verseEnd, EndBar: buildupEnd, Type: beatforge.PhraseBuildup},
			{StartBar: buildupEnd, EndBar: dropEnd, Type: beatforge.PhraseDrop},
			{StartBar: dropEnd, EndBar: totalBars, Type: beatforge.PhraseOutro},
		}
	}
	return beatforge.PhraseStructure{Phrases: phrases, TotalBars: totalBars}
}

// ValidatePhraseStructure checks the no-gaps/no-overlap/full-coverage
// invariant, ported from Rust phrase.rs's validate().
func ValidatePhraseStructure(ps beatforge.PhraseStructure) bool {
	if len(ps.Phrases) == 0 {
		return ps.TotalBars == 0
	}
	if ps.Phrases[0].StartBar != 0 {
		return false
	}
	for i := 0; i < len(ps.Phrases)-1; i++ {
		if ps.Phrases[i].EndBar != ps.Phrases[i+1].StartBar {
			return false
		}
	}
	return ps.Phrases[len(ps.Phrases)-1].EndBar == ps.TotalBars
}
