package beatforge

import "testing"

func TestNewEventIDDeterministic(t *testing.T) {
	id1 := NewEventID(3, 120.5, HihatNoise)
	id2 := NewEventID(3, 120.5, HihatNoise)
	if id1 != id2 {
		t.Errorf("NewEventID not deterministic: %q != %q", id1, id2)
	}

	id3 := NewEventID(3, 120.6, HihatNoise)
	if id1 == id3 {
		t.Error("NewEventID did not change with timestamp")
	}

	id4 := NewEventID(3, 120.5, Click)
	if id1 == id4 {
		t.Error("NewEventID did not change with class")
	}
}

func TestClampVelocity(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{64, 64},
		{127, 127},
		{200, 127},
	}
	for _, c := range cases {
		if got := ClampVelocity(c.in); got != c.want {
			t.Errorf("ClampVelocity(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestGridPlanSlotMs(t *testing.T) {
	plan := GridPlan{BPM: 120, Division: DivisionSixteenth}
	beatMs := plan.BeatMs()
	if beatMs != 500 {
		t.Errorf("BeatMs() = %v, want 500", beatMs)
	}
	slotMs := plan.SlotMs()
	if slotMs != 125 {
		t.Errorf("SlotMs() = %v, want 125 (quarter note / 4)", slotMs)
	}
}

func TestTimeSignatureBeatsPerBar(t *testing.T) {
	if FourFour.BeatsPerBar() != 4 {
		t.Errorf("FourFour.BeatsPerBar() = %d, want 4", FourFour.BeatsPerBar())
	}
	if ThreeFour.BeatsPerBar() != 3 {
		t.Errorf("ThreeFour.BeatsPerBar() = %d, want 3", ThreeFour.BeatsPerBar())
	}
}

func TestGridPositionString(t *testing.T) {
	pos := GridPosition{Bar: 1, Beat: 2, Subdivision: 0}
	if got, want := pos.String(), "2.3.1"; got != want {
		t.Errorf("GridPosition.String() = %q, want %q", got, want)
	}
}

func TestArrangementAllLanesOrder(t *testing.T) {
	bass := Lane{Name: LaneBass}
	pad := Lane{Name: LanePad}
	arp := Lane{Name: LaneArp}
	arr := &Arrangement{
		DrumLanes: []Lane{{Name: LaneKick}, {Name: LaneSnare}, {Name: LaneHat}},
		BassLane:  &bass,
		PadLane:   &pad,
		ArpLane:   &arp,
	}
	lanes := arr.AllLanes()
	wantOrder := []string{LaneKick, LaneSnare, LaneHat, LaneBass, LanePad, LaneArp}
	if len(lanes) != len(wantOrder) {
		t.Fatalf("AllLanes() returned %d lanes, want %d", len(lanes), len(wantOrder))
	}
	for i, want := range wantOrder {
		if lanes[i].Name != want {
			t.Errorf("lane %d = %q, want %q", i, lanes[i].Name, want)
		}
	}
}

func TestArrangementAllLanesOmitsNilMelodic(t *testing.T) {
	arr := &Arrangement{DrumLanes: []Lane{{Name: LaneKick}}}
	lanes := arr.AllLanes()
	if len(lanes) != 1 {
		t.Errorf("AllLanes() = %d lanes, want 1 (nil bass/pad/arp omitted)", len(lanes))
	}
}

func TestPhraseContainsBar(t *testing.T) {
	p := Phrase{StartBar: 2, EndBar: 4, Type: PhraseVerse}
	if p.ContainsBar(1) {
		t.Error("ContainsBar(1) should be false, bar before range")
	}
	if !p.ContainsBar(2) || !p.ContainsBar(3) {
		t.Error("ContainsBar should be true for [StartBar, EndBar)")
	}
	if p.ContainsBar(4) {
		t.Error("ContainsBar(4) should be false, EndBar is exclusive")
	}
	if p.LengthBars() != 2 {
		t.Errorf("LengthBars() = %d, want 2", p.LengthBars())
	}
}
