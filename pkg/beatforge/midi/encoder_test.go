package midi

import (
	"bytes"
	"testing"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

func sampleArrangement() *beatforge.Arrangement {
	kick := beatforge.Lane{Name: beatforge.LaneKick, MidiNote: 36, Notes: []beatforge.ArrangedNote{
		{TimestampMs: 0, DurationMs: 100, Velocity: 100, MidiNote: 36},
		{TimestampMs: 500, DurationMs: 100, Velocity: 100, MidiNote: 36},
	}}
	return &beatforge.Arrangement{
		DrumLanes:     []beatforge.Lane{kick, {Name: beatforge.LaneSnare}, {Name: beatforge.LaneHat}},
		TimeSignature: beatforge.FourFour,
		BPM:           120,
		BarCount:      1,
	}
}

func TestEncodeStartsWithHeaderChunk(t *testing.T) {
	out := Encode(sampleArrangement())
	if !bytes.HasPrefix(out, []byte("MThd")) {
		t.Fatal("Encode() output should start with the MThd chunk ID")
	}
}

func TestEncodeSkipsEmptyLanes(t *testing.T) {
	arr := sampleArrangement()
	out := Encode(arr)
	// Two tracks expected: the meta track and the one non-empty (kick) lane.
	trackCount := bytes.Count(out, []byte("MTrk"))
	if trackCount != 2 {
		t.Errorf("track count = %d, want 2 (meta + kick only, snare/hat are empty)", trackCount)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	arr := sampleArrangement()
	a := Encode(arr)
	b := Encode(arr)
	if !bytes.Equal(a, b) {
		t.Error("Encode() is not deterministic for identical input")
	}
}

func TestMsToTicksScalesWithBPM(t *testing.T) {
	ticksAt120 := msToTicks(500, 120)
	ticksAt60 := msToTicks(500, 60)
	if ticksAt60 >= ticksAt120 {
		t.Errorf("halving BPM should halve ticks for the same ms span: at60=%d at120=%d", ticksAt60, ticksAt120)
	}
}

func TestWriteVLQRoundTripsSmallValues(t *testing.T) {
	var buf bytes.Buffer
	writeVLQ(&buf, 0)
	if buf.Len() != 1 || buf.Bytes()[0] != 0 {
		t.Errorf("writeVLQ(0) = %v, want single zero byte", buf.Bytes())
	}
}

func TestWriteVLQMultiByte(t *testing.T) {
	var buf bytes.Buffer
	writeVLQ(&buf, 128)
	if buf.Len() != 2 {
		t.Errorf("writeVLQ(128) produced %d bytes, want 2", buf.Len())
	}
}
