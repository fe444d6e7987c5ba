// Package midi implements Component H: a hand-rolled Standard MIDI File
// writer. No MIDI-writing library exists anywhere in the example pack (a
// pack-wide `grep -i midi */go.mod` across all seven repos returns zero
// matches — see DESIGN.md), so this is built directly on encoding/binary.
// Structurally grounded on the Rust original's arranger/midi.rs
// (MidiExportOptions, per-lane tracks, tempo/time-signature meta events,
// end-of-track padding) and byte-layout-grounded on
// other_examples/husafan-audio__midi-structs.go's chunk/event constants.
package midi

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

const (
	PPQ = 480

	headerChunkID = "MThd"
	trackChunkID  = "MTrk"

	metaEvent         = 0xFF
	metaEventEndTrack = 0x2F
	metaEventTempo    = 0x51
	metaEventTimeSig  = 0x58
	metaEventTrackName = 0x03

	noteOnStatus  = 0x90
	noteOffStatus = 0x80
)

// Encode serializes an Arrangement to a Format-1 Standard MIDI File at
// 480 PPQ (§4.H). Output is byte-for-byte deterministic for identical
// input: no timestamps, no random ids are embedded anywhere in the file.
func Encode(arr *beatforge.Arrangement) []byte {
	lanes := arr.AllLanes()

	var tracks [][]byte
	tracks = append(tracks, buildMetaTrack(arr))
	for _, lane := range lanes {
		if len(lane.Notes) == 0 {
			continue
		}
		tracks = append(tracks, buildLaneTrack(lane, arr.BPM))
	}

	var out bytes.Buffer
	out.Write(headerChunk(uint16(len(tracks))))
	for _, t := range tracks {
		out.Write(t)
	}
	return out.Bytes()
}

// headerChunk builds the MThd chunk: format 1, numTracks, PPQ division.
func headerChunk(numTracks uint16) []byte {
	var buf bytes.Buffer
	buf.WriteString(headerChunkID)
	writeUint32(&buf, 6)
	writeUint16(&buf, 1) // format 1: multiple simultaneous tracks
	writeUint16(&buf, numTracks)
	writeUint16(&buf, PPQ)
	return buf.Bytes()
}

// buildMetaTrack emits the tempo and time-signature meta events at tick 0,
// per §4.H.
func buildMetaTrack(arr *beatforge.Arrangement) []byte {
	var body bytes.Buffer
	writeVLQ(&body, 0)
	body.WriteByte(metaEvent)
	body.WriteByte(metaEventTrackName)
	writeMetaText(&body, "beatforge")

	writeVLQ(&body, 0)
	body.WriteByte(metaEvent)
	body.WriteByte(metaEventTempo)
	body.WriteByte(3)
	microsPerQuarter := uint32(60000000.0 / arr.BPM)
	body.WriteByte(byte(microsPerQuarter >> 16))
	body.WriteByte(byte(microsPerQuarter >> 8))
	body.WriteByte(byte(microsPerQuarter))

	writeVLQ(&body, 0)
	body.WriteByte(metaEvent)
	body.WriteByte(metaEventTimeSig)
	body.WriteByte(4)
	numerator, denominatorPow := timeSignatureBytes(arr)
	body.WriteByte(numerator)
	body.WriteByte(denominatorPow)
	body.WriteByte(24) // MIDI clocks per metronome click
	body.WriteByte(8)  // 32nd notes per quarter note

	writeEndOfTrack(&body)
	return wrapTrackChunk(body.Bytes())
}

// timeSignatureBytes reports the numerator and denominator (as a power of
// two exponent) for the arrangement's time signature; only 4/4 and 3/4 are
// supported (§3). The denominator is always a quarter note (2^2).
func timeSignatureBytes(arr *beatforge.Arrangement) (numerator, denominatorPow byte) {
	return byte(arr.TimeSignature.BeatsPerBar()), 2
}

// buildLaneTrack emits one track per non-empty lane: track-name meta event,
// then each note's on/off pair. Notes are sorted by absolute tick, and at
// identical ticks note-off is emitted before note-on to avoid stuck notes
// (§4.H).
func buildLaneTrack(lane *beatforge.Lane, bpm float64) []byte {
	type timedEvent struct {
		tick     int64
		isNoteOn bool
		note     int
		velocity int
	}

	var events []timedEvent
	for _, n := range lane.Notes {
		onTick := msToTicks(n.TimestampMs, bpm)
		offTick := msToTicks(n.TimestampMs+n.DurationMs, bpm)
		note := n.MidiNote
		if note == 0 && lane.MidiNote != 0 {
			note = lane.MidiNote
		}
		events = append(events,
			timedEvent{tick: onTick, isNoteOn: true, note: note, velocity: n.Velocity},
			timedEvent{tick: offTick, isNoteOn: false, note: note, velocity: 0},
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		// note-off before note-on at identical ticks.
		return !events[i].isNoteOn && events[j].isNoteOn
	})

	var body bytes.Buffer
	writeVLQ(&body, 0)
	body.WriteByte(metaEvent)
	body.WriteByte(metaEventTrackName)
	writeMetaText(&body, lane.Name)

	var lastTick int64
	for _, ev := range events {
		delta := ev.tick - lastTick
		lastTick = ev.tick
		writeVLQ(&body, uint32(delta))
		status := byte(noteOffStatus)
		velocity := byte(0)
		if ev.isNoteOn {
			status = noteOnStatus
			velocity = byte(ev.velocity)
		}
		body.WriteByte(status)
		body.WriteByte(byte(ev.note))
		body.WriteByte(velocity)
	}
	writeEndOfTrack(&body)
	return wrapTrackChunk(body.Bytes())
}

// msToTicks converts a millisecond timestamp into MIDI ticks at PPQ=480
// given the arrangement's bpm (§9 "convert to ticks only inside the MIDI
// encoder").
func msToTicks(ms, bpm float64) int64 {
	ticksPerMs := float64(PPQ) * bpm / 60000.0
	return int64(ms*ticksPerMs + 0.5)
}

func writeEndOfTrack(body *bytes.Buffer) {
	writeVLQ(body, 0)
	body.WriteByte(metaEvent)
	body.WriteByte(metaEventEndTrack)
	body.WriteByte(0)
}

func wrapTrackChunk(body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(trackChunkID)
	writeUint32(&buf, uint32(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

func writeMetaText(body *bytes.Buffer, s string) {
	writeVLQ(body, uint32(len(s)))
	body.WriteString(s)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// writeVLQ writes a MIDI variable-length quantity.
func writeVLQ(buf *bytes.Buffer, value uint32) {
	var stack [5]byte
	n := 0
	stack[n] = byte(value & 0x7F)
	n++
	value >>= 7
	for value > 0 {
		stack[n] = byte(value&0x7F) | 0x80
		n++
		value >>= 7
	}
	for i := n - 1; i >= 0; i-- {
		buf.WriteByte(stack[i])
	}
}
