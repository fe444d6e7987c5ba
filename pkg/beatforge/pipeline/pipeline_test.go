package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

const testSampleRate = 44100

// syntheticBeatboxWav builds a short mono WAV with sharp clicks at each
// given millisecond offset, loud enough to register as onsets, and encodes
// it the same way the offline synth's own output is encoded.
func syntheticBeatboxWav(t *testing.T, offsetsMs []float64, totalMs float64) []byte {
	t.Helper()
	n := int(totalMs / 1000.0 * testSampleRate)
	samples := make([]int, n)
	for _, ms := range offsetsMs {
		center := int(ms / 1000.0 * testSampleRate)
		for i := 0; i < 300 && center+i < n; i++ {
			samples[center+i] = int(20000 * math.Sin(float64(i)*0.8))
		}
	}

	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, testSampleRate, 16, 1, 1)
	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: testSampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		t.Fatalf("encoder.Write() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoder.Close() error = %v", err)
	}
	return buf.buf
}

func testParameters() beatforge.Parameters {
	return beatforge.Parameters{
		Theme:            "blade_runner",
		Template:         beatforge.SynthwaveStraight,
		TimeSignature:    beatforge.FourFour,
		Division:         beatforge.DivisionSixteenth,
		Feel:             beatforge.FeelStraight,
		BarCount:         2,
		QuantizeStrength: 1.0,
		LookaheadMs:      100,
	}
}

func TestRunProducesArrangementMidiAndWav(t *testing.T) {
	pcm := syntheticBeatboxWav(t, []float64{100, 600, 1100, 1600}, 2500)
	result, err := Run(context.Background(), pcm, testParameters())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Arrangement == nil {
		t.Fatal("Run() returned a nil Arrangement")
	}
	if len(result.MidiBytes) == 0 {
		t.Error("Run() returned empty MidiBytes")
	}
	if !bytes.HasPrefix(result.MidiBytes, []byte("MThd")) {
		t.Error("MidiBytes should start with the MThd chunk header")
	}
	if len(result.WavBytes) == 0 {
		t.Error("Run() returned empty WavBytes")
	}
	if len(result.DecisionRecords) == 0 {
		t.Error("Run() returned no DecisionRecords for a signal with clear onsets")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	pcm := syntheticBeatboxWav(t, []float64{100, 600, 1100}, 2000)
	params := testParameters()
	a, err := Run(context.Background(), pcm, params)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := Run(context.Background(), pcm, params)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(a.MidiBytes, b.MidiBytes) {
		t.Error("Run() MidiBytes not deterministic across identical invocations")
	}
	if !bytes.Equal(a.WavBytes, b.WavBytes) {
		t.Error("Run() WavBytes not deterministic across identical invocations")
	}
}

func TestRunRejectsUnknownTheme(t *testing.T) {
	pcm := syntheticBeatboxWav(t, []float64{100}, 500)
	params := testParameters()
	params.Theme = "does_not_exist"
	_, err := Run(context.Background(), pcm, params)
	if err == nil {
		t.Fatal("Run() with an unknown theme should error")
	}
}

func TestRunRejectsInvalidAudio(t *testing.T) {
	_, err := Run(context.Background(), []byte("garbage"), testParameters())
	if err == nil {
		t.Fatal("Run() on non-WAV input should error")
	}
}

func TestRunRespectsBPMOverride(t *testing.T) {
	pcm := syntheticBeatboxWav(t, []float64{100, 600}, 1200)
	params := testParameters()
	params.BPMOverride = 140
	result, err := Run(context.Background(), pcm, params)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Arrangement.BPM != 140 {
		t.Errorf("Arrangement.BPM = %v, want 140 (override)", result.Arrangement.BPM)
	}
}

func TestRunWithTraceWriterEmitsOneCompleteEntryPerStage(t *testing.T) {
	pcm := syntheticBeatboxWav(t, []float64{100, 600, 1100}, 2000)
	tracePath := filepath.Join(t.TempDir(), "run.trace.jsonl")

	_, err := Run(context.Background(), pcm, testParameters(), WithTraceWriter(NewTraceWriter(tracePath)))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	f, err := os.Open(tracePath)
	if err != nil {
		t.Fatalf("trace file was not written: %v", err)
	}
	defer f.Close()

	seenComplete := map[beatforge.Stage]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry TraceEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("malformed trace line %q: %v", scanner.Text(), err)
		}
		if entry.Progress == 1 {
			seenComplete[entry.Stage] = true
		}
	}

	for _, stage := range []beatforge.Stage{
		beatforge.StageDecode, beatforge.StageOnset, beatforge.StageFeatures,
		beatforge.StageTempo, beatforge.StageQuantize, beatforge.StageArrange,
		beatforge.StageMidi, beatforge.StageSynth,
	} {
		if !seenComplete[stage] {
			t.Errorf("trace file has no Complete entry for stage %q", stage)
		}
	}
}

func TestRunWithoutTraceWriterDoesNotPanic(t *testing.T) {
	pcm := syntheticBeatboxWav(t, []float64{100}, 500)
	if _, err := Run(context.Background(), pcm, testParameters()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestCalibrationFingerprintEmptyForNilProfile(t *testing.T) {
	if got := CalibrationFingerprint(nil); got != "" {
		t.Errorf("CalibrationFingerprint(nil) = %q, want empty string", got)
	}
}

func TestCalibrationFingerprintStableForSameProfile(t *testing.T) {
	profile := &beatforge.CalibrationProfile{
		Thresholds: map[beatforge.EventClass]float64{beatforge.BilabialPlosive: 0.8},
		Notes:      "studio mic",
	}
	a := CalibrationFingerprint(profile)
	b := CalibrationFingerprint(profile)
	if a == "" {
		t.Fatal("CalibrationFingerprint() returned empty string for a non-nil profile")
	}
	if a != b {
		t.Errorf("CalibrationFingerprint() not stable: %q vs %q", a, b)
	}
}

func TestCalibrationFingerprintDiffersByNotes(t *testing.T) {
	base := &beatforge.CalibrationProfile{Thresholds: map[beatforge.EventClass]float64{}, Notes: "a"}
	other := &beatforge.CalibrationProfile{Thresholds: map[beatforge.EventClass]float64{}, Notes: "b"}
	if CalibrationFingerprint(base) == CalibrationFingerprint(other) {
		t.Error("CalibrationFingerprint() should differ when Notes differ")
	}
}
