package onset

import (
	"math"
	"testing"
)

const testSampleRate = 44100

func silence(durationMs float64) []float64 {
	return make([]float64, int(durationMs/1000.0*testSampleRate))
}

// impulseTrain builds a mono signal with short loud bursts at each given
// millisecond offset, separated by silence — enough to trigger spectral
// flux novelty without needing a real recording fixture.
func impulseTrain(offsetsMs []float64, totalMs float64) []float64 {
	samples := silence(totalMs)
	for _, ms := range offsetsMs {
		center := int(ms / 1000.0 * testSampleRate)
		for i := 0; i < 200 && center+i < len(samples); i++ {
			samples[center+i] = math.Sin(float64(i) * 0.9)
		}
	}
	return samples
}

func TestDetectSilenceReturnsNoOnsets(t *testing.T) {
	samples := silence(1000)
	_, err := Detect(samples, testSampleRate)
	if err == nil {
		t.Fatal("Detect(silence) should return an error, got nil")
	}
}

func TestDetectTooShortReturnsNoOnsets(t *testing.T) {
	samples := make([]float64, 10)
	_, err := Detect(samples, testSampleRate)
	if err == nil {
		t.Fatal("Detect(too-short) should return an error, got nil")
	}
}

func TestDetectFindsDistinctOnsets(t *testing.T) {
	offsets := []float64{100, 600, 1100, 1600}
	samples := impulseTrain(offsets, 2000)
	onsets, err := Detect(samples, testSampleRate)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(onsets) == 0 {
		t.Fatal("Detect() found no onsets in a signal with clear impulses")
	}
	for i := 1; i < len(onsets); i++ {
		if onsets[i].TimestampMs <= onsets[i-1].TimestampMs {
			t.Errorf("onsets not strictly increasing at %d", i)
		}
	}
}

func TestDetectRefractoryRejectsCloseOnsets(t *testing.T) {
	// Two impulses 10ms apart are well inside the 50ms refractory window;
	// the second should never register as a separate onset.
	samples := impulseTrain([]float64{100, 110}, 500)
	onsets, err := Detect(samples, testSampleRate)
	if err != nil {
		t.Skipf("no onsets detected at all for this synthetic signal: %v", err)
	}
	for i := 1; i < len(onsets); i++ {
		if onsets[i].TimestampMs-onsets[i-1].TimestampMs < RefractoryMs {
			t.Errorf("onsets %d and %d are closer than the refractory window", i-1, i)
		}
	}
}
