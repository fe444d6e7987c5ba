package synth

import "testing"

func TestNoiseSourceZeroSeedIsReplaced(t *testing.T) {
	n := newNoiseSource(0)
	if n.state == 0 {
		t.Error("newNoiseSource(0) should replace a zero seed to avoid a stuck xorshift state")
	}
}

func TestNoiseSourceBounded(t *testing.T) {
	n := newNoiseSource(42)
	for i := 0; i < 1000; i++ {
		v := n.next()
		if v < -1.0 || v > 1.0 {
			t.Fatalf("next() = %v, out of [-1,1] at iteration %d", v, i)
		}
	}
}

func TestLowpassAttenuatesHighFrequency(t *testing.T) {
	lp := newLowpass(200, 44100)
	// Feed an alternating +1/-1 signal (Nyquist-frequency content); the
	// one-pole lowpass should converge to a much smaller amplitude than 1.
	var last float64
	for i := 0; i < 200; i++ {
		in := 1.0
		if i%2 == 1 {
			in = -1.0
		}
		last = lp.process(in)
	}
	if last > 0.5 || last < -0.5 {
		t.Errorf("lowpass output settled at %v, want attenuated well below +-1", last)
	}
}

func TestBandpassProcessRuns(t *testing.T) {
	bp := newBandpass(2000, 1.0, 44100)
	for i := 0; i < 100; i++ {
		_ = bp.process(float64(i%2)*2 - 1)
	}
}
