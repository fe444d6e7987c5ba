package decode

import (
	"io"
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// seekableBuffer is an in-memory io.WriteSeeker backed by a byte slice, used
// because wav.NewEncoder requires Seek to patch header sizes after writing.
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		s.buf = append(s.buf, make([]byte, end-int64(len(s.buf)))...)
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = int64(len(s.buf)) + offset
	}
	s.pos = newPos
	return newPos, nil
}

func encodeTestWav(t *testing.T, samples []int, numChannels, sampleRate, bitDepth int) []byte {
	t.Helper()
	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, sampleRate, bitDepth, numChannels, 1)
	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(intBuf); err != nil {
		t.Fatalf("encoder.Write() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoder.Close() error = %v", err)
	}
	return buf.buf
}

func TestDecodeRejectsNonWav(t *testing.T) {
	_, err := Decode([]byte("not a wav file at all"))
	if err == nil {
		t.Fatal("Decode() on garbage input should return an error")
	}
}

func TestDecodeMonoRoundTrip(t *testing.T) {
	samples := make([]int, 1000)
	for i := range samples {
		samples[i] = int(16000 * math.Sin(float64(i)*0.1))
	}
	data := encodeTestWav(t, samples, 1, 44100, 16)

	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", buf.SampleRate)
	}
	if len(buf.Samples) != len(samples) {
		t.Errorf("len(Samples) = %d, want %d", len(buf.Samples), len(samples))
	}
	for _, s := range buf.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %v out of normalized [-1,1] range", s)
		}
	}
}

func TestDecodeDownmixesStereo(t *testing.T) {
	// L/R interleaved: left is +/-16000, right is silent; the mono
	// downmix of each frame should land at exactly half the left value.
	samples := []int{16000, 0, -16000, 0}
	data := encodeTestWav(t, samples, 2, 44100, 16)

	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(buf.Samples) != 2 {
		t.Fatalf("len(Samples) = %d, want 2", len(buf.Samples))
	}
	want := (16000.0 / 2) / 32768.0
	if math.Abs(buf.Samples[0]-want) > 1e-6 {
		t.Errorf("Samples[0] = %v, want %v", buf.Samples[0], want)
	}
}

func TestDurationMsZeroSampleRate(t *testing.T) {
	b := SampleBuffer{Samples: make([]float64, 100), SampleRate: 0}
	if b.DurationMs() != 0 {
		t.Errorf("DurationMs() with zero sample rate = %v, want 0", b.DurationMs())
	}
}

func TestDurationMsComputed(t *testing.T) {
	b := SampleBuffer{Samples: make([]float64, 44100), SampleRate: 44100}
	if math.Abs(b.DurationMs()-1000) > 1e-9 {
		t.Errorf("DurationMs() = %v, want 1000", b.DurationMs())
	}
}
