// Package decode implements Component A: turning a WAV byte stream into a
// normalized mono sample buffer, grounded on pkg/acousticdna/audio.Processor's
// go-audio-based decode path.
package decode

import (
	"bytes"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/logger"
)

// SampleBuffer is normalized mono PCM at the decoder's native sample rate.
type SampleBuffer struct {
	Samples    []float64 // [-1, 1]
	SampleRate int
}

// DurationMs reports the buffer's length in milliseconds.
func (b SampleBuffer) DurationMs() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) * 1000.0 / float64(b.SampleRate)
}

// Decode reads a RIFF/WAVE byte stream and returns a normalized mono buffer.
// Stereo input is downmixed by averaging channels. Only 16-bit PCM is
// supported; anything else is reported as a StageDecode error.
func Decode(data []byte) (SampleBuffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return SampleBuffer{}, beatforge.NewError(beatforge.StageDecode, "", "not a valid RIFF/WAVE file", nil)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return SampleBuffer{}, beatforge.NewError(beatforge.StageDecode, "", "failed to read PCM buffer", err)
	}
	if dec.BitDepth != 16 {
		return SampleBuffer{}, beatforge.NewError(beatforge.StageDecode, "", fmt.Sprintf("unsupported bit depth %d, want 16", dec.BitDepth), nil)
	}

	mono := downmix(buf)
	logger.Debugf("decode: %d samples, %d channels, %d Hz -> %d mono samples", len(buf.Data), buf.Format.NumChannels, buf.Format.SampleRate, len(mono))

	return SampleBuffer{Samples: mono, SampleRate: buf.Format.SampleRate}, nil
}

// downmix averages interleaved channels into a single normalized stream.
func downmix(buf *audio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	n := len(buf.Data) / channels
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = (sum / float64(channels)) / 32768.0
	}
	return out
}
