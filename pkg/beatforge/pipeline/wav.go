package pipeline

import (
	"io"

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

// encodeWav wraps normalized float samples into a 16-bit mono PCM RIFF/WAVE
// container (§4.I output), using the same go-audio/wav library the decoder
// reads with.
func encodeWav(samples []float64, sampleRate int) []byte {
	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, sampleRate, 16, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		ints[i] = int(s * 32767.0)
	}

	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	_ = enc.Write(intBuf)
	_ = enc.Close()
	return buf.buf
}
