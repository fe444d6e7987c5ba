package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

// CalibrationFingerprint derives a short content hash of a calibration
// profile's effective thresholds and notes, so a trace/DecisionRecord envelope can
// record which calibration produced a run without embedding the whole
// profile. nil profile fingerprints to the empty string (no calibration).
func CalibrationFingerprint(profile *beatforge.CalibrationProfile) string {
	if profile == nil {
		return ""
	}
	buf, err := json.Marshal(profile.Thresholds)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(append(buf, []byte(profile.Notes)...))
	return fmt.Sprintf("%x", sum[:8])
}

// TraceEntry is one append-only progress record, ported from the Rust
// original's pipeline/trace.rs TraceEntry (§13 "Explainability trace"
// supplement, driven by pipeline.Run via WithTraceWriter and exposed
// through the CLI's `render --explain` flag).
type TraceEntry struct {
	Stage    beatforge.Stage `json:"stage"`
	Progress float64         `json:"progress"`
	Message  string          `json:"message"`
	Data     any             `json:"data,omitempty"`
}

// TraceWriter appends TraceEntry records as JSONL to a file, matching the
// Rust original's append-only write discipline.
type TraceWriter struct {
	path string
}

func NewTraceWriter(path string) *TraceWriter {
	return &TraceWriter{path: path}
}

func (w *TraceWriter) Write(entry TraceEntry) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = f.Write(line)
	return err
}

func (w *TraceWriter) WriteBatch(entries []TraceEntry) error {
	for _, e := range entries {
		if err := w.Write(e); err != nil {
			return err
		}
	}
	return nil
}

// TraceBuilder is a fluent helper for emitting a stage's start/progress/
// complete trio, ported from Rust trace.rs's TraceBuilder.
type TraceBuilder struct {
	writer *TraceWriter
	stage  beatforge.Stage
}

func (w *TraceWriter) Stage(stage beatforge.Stage) *TraceBuilder {
	return &TraceBuilder{writer: w, stage: stage}
}

func (b *TraceBuilder) Start(message string) error {
	return b.writer.Write(TraceEntry{Stage: b.stage, Progress: 0, Message: message})
}

func (b *TraceBuilder) Progress(fraction float64, message string) error {
	return b.writer.Write(TraceEntry{Stage: b.stage, Progress: fraction, Message: message})
}

func (b *TraceBuilder) Complete(message string, data any) error {
	return b.writer.Write(TraceEntry{Stage: b.stage, Progress: 1, Message: message, Data: data})
}
