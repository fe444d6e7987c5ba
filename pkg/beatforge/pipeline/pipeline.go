// Package pipeline orchestrates Components A-I into one invocation,
// mirroring the shape of pkg/acousticdna/service.go's single entry-point
// Service but over the beatbox-to-arrangement domain.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
	"github.com/himanishpuri/beatforge/pkg/beatforge/arranger"
	"github.com/himanishpuri/beatforge/pkg/beatforge/classify"
	"github.com/himanishpuri/beatforge/pkg/beatforge/decode"
	"github.com/himanishpuri/beatforge/pkg/beatforge/features"
	"github.com/himanishpuri/beatforge/pkg/beatforge/groove"
	"github.com/himanishpuri/beatforge/pkg/beatforge/midi"
	"github.com/himanishpuri/beatforge/pkg/beatforge/onset"
	"github.com/himanishpuri/beatforge/pkg/beatforge/synth"
	"github.com/himanishpuri/beatforge/pkg/beatforge/tempo"
	"github.com/himanishpuri/beatforge/pkg/beatforge/themes"
	"github.com/himanishpuri/beatforge/pkg/logger"
)

// ErrCancelled describes cancellation at a stage boundary (§5
// "Cancellation"). Run does not return this value itself: a cancelled Run
// returns a *beatforge.Error for the stage it stopped at, with Message
// "Cancelled" and the context's error as its cause.
var ErrCancelled = &beatforge.Error{Stage: "pipeline", Message: "Cancelled"}

// Result is the complete output of one pipeline invocation.
type Result struct {
	Arrangement            *beatforge.Arrangement
	MidiBytes              []byte
	WavBytes               []byte
	DecisionRecords        []beatforge.DecisionRecord
	TempoFallback          bool
	EventsDropped          int
	CalibrationFingerprint string
}

// runConfig holds Run's optional behavior, set via Option values.
type runConfig struct {
	tracer *TraceWriter
}

// Option configures a single Run invocation without disturbing its pure,
// parameters-only signature for callers that don't need it.
type Option func(*runConfig)

// WithTraceWriter drives a TraceBuilder through every stage boundary,
// appending JSONL progress records to w. Consumed by the CLI's
// `render --explain` flag (§13 "Explainability trace" supplement).
func WithTraceWriter(w *TraceWriter) Option {
	return func(c *runConfig) { c.tracer = w }
}

// Run executes the full pipeline over decoded PCM bytes and parameters
// (§2 "Data flow"). It is a pure function of (pcm, parameters), as required
// by §3's Parameters lifecycle note, except for the explicit cancellation
// token consulted at stage boundaries after B, C, E, F, G, H, I (§5), and
// the optional trace side-channel enabled via WithTraceWriter.
func Run(ctx context.Context, pcmBytes []byte, params beatforge.Parameters, opts ...Option) (*Result, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	inputHash := hashBytes(pcmBytes)

	traceStart(cfg.tracer, beatforge.StageDecode, "decoding PCM")
	buf, err := decode.Decode(pcmBytes)
	if err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageDecode, "decoded", map[string]any{"sampleRate": buf.SampleRate, "durationMs": buf.DurationMs()})

	traceStart(cfg.tracer, beatforge.StageOnset, "detecting onsets")
	onsets, err := onset.Detect(buf.Samples, buf.SampleRate)
	if err != nil {
		return nil, err
	}
	if err := checkCancel(ctx, beatforge.StageOnset, inputHash); err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageOnset, "onsets detected", map[string]any{"count": len(onsets)})

	traceStart(cfg.tracer, beatforge.StageFeatures, "extracting features and classifying")
	events := make([]beatforge.Event, len(onsets))
	classifier := classify.NewHeuristic(params.CalibrationProfile)
	for i, on := range onsets {
		fv := features.Extract(buf.Samples, buf.SampleRate, on.TimestampMs, on.PeakAmplitude)
		class, confidence, _ := classifier.Classify(fv)
		events[i] = beatforge.Event{
			ID:          beatforge.NewEventID(i, on.TimestampMs, class),
			TimestampMs: on.TimestampMs,
			DurationMs:  on.DurationMs,
			Class:       class,
			Confidence:  confidence,
			Features:    fv,
		}
		traceProgress(cfg.tracer, beatforge.StageFeatures, float64(i+1)/float64(len(onsets)), class.String())
	}
	if err := checkCancel(ctx, beatforge.StageFeatures, inputHash); err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageFeatures, "classified", map[string]any{"count": len(events)})

	traceStart(cfg.tracer, beatforge.StageTempo, "estimating tempo")
	onsetTimestamps := make([]float64, len(events))
	for i, e := range events {
		onsetTimestamps[i] = e.TimestampMs
	}
	tempoResult := tempo.Estimate(onsetTimestamps, buf.DurationMs())
	bpm := tempoResult.BPM
	if params.BPMOverride > 0 {
		bpm = params.BPMOverride
	}
	if err := checkCancel(ctx, beatforge.StageTempo, inputHash); err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageTempo, "tempo estimated", map[string]any{"bpm": bpm, "fallback": tempoResult.FallbackApplied})

	plan := beatforge.GridPlan{
		BPM:           bpm,
		TimeSignature: params.TimeSignature,
		Division:      params.Division,
		Feel:          params.Feel,
		SwingAmount:   params.SwingAmount,
		BarCount:      params.BarCount,
		BeatPhaseMs:   firstOrZero(tempoResult.BeatPositionsMs),
	}

	traceStart(cfg.tracer, beatforge.StageQuantize, "quantizing to grid")
	quantized := groove.Quantize(events, plan, params.QuantizeStrength, params.LookaheadMs)
	if err := checkCancel(ctx, beatforge.StageQuantize, inputHash); err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageQuantize, "quantized", map[string]any{"dropped": quantized.DroppedCount})

	theme, err := themes.Lookup(params.Theme)
	if err != nil {
		return nil, beatforge.NewError(beatforge.StageArrange, inputHash, "ThemeUnknown", err)
	}

	traceStart(cfg.tracer, beatforge.StageArrange, "arranging lanes")
	arrangement, err := arranger.Arrange(quantized.Events, plan, theme, params.Template, params.BEmphasis)
	if err != nil {
		return nil, beatforge.NewError(beatforge.StageArrange, inputHash, "TemplateUnknown", err)
	}
	if err := checkCancel(ctx, beatforge.StageArrange, inputHash); err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageArrange, "arranged", map[string]any{"lanes": len(arrangement.AllLanes())})

	traceStart(cfg.tracer, beatforge.StageMidi, "encoding MIDI")
	midiBytes := midi.Encode(arrangement)
	if err := checkCancel(ctx, beatforge.StageMidi, inputHash); err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageMidi, "encoded", map[string]any{"bytes": len(midiBytes)})

	traceStart(cfg.tracer, beatforge.StageSynth, "rendering audio")
	samples := synth.Render(arrangement)
	wavBytes := encodeWav(samples, synth.SampleRate)
	if err := checkCancel(ctx, beatforge.StageSynth, inputHash); err != nil {
		return nil, err
	}
	traceComplete(cfg.tracer, beatforge.StageSynth, "rendered", map[string]any{"bytes": len(wavBytes)})

	records := buildDecisionRecords(events, quantized.Events, arrangement)

	logger.Infof("pipeline: %d events, bpm=%.1f (fallback=%v), dropped=%d, bars=%d",
		len(events), plan.BPM, tempoResult.FallbackApplied, quantized.DroppedCount, plan.BarCount)

	return &Result{
		Arrangement:            arrangement,
		MidiBytes:              midiBytes,
		WavBytes:               wavBytes,
		DecisionRecords:        records,
		TempoFallback:          tempoResult.FallbackApplied,
		EventsDropped:          quantized.DroppedCount,
		CalibrationFingerprint: CalibrationFingerprint(params.CalibrationProfile),
	}, nil
}

// traceStart/traceProgress/traceComplete are silent no-ops when no tracer is
// configured; a failed trace write is logged, not fatal, since the trace is
// a side-channel and must never affect pipeline output (§13).
func traceStart(w *TraceWriter, stage beatforge.Stage, message string) {
	if w == nil {
		return
	}
	if err := w.Stage(stage).Start(message); err != nil {
		logger.Warnf("trace: write failed at %s: %v", stage, err)
	}
}

func traceProgress(w *TraceWriter, stage beatforge.Stage, fraction float64, message string) {
	if w == nil {
		return
	}
	if err := w.Stage(stage).Progress(fraction, message); err != nil {
		logger.Warnf("trace: write failed at %s: %v", stage, err)
	}
}

func traceComplete(w *TraceWriter, stage beatforge.Stage, message string, data any) {
	if w == nil {
		return
	}
	if err := w.Stage(stage).Complete(message, data); err != nil {
		logger.Warnf("trace: write failed at %s: %v", stage, err)
	}
}

func checkCancel(ctx context.Context, stage beatforge.Stage, inputHash string) error {
	select {
	case <-ctx.Done():
		return beatforge.NewError(stage, inputHash, "Cancelled", ctx.Err())
	default:
		return nil
	}
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%x", sum)
}

func firstOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[0]
}

// buildDecisionRecords assembles Output C (§6), one entry per input event,
// grounded on the Rust original's events/explainability.rs shape.
func buildDecisionRecords(events []beatforge.Event, quantized []beatforge.QuantizedEvent, arr *beatforge.Arrangement) []beatforge.DecisionRecord {
	byID := make(map[string]beatforge.QuantizedEvent, len(quantized))
	for _, q := range quantized {
		byID[q.EventID] = q
	}
	lanesByEventID := make(map[string][]string)
	for _, lane := range arr.AllLanes() {
		for _, n := range lane.Notes {
			if n.SourceEventID != "" {
				lanesByEventID[n.SourceEventID] = append(lanesByEventID[n.SourceEventID], lane.Name)
			}
		}
	}

	records := make([]beatforge.DecisionRecord, 0, len(events))
	for _, e := range events {
		q, ok := byID[e.ID]
		record := beatforge.DecisionRecord{
			EventID:             e.ID,
			OriginalTimestampMs: e.TimestampMs,
			Class:               e.Class,
			Confidence:          e.Confidence,
			Features:            e.Features,
			MappedTo:            lanesByEventID[e.ID],
		}
		if ok {
			record.QuantizedTimestampMs = q.QuantizedTimestampMs
			record.SnapDeltaMs = q.SnapDeltaMs
		}
		records = append(records, record)
	}
	return records
}
