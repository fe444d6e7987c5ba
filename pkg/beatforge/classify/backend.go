package classify

import (
	"fmt"

	"github.com/himanishpuri/beatforge/pkg/beatforge"
)

// Backend names a classification strategy. Only Heuristic is implemented;
// Onnx is reserved for a future learned-model backend that this module does
// not carry (classifier training/learning is a non-goal).
type Backend int

const (
	BackendHeuristic Backend = iota
	BackendOnnx
)

func (b Backend) String() string {
	if b == BackendOnnx {
		return "onnx"
	}
	return "heuristic"
}

// ErrBackendNotImplemented is returned by Classifier.Classify when asked to
// run a backend this build does not carry.
type ErrBackendNotImplemented struct {
	Backend Backend
}

func (e *ErrBackendNotImplemented) Error() string {
	return fmt.Sprintf("classifier backend %q not implemented", e.Backend)
}

// Classifier wraps the selected classification strategy behind one call
// site, so a future learned-model backend can be added without touching
// the arranger or pipeline orchestration.
type Classifier struct {
	backend Backend
	profile *beatforge.CalibrationProfile
}

// New constructs a Classifier bound to the given backend and calibration
// profile (nil means no calibration adjustment).
func New(backend Backend, profile *beatforge.CalibrationProfile) *Classifier {
	return &Classifier{backend: backend, profile: profile}
}

// NewHeuristic is the common case: the fixed rule-based classifier.
func NewHeuristic(profile *beatforge.CalibrationProfile) *Classifier {
	return New(BackendHeuristic, profile)
}

// Backend reports which strategy this classifier runs.
func (c *Classifier) Backend() Backend { return c.backend }

// IsOnnxAvailable always reports false; no learned-model backend ships in
// this build.
func (c *Classifier) IsOnnxAvailable() bool { return false }

// Classify routes to the active backend.
func (c *Classifier) Classify(f beatforge.FeatureVector) (beatforge.EventClass, float64, error) {
	switch c.backend {
	case BackendHeuristic:
		class, confidence := Classify(f, c.profile)
		return class, confidence, nil
	default:
		return beatforge.HumVoiced, 0, &ErrBackendNotImplemented{Backend: c.backend}
	}
}
