// Package classifier is the inference-time wrapper around a trained
// grip model artifact. Construction never fails the process: with no
// loadable artifact the classifier reports unavailable and yields
// empty predictions, so the robot control loop keeps running without
// gesture input.
package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Aaryan09-coder/final-major-project-final/internal/landmarks"
	"github.com/Aaryan09-coder/final-major-project-final/internal/model"
)

// ErrModelUnavailable reports the degraded no-artifact state to
// callers that ask for it explicitly (Err()); Predict itself never
// returns it.
var ErrModelUnavailable = errors.New("classifier: no model artifact available")

// MetricsInterface defines the metrics methods the classifier needs.
type MetricsInterface interface {
	PredictionsInc()
	FailuresInc()
	LatencyObserve(float64)
	ConfidenceObserve(float64)
	ModelAgeSet(float64)
}

// Prediction is one classification outcome. Produced fresh per call,
// never persisted.
type Prediction struct {
	IsClosed      bool
	Confidence    float64
	RawValue      float64
	Probabilities []float64
}

// GripClassifier classifies hand poses from landmark observations.
// Read-only after construction; safe for concurrent per-frame calls.
type GripClassifier struct {
	artifact  *model.Artifact
	available bool
	metrics   MetricsInterface
}

// New loads the artifact from modelDir. The directory is explicit
// configuration; callers resolve the default from cfg, not from
// package state.
func New(modelDir string) *GripClassifier {
	return NewWithMetrics(modelDir, nil)
}

// NewWithMetrics is New with metrics tracking attached.
func NewWithMetrics(modelDir string, metrics MetricsInterface) *GripClassifier {
	artifact, err := model.Load(modelDir)
	if err != nil {
		if errors.Is(err, model.ErrArtifactNotFound) {
			log.Warn().Str("model_dir", modelDir).Msg("grip model not found, gesture input disabled; run griptrain to train one")
		} else {
			log.Warn().Err(err).Str("model_dir", modelDir).Msg("grip model unreadable, gesture input disabled")
		}
		return &GripClassifier{metrics: metrics}
	}

	// A model trained on a different feature set would index past the
	// vectors this build extracts.
	if artifact.Meta.FeatureCount != 0 && artifact.Meta.FeatureCount != landmarks.NumFeatures {
		log.Warn().
			Str("model_dir", modelDir).
			Int("artifact_features", artifact.Meta.FeatureCount).
			Int("expected_features", landmarks.NumFeatures).
			Msg("grip model trained on an incompatible feature set, gesture input disabled; retrain with griptrain")
		return &GripClassifier{metrics: metrics}
	}

	if metrics != nil {
		if info, err := os.Stat(filepath.Join(modelDir, model.ArtifactFile)); err == nil {
			metrics.ModelAgeSet(time.Since(info.ModTime()).Seconds())
		}
	}

	log.Info().
		Str("model_dir", modelDir).
		Str("family", artifact.Family).
		Float64("accuracy", artifact.Meta.Accuracy).
		Msg("grip model loaded")
	return &GripClassifier{artifact: artifact, available: true, metrics: metrics}
}

// Available reports whether a model artifact is loaded.
func (g *GripClassifier) Available() bool {
	return g != nil && g.available
}

// Err returns ErrModelUnavailable when no artifact is loaded.
func (g *GripClassifier) Err() error {
	if g.Available() {
		return nil
	}
	return ErrModelUnavailable
}

// Meta returns the loaded artifact's metadata; zero when unavailable.
func (g *GripClassifier) Meta() model.Metadata {
	if !g.Available() {
		return model.Metadata{}
	}
	return g.artifact.Meta
}

// Predict classifies one landmark observation. Input is any accepted
// landmark shape (see landmarks.Coerce). Returns nil when the model
// is unavailable or the input is invalid; missing one frame's
// classification must not halt the control loop.
func (g *GripClassifier) Predict(input any) *Prediction {
	if !g.Available() {
		return nil
	}

	start := time.Now()
	defer func() {
		if g.metrics != nil {
			g.metrics.LatencyObserve(time.Since(start).Seconds())
		}
	}()

	hand, err := landmarks.Coerce(input)
	var features []float64
	if err == nil {
		features, err = landmarks.Features(hand)
	}
	if err != nil {
		if g.metrics != nil {
			g.metrics.FailuresInc()
		}
		log.Debug().Err(err).Msg("grip prediction skipped")
		return nil
	}

	label := g.artifact.Model().Predict(features)
	confidence := 1.0
	var probabilities []float64
	if prober := g.artifact.Prober(); prober != nil {
		probabilities = prober.PredictProba(features)
		confidence = 0
		for _, p := range probabilities {
			if p > confidence {
				confidence = p
			}
		}
	}

	if g.metrics != nil {
		g.metrics.PredictionsInc()
		g.metrics.ConfidenceObserve(confidence)
	}

	return &Prediction{
		IsClosed:      label == model.LabelClosed,
		Confidence:    confidence,
		RawValue:      float64(label),
		Probabilities: probabilities,
	}
}
