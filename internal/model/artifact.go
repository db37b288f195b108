package model

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Artifact file names inside the model directory.
const (
	ArtifactFile = "grip_classifier.gob"
	MetadataFile = "model_metadata.json"
)

// ErrArtifactNotFound means no trained artifact exists at the given
// location. Inference treats this as a degraded state, not a failure.
var ErrArtifactNotFound = errors.New("model: artifact not found")

// Metadata describes a trained artifact. Accuracy is the held-out
// accuracy of the selected family.
type Metadata struct {
	ModelType       string    `json:"model_type"`
	FeatureCount    int       `json:"feature_count"`
	TrainingSamples int       `json:"training_samples"`
	FistSamples     int       `json:"fist_samples"`
	PalmSamples     int       `json:"palm_samples"`
	Accuracy        float64   `json:"accuracy"`
	RunID           string    `json:"run_id,omitempty"`
	TrainedAt       time.Time `json:"trained_at,omitempty"`
}

// Artifact is the persisted classifier: exactly one of the family
// fields is set, matching Meta.ModelType. Immutable once trained.
type Artifact struct {
	Family string
	Forest *Forest
	SVM    *SVM
	Meta   Metadata
}

// Model returns the trained classifier behind its required
// capability.
func (a *Artifact) Model() PointPredictor {
	switch a.Family {
	case FamilyForest:
		return a.Forest
	case FamilySVM:
		return a.SVM
	default:
		return nil
	}
}

// Prober returns the optional probability capability, or nil when the
// stored family does not expose calibrated probabilities.
func (a *Artifact) Prober() ProbabilityPredictor {
	switch a.Family {
	case FamilyForest:
		return a.Forest
	case FamilySVM:
		if a.SVM != nil && a.SVM.Calibrated {
			return a.SVM
		}
	}
	return nil
}

// envelope is the gob wire form. Metadata travels in the sibling JSON
// file; the gob carries only the model object graph.
type envelope struct {
	Family string
	Forest *Forest
	SVM    *SVM
}

// Save writes the classifier and its metadata to dir. The two files
// are written together; callers persist only after evaluation is
// complete, so a run never leaves a partial artifact behind.
func Save(dir string, a *Artifact) error {
	if a.Model() == nil {
		return fmt.Errorf("model: cannot save artifact with unknown family %q", a.Family)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("model: create artifact dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, ArtifactFile))
	if err != nil {
		return fmt.Errorf("model: create artifact file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(envelope{Family: a.Family, Forest: a.Forest, SVM: a.SVM}); err != nil {
		return fmt.Errorf("model: encode artifact: %w", err)
	}

	meta, err := json.MarshalIndent(a.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("model: marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("model: write metadata: %w", err)
	}

	log.Info().
		Str("dir", dir).
		Str("family", a.Family).
		Float64("accuracy", a.Meta.Accuracy).
		Msg("model artifact saved")
	return nil
}

// Load reads an artifact from dir. A missing artifact file yields
// ErrArtifactNotFound; a missing metadata file is tolerated since it
// only serves introspection.
func Load(dir string) (*Artifact, error) {
	path := filepath.Join(dir, ArtifactFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("model: open artifact: %w", err)
	}
	defer f.Close()

	var env envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return nil, fmt.Errorf("model: decode artifact: %w", err)
	}

	a := &Artifact{Family: env.Family, Forest: env.Forest, SVM: env.SVM}
	if a.Model() == nil {
		return nil, fmt.Errorf("model: artifact has unknown family %q", env.Family)
	}

	metaPath := filepath.Join(dir, MetadataFile)
	meta, err := os.ReadFile(metaPath)
	if err != nil {
		log.Warn().Err(err).Str("path", metaPath).Msg("model metadata missing, continuing without it")
		return a, nil
	}
	if err := json.Unmarshal(meta, &a.Meta); err != nil {
		log.Warn().Err(err).Str("path", metaPath).Msg("model metadata unreadable, continuing without it")
		a.Meta = Metadata{}
	}
	return a, nil
}
