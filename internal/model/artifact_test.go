package model

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func trainedArtifact(t *testing.T) *Artifact {
	t.Helper()
	x, y := separableSet(30, 4, 11)
	f, err := TrainForest(x, y, DefaultForestConfig(42))
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}
	return &Artifact{
		Family: FamilyForest,
		Forest: f,
		Meta: Metadata{
			ModelType:       FamilyForest,
			FeatureCount:    4,
			TrainingSamples: 60,
			FistSamples:     30,
			PalmSamples:     30,
			Accuracy:        1.0,
			RunID:           "test-run",
			TrainedAt:       time.Now().UTC(),
		},
	}
}

func TestArtifact_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := trainedArtifact(t)

	if err := Save(dir, a); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Family != FamilyForest {
		t.Errorf("expected family %q, got %q", FamilyForest, loaded.Family)
	}
	if loaded.Meta.Accuracy != 1.0 || loaded.Meta.FistSamples != 30 {
		t.Errorf("metadata did not round-trip: %+v", loaded.Meta)
	}

	// The reloaded model must classify the way the trained one does.
	x, y := separableSet(10, 4, 11)
	for i := range x {
		if got := loaded.Model().Predict(x[i]); got != y[i] {
			t.Errorf("sample %d: predicted %d, want %d", i, got, y[i])
		}
	}
	if loaded.Prober() == nil {
		t.Error("forest artifact should expose probabilities")
	}
}

func TestArtifact_MetadataFileShape(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, trainedArtifact(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		t.Fatalf("metadata file missing: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	for _, key := range []string{"model_type", "feature_count", "training_samples", "fist_samples", "palm_samples", "accuracy"} {
		if _, ok := m[key]; !ok {
			t.Errorf("metadata missing key %q", key)
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestLoad_MetadataOptional(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, trainedArtifact(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, MetadataFile)); err != nil {
		t.Fatalf("remove metadata: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load without metadata should succeed, got %v", err)
	}
	if loaded.Model() == nil {
		t.Error("model should be usable without metadata")
	}
}

func TestSave_UnknownFamily(t *testing.T) {
	if err := Save(t.TempDir(), &Artifact{Family: "perceptron"}); err == nil {
		t.Error("expected error for unknown family")
	}
}
