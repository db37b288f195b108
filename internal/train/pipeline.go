// Package train orchestrates the grip-classifier training run: feature
// extraction over the loaded dataset, a stratified train/test split,
// fitting both candidate model families, candidate selection, and
// artifact persistence.
package train

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Aaryan09-coder/final-major-project-final/internal/dataset"
	"github.com/Aaryan09-coder/final-major-project-final/internal/landmarks"
	"github.com/Aaryan09-coder/final-major-project-final/internal/model"
)

// ErrEmptyDataset means no valid feature vectors survived extraction.
// Fatal to a training run.
var ErrEmptyDataset = errors.New("train: no valid samples after feature extraction")

// SelectionPolicy decides which accuracy the candidate comparison
// uses.
type SelectionPolicy string

const (
	// SelectHoldout compares candidates on the held-out partition
	// only. Default.
	SelectHoldout SelectionPolicy = "holdout"
	// SelectFullDataset re-scores candidates on the entire dataset,
	// reproducing the legacy selection behavior. Biased toward the
	// candidate that overfits the full set more; never applied
	// silently.
	SelectFullDataset SelectionPolicy = "full"
)

// Config drives one training run.
type Config struct {
	Seed         int64
	TestFraction float64
	Selection    SelectionPolicy
	ModelDir     string
}

// AuditSink receives per-sample training records. Optional; training
// runs fine without one.
type AuditSink interface {
	RecordTrainingSample(runID string, features []float64, label int) error
}

// Pipeline runs training end to end.
type Pipeline struct {
	cfg  Config
	sink AuditSink
}

// New builds a pipeline. sink may be nil.
func New(cfg Config, sink AuditSink) *Pipeline {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.Selection == "" {
		cfg.Selection = SelectHoldout
	}
	return &Pipeline{cfg: cfg, sink: sink}
}

// RunFromSources loads both class sources and trains. Missing sources
// surface the loader's ErrDataNotFound.
func (p *Pipeline) RunFromSources(loader *dataset.Loader, fistSrc, palmSrc string) (*model.Artifact, error) {
	closed, err := loader.Load(fistSrc, model.LabelClosed)
	if err != nil {
		return nil, fmt.Errorf("train: closed-class source: %w", err)
	}
	open, err := loader.Load(palmSrc, model.LabelOpen)
	if err != nil {
		return nil, fmt.Errorf("train: open-class source: %w", err)
	}
	return p.Run(closed, open)
}

// Run trains both candidate families on the loaded classes, selects
// the better one, and persists the artifact. The artifact is written
// only after both candidates are fully evaluated.
func (p *Pipeline) Run(closed, open *dataset.Result) (*model.Artifact, error) {
	runID := uuid.NewString()

	hands := append(append([]landmarks.Hand{}, closed.Hands...), open.Hands...)
	labels := append(append([]int{}, closed.Labels...), open.Labels...)

	var (
		x       [][]float64
		y       []int
		dropped int
	)
	for i, h := range hands {
		f, err := landmarks.Features(h)
		if err != nil {
			dropped++
			continue
		}
		x = append(x, f)
		y = append(y, labels[i])
		if p.sink != nil {
			if err := p.sink.RecordTrainingSample(runID, f, labels[i]); err != nil {
				log.Warn().Err(err).Msg("training sample audit write failed")
			}
		}
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("samples dropped during feature extraction")
	}
	if len(x) == 0 {
		return nil, ErrEmptyDataset
	}

	var fist, palm int
	for _, label := range y {
		if label == model.LabelClosed {
			fist++
		} else {
			palm++
		}
	}

	trainIdx, testIdx := stratifiedSplit(y, p.cfg.TestFraction, p.cfg.Seed)
	xTrain, yTrain := gather(x, y, trainIdx)
	xTest, yTest := gather(x, y, testIdx)
	log.Info().
		Str("run_id", runID).
		Int("train", len(trainIdx)).
		Int("test", len(testIdx)).
		Int("fist", fist).
		Int("palm", palm).
		Msg("training candidates")

	forest, err := model.TrainForest(xTrain, yTrain, model.DefaultForestConfig(p.cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("train: forest: %w", err)
	}
	svm, err := model.TrainSVM(xTrain, yTrain, model.DefaultSVMConfig(p.cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("train: svm: %w", err)
	}

	forestHoldout := accuracy(forest, xTest, yTest)
	svmHoldout := accuracy(svm, xTest, yTest)

	forestScore, svmScore := forestHoldout, svmHoldout
	if p.cfg.Selection == SelectFullDataset {
		forestScore = accuracy(forest, x, y)
		svmScore = accuracy(svm, x, y)
		log.Warn().
			Float64("forest_full", forestScore).
			Float64("svm_full", svmScore).
			Msg("legacy full-dataset selection in effect; scores are biased toward the candidate that overfits the full set")
	}

	// Ties favor the tree ensemble.
	family := model.FamilyForest
	holdout := forestHoldout
	if svmScore > forestScore {
		family = model.FamilySVM
		holdout = svmHoldout
	}
	log.Info().
		Str("selected", family).
		Float64("forest_score", forestScore).
		Float64("svm_score", svmScore).
		Float64("holdout_accuracy", holdout).
		Msg("candidate selected")

	artifact := &model.Artifact{
		Family: family,
		Meta: model.Metadata{
			ModelType:       family,
			FeatureCount:    landmarks.NumFeatures,
			TrainingSamples: len(x),
			FistSamples:     fist,
			PalmSamples:     palm,
			Accuracy:        holdout,
			RunID:           runID,
			TrainedAt:       time.Now().UTC(),
		},
	}
	if family == model.FamilyForest {
		artifact.Forest = forest
	} else {
		artifact.SVM = svm
	}

	if p.cfg.ModelDir != "" {
		if err := model.Save(p.cfg.ModelDir, artifact); err != nil {
			return nil, err
		}
	}
	return artifact, nil
}

func gather(x [][]float64, y, idx []int) ([][]float64, []int) {
	gx := make([][]float64, len(idx))
	gy := make([]int, len(idx))
	for i, s := range idx {
		gx[i] = x[s]
		gy[i] = y[s]
	}
	return gx, gy
}

func accuracy(m model.PointPredictor, x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i := range x {
		if m.Predict(x[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}
