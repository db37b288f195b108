// Package model implements the two candidate classifier families for
// grip recognition (a bagged decision-tree ensemble and an RBF-kernel
// margin classifier) and the persisted artifact that carries the
// selected model plus its training metadata.
package model

// Family names as recorded in artifact metadata.
const (
	FamilyForest = "random_forest"
	FamilySVM    = "svm"
)

// Class labels. The grip convention is fixed: 0 = closed/fist,
// 1 = open/palm.
const (
	LabelClosed = 0
	LabelOpen   = 1
	NumClasses  = 2
)

// PointPredictor is the required capability of a trained model:
// map one feature vector to a class label.
type PointPredictor interface {
	Predict(features []float64) int
}

// ProbabilityPredictor is the optional calibrated-probability
// capability. Implementations return one probability per class,
// ordered by label.
type ProbabilityPredictor interface {
	PredictProba(features []float64) []float64
}
