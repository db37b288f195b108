package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SVMConfig fixes the kernel-machine hyperparameters. Gamma == 0
// selects the data-scaled value 1/(d * Var(X)).
type SVMConfig struct {
	C         float64
	Gamma     float64
	Tol       float64
	MaxPasses int
	Seed      int64
}

// DefaultSVMConfig returns the fixed production settings: RBF kernel,
// C=1, scaled gamma, calibrated probabilities.
func DefaultSVMConfig(seed int64) SVMConfig {
	return SVMConfig{C: 1.0, Gamma: 0, Tol: 1e-3, MaxPasses: 10, Seed: seed}
}

// SVM is an RBF-kernel margin classifier. Training runs sequential
// minimal optimization over the full kernel matrix; probability
// output is a Platt sigmoid fitted on the training decision values.
type SVM struct {
	SupportVectors [][]float64
	Coef           []float64 // alpha_i * y_i per support vector
	B              float64
	Gamma          float64
	PlattA         float64
	PlattB         float64
	Calibrated     bool
}

// TrainSVM fits the classifier. Labels are the grip convention
// (0 closed, 1 open); internally open maps to the +1 margin side.
func TrainSVM(x [][]float64, y []int, cfg SVMConfig) (*SVM, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("svm: bad training shape: %d samples, %d labels", n, len(y))
	}
	// SMO updates alpha pairs; a single sample has no pair partner.
	if n < 2 {
		return nil, fmt.Errorf("svm: need at least 2 training samples, got %d", n)
	}
	if cfg.C <= 0 || cfg.Tol <= 0 || cfg.MaxPasses <= 0 {
		return nil, fmt.Errorf("svm: invalid config %+v", cfg)
	}

	d := len(x[0])
	gamma := cfg.Gamma
	if gamma == 0 {
		flat := make([]float64, 0, n*d)
		for _, row := range x {
			flat = append(flat, row...)
		}
		v := stat.PopVariance(flat, nil)
		if v <= 0 {
			v = 1
		}
		gamma = 1 / (float64(d) * v)
	}

	// Signed labels for the margin problem.
	sy := make([]float64, n)
	for i, label := range y {
		if label == LabelOpen {
			sy[i] = 1
		} else {
			sy[i] = -1
		}
	}

	// Full kernel matrix; the dataset fits in memory by contract.
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			k.SetSym(i, j, rbf(x[i], x[j], gamma))
		}
	}

	alpha := make([]float64, n)
	b := 0.0
	rng := rand.New(rand.NewSource(cfg.Seed))

	decision := func(i int) float64 {
		s := b
		for j := 0; j < n; j++ {
			if alpha[j] != 0 {
				s += alpha[j] * sy[j] * k.At(i, j)
			}
		}
		return s
	}

	passes := 0
	for passes < cfg.MaxPasses {
		changed := 0
		for i := 0; i < n; i++ {
			ei := decision(i) - sy[i]
			if !((sy[i]*ei < -cfg.Tol && alpha[i] < cfg.C) || (sy[i]*ei > cfg.Tol && alpha[i] > 0)) {
				continue
			}

			j := rng.Intn(n - 1)
			if j >= i {
				j++
			}
			ej := decision(j) - sy[j]

			aiOld, ajOld := alpha[i], alpha[j]
			var lo, hi float64
			if sy[i] != sy[j] {
				lo = math.Max(0, ajOld-aiOld)
				hi = math.Min(cfg.C, cfg.C+ajOld-aiOld)
			} else {
				lo = math.Max(0, aiOld+ajOld-cfg.C)
				hi = math.Min(cfg.C, aiOld+ajOld)
			}
			if lo == hi {
				continue
			}

			eta := 2*k.At(i, j) - k.At(i, i) - k.At(j, j)
			if eta >= 0 {
				continue
			}

			aj := ajOld - sy[j]*(ei-ej)/eta
			aj = math.Min(hi, math.Max(lo, aj))
			if math.Abs(aj-ajOld) < 1e-5 {
				continue
			}
			ai := aiOld + sy[i]*sy[j]*(ajOld-aj)

			b1 := b - ei - sy[i]*(ai-aiOld)*k.At(i, i) - sy[j]*(aj-ajOld)*k.At(i, j)
			b2 := b - ej - sy[i]*(ai-aiOld)*k.At(i, j) - sy[j]*(aj-ajOld)*k.At(j, j)
			switch {
			case ai > 0 && ai < cfg.C:
				b = b1
			case aj > 0 && aj < cfg.C:
				b = b2
			default:
				b = (b1 + b2) / 2
			}

			alpha[i], alpha[j] = ai, aj
			changed++
		}
		if changed == 0 {
			passes++
		} else {
			passes = 0
		}
	}

	s := &SVM{B: b, Gamma: gamma}
	for i := 0; i < n; i++ {
		if alpha[i] > 1e-8 {
			sv := make([]float64, d)
			copy(sv, x[i])
			s.SupportVectors = append(s.SupportVectors, sv)
			s.Coef = append(s.Coef, alpha[i]*sy[i])
		}
	}

	// Platt calibration on the training decision values.
	dec := make([]float64, n)
	for i := range x {
		dec[i] = s.decision(x[i])
	}
	s.PlattA, s.PlattB = plattFit(dec, sy)
	s.Calibrated = true

	return s, nil
}

func rbf(a, b []float64, gamma float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-gamma * d * d)
}

func (s *SVM) decision(features []float64) float64 {
	v := s.B
	for i, sv := range s.SupportVectors {
		v += s.Coef[i] * rbf(sv, features, s.Gamma)
	}
	return v
}

// Predict returns the class label for one feature vector.
func (s *SVM) Predict(features []float64) int {
	if s.decision(features) >= 0 {
		return LabelOpen
	}
	return LabelClosed
}

// PredictProba maps the margin through the fitted Platt sigmoid.
func (s *SVM) PredictProba(features []float64) []float64 {
	f := s.decision(features)
	pOpen := 1 / (1 + math.Exp(s.PlattA*f+s.PlattB))
	return []float64{1 - pOpen, pOpen}
}

// plattFit runs the Platt/Lin Newton iteration for the sigmoid
// parameters A, B of P(open | f) = 1/(1+exp(A*f+B)).
func plattFit(dec, sy []float64) (float64, float64) {
	var prior0, prior1 float64
	for _, v := range sy {
		if v > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	target := make([]float64, len(sy))
	for i, v := range sy {
		if v > 0 {
			target[i] = hiTarget
		} else {
			target[i] = loTarget
		}
	}

	a := 0.0
	b := math.Log((prior0 + 1) / (prior1 + 1))
	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)

	fval := plattObjective(dec, target, a, b)
	for iter := 0; iter < maxIter; iter++ {
		var h11, h22, h21, g1, g2 float64
		h11, h22 = sigma, sigma
		for i, f := range dec {
			fApB := f*a + b
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1 + math.Exp(-fApB))
				q = 1 / (1 + math.Exp(-fApB))
			} else {
				p = 1 / (1 + math.Exp(fApB))
				q = math.Exp(fApB) / (1 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += f * f * d2
			h22 += d2
			h21 += f * d2
			d1 := target[i] - p
			g1 += f * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA := a + step*dA
			newB := b + step*dB
			newF := plattObjective(dec, target, newA, newB)
			if newF < fval+1e-4*step*gd {
				a, b, fval = newA, newB, newF
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}
	return a, b
}

func plattObjective(dec, target []float64, a, b float64) float64 {
	var v float64
	for i, f := range dec {
		fApB := f*a + b
		if fApB >= 0 {
			v += target[i]*fApB + math.Log1p(math.Exp(-fApB))
		} else {
			v += (target[i]-1)*fApB + math.Log1p(math.Exp(fApB))
		}
	}
	return v
}
