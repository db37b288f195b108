package metrics

// Wrapper adapts Metrics to the classifier's MetricsInterface without
// the classifier importing Prometheus types directly.
type Wrapper struct {
	m *Metrics
}

// NewWrapper wraps a Metrics set.
func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) PredictionsInc()             { w.m.Predictions.Inc() }
func (w *Wrapper) FailuresInc()                { w.m.PredictionErrors.Inc() }
func (w *Wrapper) LatencyObserve(v float64)    { w.m.PredictionLag.Observe(v) }
func (w *Wrapper) ConfidenceObserve(v float64) { w.m.Confidence.Observe(v) }
func (w *Wrapper) ModelAgeSet(v float64)       { w.m.ModelAge.Set(v) }
