package metrics

// Wrapper adapts Metrics to the small reporting interfaces declared by the
// consuming packages (augment, scoring, training), so those packages depend
// on an interface instead of Prometheus types.
type Wrapper struct {
	m *Metrics
}

// NewWrapper creates a wrapper around the given metrics.
func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// augment.MetricsInterface

func (w *Wrapper) SyntheticRecordsAdd(n float64) { w.m.SyntheticRecords.Add(n) }

// scoring.MetricsInterface

func (w *Wrapper) RoundsScoredInc()           { w.m.RoundsScored.Inc() }
func (w *Wrapper) PrecisionObserve(v float64) { w.m.PrecisionObs.Observe(v) }
func (w *Wrapper) RecallObserve(v float64)    { w.m.RecallObs.Observe(v) }
func (w *Wrapper) FBetaObserve(v float64)     { w.m.FBetaObs.Observe(v) }
func (w *Wrapper) BestFBetaSet(v float64)     { w.m.BestFBeta.Set(v) }

// training.MetricsInterface

func (w *Wrapper) EpochsInc()                      { w.m.EpochsTotal.Inc() }
func (w *Wrapper) TrainerLatencyObserve(v float64) { w.m.TrainerLatency.Observe(v) }
func (w *Wrapper) TrainerFailuresInc()             { w.m.TrainerFailures.Inc() }
func (w *Wrapper) CheckpointsSavedInc()            { w.m.CheckpointsSaved.Inc() }
func (w *Wrapper) LogAppendFailuresInc()           { w.m.LogAppendFailures.Inc() }

// RecordsLoadedSet records the size of the loaded dataset.
func (w *Wrapper) RecordsLoadedSet(n float64) { w.m.RecordsLoaded.Set(n) }
