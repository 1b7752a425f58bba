// Package scoring evaluates classifier predictions on an imbalanced test
// set with precision, recall, and a parametrized F-beta score, and tracks
// the best score seen across evaluation rounds.
package scoring

import (
	"fmt"
	"time"

	"fraudpipe/internal/common"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines the metrics methods the evaluator reports to.
type MetricsInterface interface {
	RoundsScoredInc()
	PrecisionObserve(float64)
	RecallObserve(float64)
	FBetaObserve(float64)
	BestFBetaSet(float64)
}

// Round is the outcome of scoring one training epoch. Ownership is
// transient: rounds are consumed by the checkpoint policy and log sinks as
// soon as they are produced.
type Round struct {
	Epoch     int       `json:"epoch"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	FBeta     float64   `json:"f_beta"`
	IsBest    bool      `json:"is_best"`
	ScoredAt  time.Time `json:"scored_at"`
}

// Counts tallies true positives, false positives, and false negatives with
// respect to the positive class.
func Counts(actual, predicted []string, positive string) (tp, fp, fn int) {
	for i := range actual {
		switch {
		case predicted[i] == positive && actual[i] == positive:
			tp++
		case predicted[i] == positive:
			fp++
		case actual[i] == positive:
			fn++
		}
	}
	return tp, fp, fn
}

// Precision is TP/(TP+FP), or 0 when no positive predictions exist. The
// zero denominator is recovered locally rather than surfaced: a classifier
// may reasonably predict no positives early in training, and a usable score
// of 0 beats a failed run.
func Precision(tp, fp int) float64 {
	if tp+fp == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fp)
}

// Recall is TP/(TP+FN), or 0 when no actual positives exist.
func Recall(tp, fn int) float64 {
	if tp+fn == 0 {
		return 0
	}
	return float64(tp) / float64(tp+fn)
}

// FBeta is the weighted harmonic mean of precision and recall. beta > 1
// favors recall, beta < 1 favors precision. A zero denominator yields 0;
// the check is an explicit guard, not exception-style control flow.
func FBeta(precision, recall, beta float64) float64 {
	b2 := beta * beta
	denom := b2*precision + recall
	if denom == 0 {
		return 0
	}
	return (1 + b2) * precision * recall / denom
}

// Evaluator scores prediction rounds against the positive (fraud) class.
type Evaluator struct {
	positive string
	beta     float64
	metrics  MetricsInterface
}

// NewEvaluator creates an evaluator for the given positive class and beta.
// Beta must be positive.
func NewEvaluator(positive string, beta float64) (*Evaluator, error) {
	return NewEvaluatorWithMetrics(positive, beta, nil)
}

// NewEvaluatorWithMetrics is NewEvaluator with optional metrics reporting.
func NewEvaluatorWithMetrics(positive string, beta float64, metrics MetricsInterface) (*Evaluator, error) {
	if beta <= 0 {
		return nil, fmt.Errorf("%w: beta must be positive, got %f",
			common.ErrInvalidConfiguration, beta)
	}
	if positive == "" {
		return nil, fmt.Errorf("%w: positive class name is empty", common.ErrInvalidConfiguration)
	}
	return &Evaluator{positive: positive, beta: beta, metrics: metrics}, nil
}

// Score computes precision, recall, and F-beta for one epoch's predictions.
// The actual and predicted slices must be parallel and non-empty; a
// violation is fatal for the run since a missing score breaks best-model
// selection.
func (e *Evaluator) Score(epoch int, actual, predicted []string) (Round, error) {
	if len(actual) == 0 {
		return Round{}, fmt.Errorf("scoring epoch %d: no labels to score", epoch)
	}
	if len(actual) != len(predicted) {
		return Round{}, fmt.Errorf("scoring epoch %d: %d actual vs %d predicted labels",
			epoch, len(actual), len(predicted))
	}

	tp, fp, fn := Counts(actual, predicted, e.positive)
	precision := Precision(tp, fp)
	recall := Recall(tp, fn)

	round := Round{
		Epoch:     epoch,
		Precision: precision,
		Recall:    recall,
		FBeta:     FBeta(precision, recall, e.beta),
		ScoredAt:  time.Now(),
	}

	if e.metrics != nil {
		e.metrics.RoundsScoredInc()
		e.metrics.PrecisionObserve(round.Precision)
		e.metrics.RecallObserve(round.Recall)
		e.metrics.FBetaObserve(round.FBeta)
	}

	log.Debug().
		Int("epoch", epoch).
		Int("tp", tp).
		Int("fp", fp).
		Int("fn", fn).
		Float64("precision", round.Precision).
		Float64("recall", round.Recall).
		Float64("f_beta", round.FBeta).
		Msg("Round scored")

	return round, nil
}

// Beta returns the configured beta.
func (e *Evaluator) Beta() float64 { return e.beta }
