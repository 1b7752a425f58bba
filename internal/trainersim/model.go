// Package trainersim is a self-contained stand-in for the external training
// service. It speaks the same HTTP contract the pipeline drives, backed by a
// logistic-regression model, so the full loop can run locally without the
// real trainer.
package trainersim

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// logistic is a binary logistic-regression model over the fraud class. The
// probability vector it emits follows the pipeline's label-index order:
// [legitimate, fraud].
type logistic struct {
	weights []float64
	bias    float64
}

func newLogistic(dim int) *logistic {
	return &logistic{weights: make([]float64, dim)}
}

func (m *logistic) prob(features []float64) float64 {
	z := m.bias
	for i, w := range m.weights {
		z += w * features[i]
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// trainEpoch runs one pass of minibatch SGD over the training set and
// returns the mean log loss.
func (m *logistic) trainEpoch(features [][]float64, fraud []float64, batchSize int, lr float64, rng *rand.Rand) float64 {
	n := len(features)
	order := rng.Perm(n)

	var totalLoss float64
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}

		gradW := make([]float64, len(m.weights))
		var gradB float64
		for _, idx := range order[start:end] {
			p := m.prob(features[idx])
			y := fraud[idx]

			// Clamp to keep the log finite on confident mistakes.
			clamped := math.Min(math.Max(p, 1e-12), 1-1e-12)
			totalLoss += -(y*math.Log(clamped) + (1-y)*math.Log(1-clamped))

			diff := p - y
			for i, x := range features[idx] {
				gradW[i] += diff * x
			}
			gradB += diff
		}

		scale := lr / float64(end-start)
		for i := range m.weights {
			m.weights[i] -= scale * gradW[i]
		}
		m.bias -= scale * gradB
	}

	return totalLoss / float64(n)
}

type modelState struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Epochs  int       `json:"epochs"`
}

func (m *logistic) export(epochs int) (json.RawMessage, error) {
	state, err := json.Marshal(modelState{Weights: m.weights, Bias: m.bias, Epochs: epochs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model state: %w", err)
	}
	return state, nil
}
