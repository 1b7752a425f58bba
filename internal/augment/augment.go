// Package augment rebalances an imbalanced training set by synthesizing
// minority-class records. Noise is scaled per feature from a variance
// profile estimated on the minority records, so the perturbation respects
// the natural spread of each feature while the overall energy is normalized.
package augment

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"fraudpipe/internal/common"
	"fraudpipe/internal/dataset"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines the metrics methods the augmenter reports to.
type MetricsInterface interface {
	SyntheticRecordsAdd(float64)
}

// Profile holds one non-negative noise bound per feature.
type Profile []float64

// VarianceProfile computes the per-feature sample variance across the given
// minority records and rescales the result so its Euclidean norm equals
// targetMagnitude. An all-zero variance vector (constant features) is
// returned unscaled.
func VarianceProfile(minority dataset.Dataset, targetMagnitude float64) (Profile, error) {
	if len(minority) == 0 {
		return nil, fmt.Errorf("%w: variance profile needs at least one minority record",
			common.ErrInvalidConfiguration)
	}
	if targetMagnitude < 0 {
		return nil, fmt.Errorf("%w: target magnitude must be non-negative, got %f",
			common.ErrInvalidConfiguration, targetMagnitude)
	}

	dim := minority.FeatureDim()
	n := float64(len(minority))

	means := make([]float64, dim)
	for _, r := range minority {
		for i, v := range r.Features {
			means[i] += v
		}
	}
	for i := range means {
		means[i] /= n
	}

	profile := make(Profile, dim)
	if len(minority) > 1 {
		for _, r := range minority {
			for i, v := range r.Features {
				d := v - means[i]
				profile[i] += d * d
			}
		}
		for i := range profile {
			profile[i] /= n - 1
		}
	}

	var norm float64
	for _, v := range profile {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return profile, nil
	}

	scale := targetMagnitude / norm
	for i := range profile {
		profile[i] *= scale
	}
	return profile, nil
}

// Balance oversamples the minority class of a train set toward parity with
// the majority class. Each minority record receives
// floor((M-m)/m) noisy copies, with per-feature noise drawn uniformly from
// [-v_i, +v_i] out of the variance profile, fresh noise per copy. The
// returned dataset is the original train set plus all synthetics, shuffled.
//
// Exact 50/50 balance is not achieved: the integer floor leaves the
// remainder (M-m) mod m unbalanced. That approximation is part of the
// contract and must not be silently corrected.
//
// A nil rng falls back to a time-seeded source.
func Balance(train dataset.Dataset, targetMagnitude float64, rng *rand.Rand) (dataset.Dataset, error) {
	return BalanceWithMetrics(train, targetMagnitude, rng, nil)
}

// BalanceWithMetrics is Balance with optional metrics reporting.
func BalanceWithMetrics(train dataset.Dataset, targetMagnitude float64, rng *rand.Rand, metrics MetricsInterface) (dataset.Dataset, error) {
	minority, majority := train.MinorityMajority()
	if len(minority) == 0 {
		return nil, fmt.Errorf("%w: train set has no minority records to augment",
			common.ErrInvalidConfiguration)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	perSample := (len(majority) - len(minority)) / len(minority)
	if perSample <= 0 {
		log.Debug().
			Int("minority", len(minority)).
			Int("majority", len(majority)).
			Msg("Train set already balanced, skipping augmentation")
		return train.Shuffled(rng), nil
	}

	profile, err := VarianceProfile(minority, targetMagnitude)
	if err != nil {
		return nil, err
	}

	minorityLabel := minority[0].Label

	out := make(dataset.Dataset, 0, len(train)+len(minority)*perSample)
	out = append(out, train...)
	for _, r := range minority {
		for c := 0; c < perSample; c++ {
			features := make([]float64, len(r.Features))
			for i, v := range r.Features {
				// Uniform in [-profile[i], +profile[i]].
				features[i] = v + (rng.Float64()*2-1)*profile[i]
			}
			label := make([]float64, len(minorityLabel))
			copy(label, minorityLabel)
			out = append(out, dataset.Record{Features: features, Label: label})
		}
	}

	synthetic := len(minority) * perSample
	if metrics != nil {
		metrics.SyntheticRecordsAdd(float64(synthetic))
	}

	log.Info().
		Int("minority", len(minority)).
		Int("majority", len(majority)).
		Int("per_sample", perSample).
		Int("synthetic", synthetic).
		Int("total", len(out)).
		Msg("Minority class augmented")

	return out.Shuffled(rng), nil
}
