// Package dataset provides the in-memory data model for the fraud
// classification pipeline: fixed-width feature records with one-hot labels,
// a memoized CSV loader, and a stratified train/test splitter that preserves
// class proportions under extreme skew.
package dataset

import (
	"math/rand"

	"fraudpipe/internal/common"
)

// Classes lists the class names in label-index order. A record's one-hot
// label is parallel to this slice: [1,0] = legitimate, [0,1] = fraud.
var Classes = []string{common.ClassLegit, common.ClassFraud}

// Record is a single labeled example: a fixed-length feature vector and a
// one-hot label of length 2.
type Record struct {
	Features []float64
	Label    []float64
}

// IsFraud reports whether the record carries the fraud label.
func (r Record) IsFraud() bool {
	return len(r.Label) == 2 && r.Label[1] == 1
}

// Class returns the record's class name.
func (r Record) Class() string {
	if r.IsFraud() {
		return common.ClassFraud
	}
	return common.ClassLegit
}

// Dataset is an ordered collection of records sharing feature dimensionality.
type Dataset []Record

// FraudLabel and LegitLabel build fresh one-hot label vectors.
func FraudLabel() []float64 { return []float64{0, 1} }
func LegitLabel() []float64 { return []float64{1, 0} }

// FeatureDim returns the feature vector length, or 0 for an empty dataset.
func (d Dataset) FeatureDim() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0].Features)
}

// Partition splits the dataset by label. It is derived on demand and never
// mutates the dataset.
func (d Dataset) Partition() (fraud, legit Dataset) {
	for _, r := range d {
		if r.IsFraud() {
			fraud = append(fraud, r)
		} else {
			legit = append(legit, r)
		}
	}
	return fraud, legit
}

// MinorityMajority partitions by label and orders the result by frequency,
// minority first. On a tie the fraud side is treated as the minority.
func (d Dataset) MinorityMajority() (minority, majority Dataset) {
	fraud, legit := d.Partition()
	if len(legit) < len(fraud) {
		return legit, fraud
	}
	return fraud, legit
}

// Labels returns the class name of every record, in order.
func (d Dataset) Labels() []string {
	labels := make([]string, len(d))
	for i, r := range d {
		labels[i] = r.Class()
	}
	return labels
}

// FeatureMatrix returns the feature vectors of every record, in order.
// The inner slices alias the records' feature storage.
func (d Dataset) FeatureMatrix() [][]float64 {
	rows := make([][]float64, len(d))
	for i, r := range d {
		rows[i] = r.Features
	}
	return rows
}

// Shuffled returns a shuffled copy of the dataset. The records themselves
// are shared; only the ordering is new.
func (d Dataset) Shuffled(rng *rand.Rand) Dataset {
	out := make(Dataset, len(d))
	copy(out, d)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
