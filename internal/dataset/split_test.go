package dataset

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"fraudpipe/internal/common"
)

// makeImbalanced builds a dataset with the given fraud/legit counts. Each
// record carries a unique feature value so multiset identity can be checked.
func makeImbalanced(fraud, legit int) Dataset {
	ds := make(Dataset, 0, fraud+legit)
	id := 0.0
	for i := 0; i < fraud; i++ {
		ds = append(ds, Record{Features: []float64{id}, Label: FraudLabel()})
		id++
	}
	for i := 0; i < legit; i++ {
		ds = append(ds, Record{Features: []float64{id}, Label: LegitLabel()})
		id++
	}
	return ds
}

func TestStratifiedSplit_SizesAndUnion(t *testing.T) {
	testCases := []struct {
		name         string
		fraud, legit int
		testSize     int
	}{
		{"mild skew", 20, 80, 25},
		{"extreme skew", 5, 995, 100},
		{"full dataset", 10, 90, 100},
		{"tiny test set", 10, 90, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ds := makeImbalanced(tc.fraud, tc.legit)
			rng := rand.New(rand.NewSource(42))

			split, err := StratifiedSplit(ds, tc.testSize, rng)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(split.Test) != tc.testSize {
				t.Errorf("expected test size %d, got %d", tc.testSize, len(split.Test))
			}
			if len(split.Train)+len(split.Test) != len(ds) {
				t.Errorf("train+test = %d, want %d", len(split.Train)+len(split.Test), len(ds))
			}

			// Multiset union: every unique feature id appears exactly once
			seen := make(map[float64]int)
			for _, r := range split.Train {
				seen[r.Features[0]]++
			}
			for _, r := range split.Test {
				seen[r.Features[0]]++
			}
			if len(seen) != len(ds) {
				t.Errorf("expected %d distinct records across both sides, got %d", len(ds), len(seen))
			}
			for id, n := range seen {
				if n != 1 {
					t.Errorf("record %f appears %d times", id, n)
				}
			}
		})
	}
}

func TestStratifiedSplit_PreservesMinorityFraction(t *testing.T) {
	fraud, legit, testSize := 30, 970, 200
	ds := makeImbalanced(fraud, legit)
	rng := rand.New(rand.NewSource(7))

	split, err := StratifiedSplit(ds, testSize, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testFraud, _ := split.Test.Partition()
	want := float64(testSize) * float64(fraud) / float64(fraud+legit)
	if math.Abs(float64(len(testFraud))-want) > 1 {
		t.Errorf("test set has %d fraud records, want %f ±1", len(testFraud), want)
	}
}

func TestStratifiedSplit_TestSizeTooLarge(t *testing.T) {
	ds := makeImbalanced(5, 15)

	_, err := StratifiedSplit(ds, 21, nil)
	if !errors.Is(err, common.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}

	_, err = StratifiedSplit(ds, 0, nil)
	if !errors.Is(err, common.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for zero size, got %v", err)
	}
}

func TestSplitter_Memoized(t *testing.T) {
	ds := makeImbalanced(10, 90)
	splitter := NewSplitter(ds, 20)

	first, err := splitter.Split()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := splitter.Split()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Test) != len(second.Test) {
		t.Fatalf("cached split changed size")
	}
	for i := range first.Test {
		if first.Test[i].Features[0] != second.Test[i].Features[0] {
			t.Fatal("expected cached splitter to return a stable test set")
		}
	}
}
