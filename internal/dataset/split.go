package dataset

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"fraudpipe/internal/common"

	"github.com/rs/zerolog/log"
)

// Split is a disjoint train/test partition of a dataset. As a multiset the
// union of the two sides equals the original dataset.
type Split struct {
	Train Dataset
	Test  Dataset
}

// StratifiedSplit partitions the dataset into train and test subsets such
// that the test set has exactly testSize records and the minority-class
// fraction in the test set approximates its fraction in the full dataset.
//
// The minority share of the test set is floor(testSize * |minority| / |dataset|);
// the remainder comes from the majority side, so totals are exact while the
// class ratio lands within one record of proportional. The dataset is
// shuffled before partitioning, so repeated calls explore different splits.
//
// A nil rng falls back to a time-seeded source.
func StratifiedSplit(ds Dataset, testSize int, rng *rand.Rand) (Split, error) {
	if testSize <= 0 {
		return Split{}, fmt.Errorf("%w: test size must be positive, got %d",
			common.ErrInvalidConfiguration, testSize)
	}
	if testSize > len(ds) {
		return Split{}, fmt.Errorf("%w: test size %d exceeds dataset size %d",
			common.ErrInvalidConfiguration, testSize, len(ds))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	shuffled := ds.Shuffled(rng)
	minority, majority := shuffled.MinorityMajority()

	minTake := testSize * len(minority) / len(shuffled)
	majTake := testSize - minTake
	if majTake > len(majority) {
		// Only reachable when testSize approaches the dataset size; keep
		// totals exact by shifting the overflow back to the minority side.
		minTake += majTake - len(majority)
		majTake = len(majority)
	}

	test := make(Dataset, 0, testSize)
	test = append(test, minority[:minTake]...)
	test = append(test, majority[:majTake]...)

	train := make(Dataset, 0, len(ds)-testSize)
	train = append(train, minority[minTake:]...)
	train = append(train, majority[majTake:]...)

	log.Info().
		Int("train", len(train)).
		Int("test", len(test)).
		Int("test_minority", minTake).
		Int("test_majority", majTake).
		Msg("Stratified split computed")

	return Split{Train: train, Test: test}, nil
}

// Splitter memoizes a stratified split so downstream augmentation and
// evaluation operate on a stable test set for the process lifetime.
type Splitter struct {
	ds       Dataset
	testSize int

	once  sync.Once
	split Split
	err   error
}

// NewSplitter creates a memoizing splitter over the given dataset.
func NewSplitter(ds Dataset, testSize int) *Splitter {
	return &Splitter{ds: ds, testSize: testSize}
}

// Split returns the split, computing it on the first call only.
func (s *Splitter) Split() (Split, error) {
	s.once.Do(func() {
		s.split, s.err = StratifiedSplit(s.ds, s.testSize, nil)
	})
	return s.split, s.err
}
