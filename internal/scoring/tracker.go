package scoring

import "sync"

// BestTracker holds the process-wide running maximum F-beta across
// evaluation rounds. The single evaluation call site updates it once per
// round; the mutex keeps the monotonic-maximum invariant intact if parallel
// evaluation is ever introduced.
type BestTracker struct {
	mu   sync.Mutex
	best float64
	seen bool
}

// NewBestTracker creates an empty tracker. The first observed round is
// always flagged best, even at a score of 0.
func NewBestTracker() *BestTracker {
	return &BestTracker{}
}

// Observe records a round's F-beta and reports whether it is a new best.
// A round is best when no prior round exists or its score strictly exceeds
// the previous best; ties are not best.
func (t *BestTracker) Observe(fbeta float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen && fbeta <= t.best {
		return false
	}
	t.best = fbeta
	t.seen = true
	return true
}

// Best returns the current best score and whether any round has been seen.
func (t *BestTracker) Best() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.best, t.seen
}
