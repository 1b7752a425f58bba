// Package decision converts class-probability vectors into predicted labels.
package decision

import "fmt"

// Threshold biases decisions away from a class that requires high
// confidence. When the arg-max class equals Class but its probability is
// below Min, the decision falls back to the runner-up class.
type Threshold struct {
	Class string
	Min   float64
}

// Classify returns the class name at the index of the maximum probability.
// When several indices share the maximum, the lowest index wins, so
// identical inputs always produce identical outputs.
func Classify(classes []string, probs []float64) (string, error) {
	if err := validate(classes, probs); err != nil {
		return "", err
	}
	return classes[argmax(probs)], nil
}

// ClassifyWithThreshold is Classify with a confidence override: if the
// winning class equals th.Class and its probability is strictly below
// th.Min, the class with the second-highest probability is returned
// instead. The fallback is a single step; it does not cascade past the
// runner-up.
func ClassifyWithThreshold(classes []string, probs []float64, th Threshold) (string, error) {
	if err := validate(classes, probs); err != nil {
		return "", err
	}

	winner := argmax(probs)
	if classes[winner] != th.Class || probs[winner] >= th.Min {
		return classes[winner], nil
	}
	if len(probs) < 2 {
		return classes[winner], nil
	}

	// Re-run the arg-max with the winner's slot zeroed out.
	masked := make([]float64, len(probs))
	copy(masked, probs)
	masked[winner] = 0
	return classes[argmax(masked)], nil
}

func validate(classes []string, probs []float64) error {
	if len(classes) == 0 {
		return fmt.Errorf("no classes given")
	}
	if len(classes) != len(probs) {
		return fmt.Errorf("got %d classes but %d probabilities", len(classes), len(probs))
	}
	return nil
}

func argmax(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}
