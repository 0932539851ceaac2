package impute

import (
	"math/rand"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// Forest averages the predictions of independently trained decision trees.
// All trees draw their bags from the same RNG stream.
type Forest struct {
	rng   *rand.Rand
	trees []*DecisionTree
}

// NewForest creates a forest of size trees sharing the given RNG.
func NewForest(size int, rng *rand.Rand) *Forest {
	f := &Forest{rng: rng, trees: make([]*DecisionTree, size)}
	for i := range f.trees {
		f.trees[i] = NewDecisionTree(rng)
	}
	return f
}

// Fit trains every tree on the same dataset with independent bags.
func (f *Forest) Fit(features [][]vcf.AlleleType, labels []vcf.AlleleType) error {
	for _, t := range f.trees {
		if err := t.Fit(features, labels); err != nil {
			return err
		}
	}
	return nil
}

// Predict returns the mean dosage across all trees.
func (f *Forest) Predict(features []vcf.AlleleType) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.Predict(features)
	}
	return sum / float64(len(f.trees))
}
