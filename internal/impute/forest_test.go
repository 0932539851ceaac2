package impute

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genotools/gtmatrix/internal/vcf"
)

func TestForestPredictIsMeanOfTrees(t *testing.T) {
	n := 24
	labels := make([]vcf.AlleleType, n)
	row := make([]vcf.AlleleType, n)
	for i := range labels {
		if i%2 == 0 {
			labels[i] = vcf.HomRef
		} else {
			labels[i] = vcf.Hom
		}
		row[i] = labels[i]
	}
	features := [][]vcf.AlleleType{row}

	f := NewForest(5, rand.New(rand.NewSource(11)))
	require.NoError(t, f.Fit(features, labels))
	require.Len(t, f.trees, 5)

	query := []vcf.AlleleType{vcf.Hom}
	sum := 0.0
	for _, tree := range f.trees {
		sum += tree.Predict(query)
	}
	assert.InDelta(t, sum/5, f.Predict(query), 1e-12)
}

func TestForestPredictionWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := 30
	features := [][]vcf.AlleleType{
		make([]vcf.AlleleType, n),
		make([]vcf.AlleleType, n),
	}
	labels := make([]vcf.AlleleType, n)
	for i := 0; i < n; i++ {
		features[0][i] = vcf.AlleleType(rng.Intn(4))
		features[1][i] = vcf.AlleleType(rng.Intn(4))
		labels[i] = vcf.AlleleType(rng.Intn(3))
	}

	f := NewForest(3, rng)
	require.NoError(t, f.Fit(features, labels))

	for trial := 0; trial < 20; trial++ {
		query := []vcf.AlleleType{vcf.AlleleType(rng.Intn(4)), vcf.AlleleType(rng.Intn(4))}
		pred := f.Predict(query)
		assert.GreaterOrEqual(t, pred, 0.0)
		assert.LessOrEqual(t, pred, 2.0)
	}
}

func TestForestFitPropagatesError(t *testing.T) {
	f := NewForest(2, rand.New(rand.NewSource(1)))
	require.Error(t, f.Fit(nil, nil))
}
