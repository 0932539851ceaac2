package impute

import (
	"errors"
	"math"
	"math/rand"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// eps is the minimum entropy improvement a split must achieve, and the
// tolerance of the variance pruning comparison.
const eps = 1e-8

// DecisionTree predicts a real-valued dosage in [0, 2] for a target variant
// from a sample's allele types at neighbouring variants. Missing values are
// routed probabilistically through both subtrees, weighted by the class
// distribution of the training bag at each node.
type DecisionTree struct {
	rng  *rand.Rand
	root node
}

// NewDecisionTree creates a tree owning the given RNG.
func NewDecisionTree(rng *rand.Rand) *DecisionTree {
	return &DecisionTree{rng: rng}
}

// Fit trains the tree. features is indexed by predictor variant, then by
// sample; labels holds one non-missing allele type per sample.
func (t *DecisionTree) Fit(features [][]vcf.AlleleType, labels []vcf.AlleleType) error {
	if len(labels) == 0 {
		return errors.New("decision tree: empty training set")
	}
	for _, l := range labels {
		if l == vcf.Missing {
			return errors.New("decision tree: training labels must not be missing")
		}
	}
	b := newBag(len(labels), t.rng)
	t.root = t.buildSubtree(b, features, labels)
	return nil
}

// Predict returns the dosage for one sample's allele types, indexed by
// predictor variant as in Fit.
func (t *DecisionTree) Predict(features []vcf.AlleleType) float64 {
	return t.root.predict(features)
}

type node interface {
	predict(features []vcf.AlleleType) float64
	classWeights() []float64
}

// leaf carries the weighted class counts of its training bag.
type leaf struct {
	weights []float64
}

func (l *leaf) predict([]vcf.AlleleType) float64 {
	return dosage(l.weights)
}

func (l *leaf) classWeights() []float64 {
	return l.weights
}

// inner splits on one predictor variant at a threshold of HomRef or Het.
type inner struct {
	weights     []float64
	left, right node
	variable    int
	separator   vcf.AlleleType
}

func (n *inner) predict(features []vcf.AlleleType) float64 {
	allele := features[n.variable]
	if allele != vcf.Missing {
		if allele.Int() <= n.separator.Int() {
			return n.left.predict(features)
		}
		return n.right.predict(features)
	}
	leftRatio, rightRatio := missingRatios(n.weights, n.separator)
	return leftRatio*n.left.predict(features) + rightRatio*n.right.predict(features)
}

func (n *inner) classWeights() []float64 {
	return n.weights
}

// dosage computes the Dirichlet(1,1,1)-smoothed expected alternate allele
// count from weighted class counts.
func dosage(weights []float64) float64 {
	sum := weights[0] + weights[1] + weights[2] + 3
	a1 := (weights[1] + 1) / sum
	a2 := (weights[2] + 1) / sum
	return a1 + 2*a2
}

// missingRatios derives the fractional routing weights for a missing value
// from a node's class weights: with a HomRef separator only HomRef mass goes
// left, with a Het separator HomRef and Het mass go left.
func missingRatios(weights []float64, separator vcf.AlleleType) (left, right float64) {
	total := weights[0] + weights[1] + weights[2]
	if total == 0 {
		return 0.5, 0.5
	}
	left = weights[0] / total
	if separator == vcf.Het {
		left += weights[1] / total
	}
	return left, 1 - left
}

// bag is a multiset of sample indices with fractional weights.
type bag struct {
	samples []int
	weights []float64
	total   float64
}

// newBag draws n sample indices with replacement, each with weight 1.
func newBag(n int, rng *rand.Rand) bag {
	b := bag{
		samples: make([]int, n),
		weights: make([]float64, n),
		total:   float64(n),
	}
	for i := range b.samples {
		b.samples[i] = rng.Intn(n)
		b.weights[i] = 1
	}
	return b
}

func (b *bag) add(sample int, weight float64) {
	b.samples = append(b.samples, sample)
	b.weights = append(b.weights, weight)
	b.total += weight
}

// counts accumulates the weighted class counts of a bag.
func counts(b bag, labels []vcf.AlleleType) [3]float64 {
	var cs [3]float64
	for i, s := range b.samples {
		cs[labels[s].Int()] += b.weights[i]
	}
	return cs
}

// splitBags partitions a bag on one predictor variant. Samples with a
// missing value contribute to both children with weights proportional to
// the parent bag's class ratios.
func splitBags(parent bag, splitBy vcf.AlleleType, row []vcf.AlleleType, labels []vcf.AlleleType) (left, right bag) {
	cs := counts(parent, labels)
	total := cs[0] + cs[1] + cs[2]
	leftRatio := cs[0] / total
	if splitBy == vcf.Het {
		leftRatio += cs[1] / total
	}
	for i, s := range parent.samples {
		w := parent.weights[i]
		allele := row[s]
		switch {
		case allele == vcf.Missing:
			left.add(s, w*leftRatio)
			right.add(s, w*(1-leftRatio))
		case allele.Int() <= splitBy.Int():
			left.add(s, w)
		default:
			right.add(s, w)
		}
	}
	return left, right
}

// entropy computes the class-distribution entropy of a bag's weighted counts.
func entropy(b bag, labels []vcf.AlleleType) float64 {
	cs := counts(b, labels)
	sum := cs[0] + cs[1] + cs[2]
	score := 0.0
	for _, c := range cs {
		if c != 0 {
			ratio := c / sum
			score -= ratio * math.Log(ratio)
		}
	}
	return score
}

// splitScore is the weight-weighted average of the child entropies.
func splitScore(left, right bag, labels []vcf.AlleleType) float64 {
	sum := left.total + right.total
	return left.total/sum*entropy(left, labels) + right.total/sum*entropy(right, labels)
}

// variance computes the posterior variance of the dosage under a symmetric
// Dirichlet(1,1,1) prior over the class weights.
func variance(weights []float64) float64 {
	sumAlpha := weights[0] + weights[1] + weights[2] + 3
	a1 := (weights[1] + 1) / sumAlpha
	a2 := (weights[2] + 1) / sumAlpha
	v1 := a1 * (1 - a1) / (sumAlpha + 1)
	v2 := a2 * (1 - a2) / (sumAlpha + 1)
	cov := -a1 * a2 / (sumAlpha + 1)
	return v1 + 4*v2 + 4*cov
}

// prune replaces a freshly built inner node by a leaf when the weighted
// child variance exceeds the parent variance.
func prune(left, right node, weights []float64, separator vcf.AlleleType, variable int) node {
	lw, rw := left.classWeights(), right.classWeights()
	leftSum := lw[0] + lw[1] + lw[2]
	rightSum := rw[0] + rw[1] + rw[2]
	sepVariance := (leftSum*variance(lw) + rightSum*variance(rw)) / (leftSum + rightSum)
	if variance(weights) < sepVariance-eps {
		return &leaf{weights: weights}
	}
	return &inner{weights: weights, left: left, right: right, separator: separator, variable: variable}
}

func (t *DecisionTree) buildSubtree(b bag, features [][]vcf.AlleleType, labels []vcf.AlleleType) node {
	k := int(math.Floor(math.Sqrt(float64(len(features)))))
	vars := t.rng.Perm(len(features))[:k]

	bestVar := -1
	bestSep := vcf.Missing
	bestScore := entropy(b, labels) - eps

	for _, v := range vars {
		for _, sep := range []vcf.AlleleType{vcf.HomRef, vcf.Het} {
			l, r := splitBags(b, sep, features[v], labels)
			if score := splitScore(l, r, labels); score < bestScore {
				bestVar, bestSep, bestScore = v, sep, score
			}
		}
	}

	cs := counts(b, labels)
	weights := []float64{cs[0], cs[1], cs[2]}
	if bestSep == vcf.Missing {
		return &leaf{weights: weights}
	}

	l, r := splitBags(b, bestSep, features[bestVar], labels)
	leftSubtree := t.buildSubtree(l, features, labels)
	rightSubtree := t.buildSubtree(r, features, labels)
	return prune(leftSubtree, rightSubtree, weights, bestSep, bestVar)
}
