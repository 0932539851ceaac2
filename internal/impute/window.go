// Package impute trains per-variant decision trees over a sliding genomic
// window to predict missing genotypes at designated target variants.
package impute

import (
	"github.com/genotools/gtmatrix/internal/vcf"
)

// Window is a bounded ring of recent (variant, per-sample allele types)
// pairs around the stream cursor. Capacity is counted in entries; maxSizeKB
// additionally guards the window width in base pairs at query time.
type Window struct {
	maxSize   int
	maxSizeKB int

	variants []vcf.Variant
	alleles  [][]vcf.AlleleType
	start    int
}

// NewWindow creates a window holding at most maxSize entries within
// maxSizeKB/2 base pairs of a query target.
func NewWindow(maxSize, maxSizeKB int) *Window {
	return &Window{maxSize: maxSize, maxSizeKB: maxSizeKB}
}

// Clear drops all entries.
func (w *Window) Clear() {
	w.variants = w.variants[:0]
	w.alleles = w.alleles[:0]
	w.start = 0
}

// Len returns the number of stored entries.
func (w *Window) Len() int {
	return len(w.variants)
}

// Add stores one variant with its per-sample allele types, overwriting the
// oldest slot once capacity is reached. The overwrite cursor starts moving
// only after the window is full and wraps back to slot zero.
func (w *Window) Add(alleles []vcf.AlleleType, v vcf.Variant) {
	if len(w.variants) < w.maxSize {
		w.variants = append(w.variants, v)
		w.alleles = append(w.alleles, alleles)
		return
	}
	w.variants[w.start] = v
	w.alleles[w.start] = alleles
	w.start++
	if w.start == w.maxSize {
		w.start = 0
	}
}

// Spans reports whether the target position lies within the positional span
// of the stored entries on its chromosome.
func (w *Window) Spans(p vcf.Position) bool {
	lo, hi := 0, 0
	seen := false
	for _, v := range w.variants {
		if v.Pos.Chrom != p.Chrom {
			continue
		}
		if !seen || v.Pos.Pos < lo {
			lo = v.Pos.Pos
		}
		if !seen || v.Pos.Pos > hi {
			hi = v.Pos.Pos
		}
		seen = true
	}
	return seen && lo <= p.Pos && p.Pos <= hi
}

// Dataset extracts a training set for the target variant: labels are the
// target's per-sample allele types, features are every other entry within
// maxSizeKB/2 base pairs of the target. Returns a NoTrainingData error when
// the target is not stored.
func (w *Window) Dataset(target vcf.Variant) (features [][]vcf.AlleleType, labels []vcf.AlleleType, err error) {
	half := w.maxSizeKB / 2
	for i, v := range w.variants {
		if v == target {
			labels = w.alleles[i]
			continue
		}
		if v.Pos.Chrom != target.Pos.Chrom {
			continue
		}
		if delta := v.Pos.Pos - target.Pos.Pos; delta > half || delta < -half {
			continue
		}
		features = append(features, w.alleles[i])
	}
	if labels == nil {
		return nil, nil, &vcf.ParseError{
			Kind:    vcf.ErrNoTrainingData,
			Message: "no values for training set: target variant " + target.String() + " absent from window",
		}
	}
	return features, labels, nil
}
