package handler

import (
	"math"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// CallRateHandler counts non-missing calls per configured range and sample.
type CallRateHandler struct {
	samples   []string
	ranges    []vcf.Range
	nVariants []int
	counts    [][]int // counts[range][sample]
}

// NewCallRateHandler creates a call-rate handler over the given ranges.
func NewCallRateHandler(samples []string, ranges []vcf.Range) *CallRateHandler {
	counts := make([][]int, len(ranges))
	for i := range counts {
		counts[i] = make([]int, len(samples))
	}
	return &CallRateHandler{
		samples:   samples,
		ranges:    ranges,
		nVariants: make([]int, len(ranges)),
		counts:    counts,
	}
}

// Samples returns the column labels.
func (h *CallRateHandler) Samples() []string {
	return h.samples
}

// IsOfInterest reports whether the variant falls inside any configured range.
func (h *CallRateHandler) IsOfInterest(v vcf.Variant) bool {
	for _, r := range h.ranges {
		if r.Includes(v.Pos) {
			return true
		}
	}
	return false
}

// ProcessVariant counts the variant toward every range containing it.
func (h *CallRateHandler) ProcessVariant(v vcf.Variant, alleles []vcf.Allele) error {
	for i, r := range h.ranges {
		if !r.Includes(v.Pos) {
			continue
		}
		h.nVariants[i]++
		for j, a := range alleles {
			if a.Type != vcf.Missing {
				h.counts[i][j]++
			}
		}
	}
	return nil
}

// Finish implements vcf.VariantsHandler.
func (h *CallRateHandler) Finish() error {
	return nil
}

// Ranges returns the configured ranges, in registration order.
func (h *CallRateHandler) Ranges() []vcf.Range {
	return h.ranges
}

// VariantCounts returns the number of variants seen per range.
func (h *CallRateHandler) VariantCounts() []int {
	return h.nVariants
}

// CallRates returns non-missing-count / variants-in-range per range and
// sample. Ranges without variants report NaN.
func (h *CallRateHandler) CallRates() [][]float64 {
	rates := make([][]float64, len(h.ranges))
	for i := range h.ranges {
		rates[i] = make([]float64, len(h.samples))
		for j := range h.samples {
			if h.nVariants[i] == 0 {
				rates[i][j] = math.NaN()
				continue
			}
			rates[i][j] = float64(h.counts[i][j]) / float64(h.nVariants[i])
		}
	}
	return rates
}
