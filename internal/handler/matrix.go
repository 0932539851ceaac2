// Package handler provides the variant handlers fed by the VCF parser:
// genotype matrix accumulation, per-region call rates and the packed
// binary dump.
package handler

import "github.com/genotools/gtmatrix/internal/vcf"

// GenotypeMatrixHandler accumulates a variants×samples matrix of allele
// types, with canonical variant strings as row labels.
type GenotypeMatrixHandler struct {
	samples  []string
	variants []vcf.Variant
	matrix   [][]vcf.AlleleType
}

// NewGenotypeMatrixHandler creates a matrix handler for the admitted samples.
func NewGenotypeMatrixHandler(samples []string) *GenotypeMatrixHandler {
	return &GenotypeMatrixHandler{samples: samples}
}

// Samples returns the column labels.
func (h *GenotypeMatrixHandler) Samples() []string {
	return h.samples
}

// IsOfInterest reports interest in every variant.
func (h *GenotypeMatrixHandler) IsOfInterest(vcf.Variant) bool {
	return true
}

// ProcessVariant appends one matrix row.
func (h *GenotypeMatrixHandler) ProcessVariant(v vcf.Variant, alleles []vcf.Allele) error {
	row := make([]vcf.AlleleType, len(alleles))
	for i, a := range alleles {
		row[i] = a.Type
	}
	h.variants = append(h.variants, v)
	h.matrix = append(h.matrix, row)
	return nil
}

// Finish implements vcf.VariantsHandler.
func (h *GenotypeMatrixHandler) Finish() error {
	return nil
}

// Variants returns the row labels, in stream order.
func (h *GenotypeMatrixHandler) Variants() []vcf.Variant {
	return h.variants
}

// Matrix returns the accumulated genotype matrix. Rows parallel Variants,
// columns parallel Samples.
func (h *GenotypeMatrixHandler) Matrix() [][]vcf.AlleleType {
	return h.matrix
}
