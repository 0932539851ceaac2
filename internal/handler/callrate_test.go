package handler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genotools/gtmatrix/internal/vcf"
)

func mustRange(t *testing.T, s string) vcf.Range {
	t.Helper()
	r, err := vcf.ParseRange(s)
	require.NoError(t, err)
	return r
}

func TestCallRateHandlerInterest(t *testing.T) {
	h := NewCallRateHandler([]string{"S1"}, []vcf.Range{mustRange(t, "1:100-200")})
	assert.True(t, h.IsOfInterest(mustVariant(t, "1:150_A/G")))
	assert.False(t, h.IsOfInterest(mustVariant(t, "1:201_A/G")))
	assert.False(t, h.IsOfInterest(mustVariant(t, "2:150_A/G")))
}

func TestCallRateHandlerRates(t *testing.T) {
	ranges := []vcf.Range{mustRange(t, "1:100-200"), mustRange(t, "2:100-200")}
	h := NewCallRateHandler([]string{"S1", "S2"}, ranges)

	calls := []struct {
		variant string
		alleles []vcf.Allele
	}{
		{"1:100_A/G", []vcf.Allele{{Type: vcf.Het}, {Type: vcf.Missing}}},
		{"1:150_C/T", []vcf.Allele{{Type: vcf.HomRef}, {Type: vcf.Missing}}},
		{"1:300_G/A", []vcf.Allele{{Type: vcf.Hom}, {Type: vcf.Hom}}}, // outside both ranges
	}
	for _, c := range calls {
		require.NoError(t, h.ProcessVariant(mustVariant(t, c.variant), c.alleles))
	}
	require.NoError(t, h.Finish())

	assert.Equal(t, []int{2, 0}, h.VariantCounts())
	rates := h.CallRates()
	assert.Equal(t, 1.0, rates[0][0])
	assert.Equal(t, 0.0, rates[0][1])
	assert.True(t, math.IsNaN(rates[1][0]), "range without variants reports NaN")
}
