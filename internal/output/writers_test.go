package output

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genotools/gtmatrix/internal/vcf"
)

func mustVariant(t *testing.T, s string) vcf.Variant {
	t.Helper()
	vs, err := vcf.ParseVariants(s)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	return vs[0]
}

func TestMatrixWriter(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMatrixWriter(&buf, []string{"S1", "S2", "S3"})
	require.NoError(t, mw.WriteHeader())
	require.NoError(t, mw.Write(mustVariant(t, "1:100_A/G"),
		[]vcf.AlleleType{vcf.HomRef, vcf.Het, vcf.Missing}))
	require.NoError(t, mw.Write(mustVariant(t, "2:200_C/T"),
		[]vcf.AlleleType{vcf.Hom, vcf.Hom, vcf.HomRef}))
	require.NoError(t, mw.Flush())

	want := "variant\tS1\tS2\tS3\n" +
		"1:100_A/G\t0\t1\tNA\n" +
		"2:200_C/T\t2\t2\t0\n"
	assert.Equal(t, want, buf.String())
}

func TestCallRateWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewCallRateWriter(&buf, []string{"S1", "S2"})
	require.NoError(t, cw.WriteHeader())

	r1, err := vcf.ParseRange("1:100-200")
	require.NoError(t, err)
	r2, err := vcf.ParseRange("2:100-200")
	require.NoError(t, err)

	require.NoError(t, cw.Write(r1, []float64{1, 0.5}))
	require.NoError(t, cw.Write(r2, []float64{math.NaN(), math.NaN()}))
	require.NoError(t, cw.Flush())

	want := "range\tS1\tS2\n" +
		"1:100-200\t1.000000\t0.500000\n" +
		"2:100-200\tNA\tNA\n"
	assert.Equal(t, want, buf.String())
}

func TestDosageWriter(t *testing.T) {
	var buf bytes.Buffer
	dw := NewDosageWriter(&buf, []string{"S1", "S2"})
	require.NoError(t, dw.WriteHeader())
	require.NoError(t, dw.Write(mustVariant(t, "1:500_A/G"), []float64{0.25, 1.75}))
	require.NoError(t, dw.Flush())

	want := "variant\tS1\tS2\n" +
		"1:500_A/G\t0.250000\t1.750000\n"
	assert.Equal(t, want, buf.String())
}
