package vcf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerCall struct {
	variant Variant
	alleles []Allele
}

// recordingHandler captures every dispatch for assertions.
type recordingHandler struct {
	samples    []string
	interested func(Variant) bool
	calls      []handlerCall
	finished   bool
	log        *[]string
	name       string
}

func (h *recordingHandler) Samples() []string { return h.samples }

func (h *recordingHandler) IsOfInterest(v Variant) bool {
	if h.interested == nil {
		return true
	}
	return h.interested(v)
}

func (h *recordingHandler) ProcessVariant(v Variant, alleles []Allele) error {
	h.calls = append(h.calls, handlerCall{variant: v, alleles: alleles})
	if h.log != nil {
		*h.log = append(*h.log, h.name)
	}
	return nil
}

func (h *recordingHandler) Finish() error {
	h.finished = true
	return nil
}

const testHeader = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2"

func newTestParser(t *testing.T, input string) (*Parser, *FilterStats) {
	t.Helper()
	stats := &FilterStats{}
	return NewParser(strings.NewReader(input), NewFilter(0, 0), stats), stats
}

func TestParseHeader(t *testing.T) {
	input := "##fileformat=VCFv4.2\n" +
		"##contig=<ID=1>\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n"
	p, _ := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())
	assert.Equal(t, []string{"S1"}, p.Samples())
}

func TestParseHeaderMissingColumn(t *testing.T) {
	// FORMAT column missing entirely.
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	p, _ := newTestParser(t, input)
	err := p.ParseHeader()
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrHeader, pe.Kind)
}

func TestParseHeaderWrongColumn(t *testing.T) {
	input := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tGT\tS1\n"
	p, _ := newTestParser(t, input)
	err := p.ParseHeader()
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrHeader, pe.Kind)
}

func TestParseHeaderAbsent(t *testing.T) {
	p, _ := newTestParser(t, "##meta only, no header line\n")
	err := p.ParseHeader()
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrHeader, pe.Kind)
}

func TestParseHeaderSampleFilter(t *testing.T) {
	stats := &FilterStats{}
	filter := NewFilter(0, 0)
	filter.AllowSamples([]string{"S2"})
	p := NewParser(strings.NewReader(testHeader+"\n"), filter, stats)
	require.NoError(t, p.ParseHeader())
	assert.Equal(t, []string{"S2"}, p.Samples())
}

func TestParseGenotypesNonPassSkip(t *testing.T) {
	input := testHeader + "\n" +
		"1\t100\t.\tA\tG\t.\tq10\t.\tGT\t0/1\t1/1\n"
	p, stats := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	h := &recordingHandler{samples: p.Samples()}
	p.RegisterHandler(h, 0)
	require.NoError(t, p.ParseGenotypes(context.Background()))

	assert.Equal(t, 1, stats.Count(StatOverall))
	assert.Equal(t, 1, stats.Count(StatNonPass))
	assert.Empty(t, h.calls)
	assert.True(t, h.finished)
}

func TestParseGenotypesBannedPosition(t *testing.T) {
	stats := &FilterStats{}
	filter := NewFilter(0, 0)
	pos, err := ParsePosition("1:100")
	require.NoError(t, err)
	filter.BanPositions([]Position{pos})

	input := testHeader + "\n" +
		"1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t1/1\n" +
		"1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t0/1\t1/1\n"
	p := NewParser(strings.NewReader(input), filter, stats)
	require.NoError(t, p.ParseHeader())

	h := &recordingHandler{samples: p.Samples()}
	p.RegisterHandler(h, 0)
	require.NoError(t, p.ParseGenotypes(context.Background()))

	assert.Equal(t, 2, stats.Count(StatOverall))
	assert.Equal(t, 1, stats.Count(StatBanned))
	require.Len(t, h.calls, 1)
	assert.Equal(t, 200, h.calls[0].variant.Pos.Pos)
}

func TestParseGenotypesAltSplit(t *testing.T) {
	input := testHeader + "\n" +
		"1\t100\t.\tA\tG,T\t.\tPASS\t.\tGT\t0/1\t0/2\n"
	p, stats := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	h1 := &recordingHandler{samples: p.Samples()}
	h2 := &recordingHandler{samples: p.Samples()}
	p.RegisterHandler(h1, 0)
	p.RegisterHandler(h2, 1)
	require.NoError(t, p.ParseGenotypes(context.Background()))

	assert.Equal(t, 2, stats.Count(StatOverall))
	for _, h := range []*recordingHandler{h1, h2} {
		require.Len(t, h.calls, 2)
		assert.Equal(t, "1:100_A/G", h.calls[0].variant.String())
		assert.Equal(t, "1:100_A/T", h.calls[1].variant.String())

		// S1 is 0/1: het for the first alternate only. S2 is 0/2: het for
		// the second alternate only.
		assert.Equal(t, Het, h.calls[0].alleles[0].Type)
		assert.Equal(t, Missing, h.calls[0].alleles[1].Type)
		assert.Equal(t, Missing, h.calls[1].alleles[0].Type)
		assert.Equal(t, Het, h.calls[1].alleles[1].Type)
	}
}

func TestParseGenotypesRowShape(t *testing.T) {
	// Second record misses one sample column.
	input := testHeader + "\n" +
		"1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t1/1\n" +
		"1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t0/1\n" +
		"1\t300\t.\tG\tA\t.\tPASS\t.\tGT\t0/1\t1/1\n"
	p, stats := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	var hookErrs []*ParseError
	p.SetErrorHook(func(err *ParseError) { hookErrs = append(hookErrs, err) })

	h := &recordingHandler{samples: p.Samples()}
	p.RegisterHandler(h, 0)
	require.NoError(t, p.ParseGenotypes(context.Background()))

	assert.Equal(t, 1, stats.Count(StatWarning))
	require.Len(t, hookErrs, 1)
	assert.Equal(t, ErrRowShape, hookErrs[0].Kind)
	assert.Equal(t, 3, hookErrs[0].Line)

	// Parsing continued past the malformed record.
	require.Len(t, h.calls, 2)
	assert.Equal(t, 100, h.calls[0].variant.Pos.Pos)
	assert.Equal(t, 300, h.calls[1].variant.Pos.Pos)
}

func TestParseGenotypesHandlerOrder(t *testing.T) {
	input := testHeader + "\n" +
		"1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t1/1\n"
	p, _ := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	var log []string
	first := &recordingHandler{samples: p.Samples(), name: "first", log: &log}
	second := &recordingHandler{samples: p.Samples(), name: "second", log: &log}
	// Registration order is reversed; dispatch order must follow the
	// explicit ordering.
	p.RegisterHandler(second, 2)
	p.RegisterHandler(first, 1)
	require.NoError(t, p.ParseGenotypes(context.Background()))

	assert.Equal(t, []string{"first", "second"}, log)
}

func TestParseGenotypesNoInterest(t *testing.T) {
	input := testHeader + "\n" +
		"1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t./.\t./.\n"
	p, stats := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	h := &recordingHandler{samples: p.Samples(), interested: func(Variant) bool { return false }}
	p.RegisterHandler(h, 0)
	require.NoError(t, p.ParseGenotypes(context.Background()))

	assert.Empty(t, h.calls)
	// Samples were never decoded for the uninteresting record.
	assert.Equal(t, 0, stats.Count(StatGTMiss))
}

func TestParseGenotypesBlankLines(t *testing.T) {
	input := testHeader + "\n" +
		"\n" +
		"   \n" +
		"1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t1/1\n"
	p, _ := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	h := &recordingHandler{samples: p.Samples()}
	p.RegisterHandler(h, 0)
	require.NoError(t, p.ParseGenotypes(context.Background()))
	assert.Len(t, h.calls, 1)
}

func TestParseGenotypesMalformedPosition(t *testing.T) {
	input := testHeader + "\n" +
		"1\tnotanumber\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t1/1\n" +
		"1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t0/1\t1/1\n"
	p, _ := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	var hookErrs []*ParseError
	p.SetErrorHook(func(err *ParseError) { hookErrs = append(hookErrs, err) })

	h := &recordingHandler{samples: p.Samples()}
	p.RegisterHandler(h, 0)
	require.NoError(t, p.ParseGenotypes(context.Background()))

	require.Len(t, hookErrs, 1)
	assert.Equal(t, ErrFormat, hookErrs[0].Kind)
	assert.Equal(t, 2, hookErrs[0].Line)
	assert.Len(t, h.calls, 1)
}

func TestParseGenotypesCancelled(t *testing.T) {
	input := testHeader + "\n" +
		"1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\t1/1\n"
	p, _ := newTestParser(t, input)
	require.NoError(t, p.ParseHeader())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.ParseGenotypes(ctx)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCancelled, pe.Kind)
}
