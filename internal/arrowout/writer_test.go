package arrowout

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.arrow")

	w, err := NewWriter(path, []string{"S1", "S2"}, 2)
	require.NoError(t, err)

	require.NoError(t, w.Write("1:100_A/G", []float64{0, 1}))
	require.NoError(t, w.Write("1:200_C/T", []float64{2, math.NaN()}))
	// Third row stays in the pending chunk until Close.
	require.NoError(t, w.Write("2:300_G/A", []float64{1, 1}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := ipc.NewFileReader(f)
	require.NoError(t, err)
	defer r.Close()

	schema := r.Schema()
	require.Equal(t, 3, len(schema.Fields()))
	assert.Equal(t, "variant", schema.Field(0).Name)
	assert.Equal(t, "S1", schema.Field(1).Name)
	assert.Equal(t, "S2", schema.Field(2).Name)

	require.Equal(t, 2, r.NumRecords(), "full chunk plus the partial tail chunk")

	rec, err := r.Record(0)
	require.NoError(t, err)
	variants := rec.Column(0).(*array.String)
	assert.Equal(t, "1:100_A/G", variants.Value(0))
	assert.Equal(t, "1:200_C/T", variants.Value(1))

	s2 := rec.Column(2).(*array.Float64)
	assert.Equal(t, 1.0, s2.Value(0))
	assert.True(t, s2.IsNull(1), "NaN round-trips as null")

	tail, err := r.Record(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tail.NumRows())
	assert.Equal(t, "2:300_G/A", tail.Column(0).(*array.String).Value(0))
}

func TestWriterRejectsShortRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.arrow")
	w, err := NewWriter(path, []string{"S1", "S2"}, 8)
	require.NoError(t, err)
	defer w.Close()

	require.Error(t, w.Write("1:100_A/G", []float64{0}))
}
