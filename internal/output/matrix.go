// Package output provides tab-delimited writers for the parse artifacts.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// naCell marks missing genotypes and undefined call rates.
const naCell = "NA"

// MatrixWriter writes the genotype matrix as tab-delimited text: one header
// row with sample names, then one row per variant keyed by its canonical
// string, cells in {0,1,2,NA}.
type MatrixWriter struct {
	w       *bufio.Writer
	samples []string
}

// NewMatrixWriter creates a genotype matrix writer.
func NewMatrixWriter(w io.Writer, samples []string) *MatrixWriter {
	return &MatrixWriter{w: bufio.NewWriter(w), samples: samples}
}

// WriteHeader writes the sample-name header row.
func (mw *MatrixWriter) WriteHeader() error {
	_, err := mw.w.WriteString("variant\t" + strings.Join(mw.samples, "\t") + "\n")
	return err
}

// Write writes one variant row.
func (mw *MatrixWriter) Write(v vcf.Variant, row []vcf.AlleleType) error {
	cells := make([]string, 0, len(row)+1)
	cells = append(cells, v.String())
	for _, t := range row {
		if t == vcf.Missing {
			cells = append(cells, naCell)
		} else {
			cells = append(cells, strconv.Itoa(t.Int()))
		}
	}
	_, err := mw.w.WriteString(strings.Join(cells, "\t") + "\n")
	return err
}

// Flush flushes buffered rows to the underlying writer.
func (mw *MatrixWriter) Flush() error {
	return mw.w.Flush()
}
