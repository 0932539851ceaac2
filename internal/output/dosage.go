package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// DosageWriter writes imputed dosages as tab-delimited text: one header row
// with sample names, then one row per imputed target variant.
type DosageWriter struct {
	w       *bufio.Writer
	samples []string
}

// NewDosageWriter creates a dosage writer.
func NewDosageWriter(w io.Writer, samples []string) *DosageWriter {
	return &DosageWriter{w: bufio.NewWriter(w), samples: samples}
}

// WriteHeader writes the sample-name header row.
func (dw *DosageWriter) WriteHeader() error {
	_, err := dw.w.WriteString("variant\t" + strings.Join(dw.samples, "\t") + "\n")
	return err
}

// Write writes one target variant row.
func (dw *DosageWriter) Write(v vcf.Variant, dosages []float64) error {
	cells := make([]string, 0, len(dosages)+1)
	cells = append(cells, v.String())
	for _, d := range dosages {
		cells = append(cells, strconv.FormatFloat(d, 'f', 6, 64))
	}
	_, err := dw.w.WriteString(strings.Join(cells, "\t") + "\n")
	return err
}

// Flush flushes buffered rows to the underlying writer.
func (dw *DosageWriter) Flush() error {
	return dw.w.Flush()
}
