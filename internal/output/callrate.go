package output

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// CallRateWriter writes per-range call rates as tab-delimited text: one
// header row with sample names, then one row per range. Ranges that saw no
// variants report NA.
type CallRateWriter struct {
	w       *bufio.Writer
	samples []string
}

// NewCallRateWriter creates a call-rate writer.
func NewCallRateWriter(w io.Writer, samples []string) *CallRateWriter {
	return &CallRateWriter{w: bufio.NewWriter(w), samples: samples}
}

// WriteHeader writes the sample-name header row.
func (cw *CallRateWriter) WriteHeader() error {
	_, err := cw.w.WriteString("range\t" + strings.Join(cw.samples, "\t") + "\n")
	return err
}

// Write writes one range row.
func (cw *CallRateWriter) Write(r vcf.Range, rates []float64) error {
	cells := make([]string, 0, len(rates)+1)
	cells = append(cells, r.String())
	for _, rate := range rates {
		if math.IsNaN(rate) {
			cells = append(cells, naCell)
		} else {
			cells = append(cells, strconv.FormatFloat(rate, 'f', 6, 64))
		}
	}
	_, err := cw.w.WriteString(strings.Join(cells, "\t") + "\n")
	return err
}

// Flush flushes buffered rows to the underlying writer.
func (cw *CallRateWriter) Flush() error {
	return cw.w.Flush()
}
