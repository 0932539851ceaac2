package handler

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// BinaryFileHandler streams admitted variants to two outputs: a text
// metadata stream (one header line with the admitted sample names, then the
// canonical variant string per emitted variant) and a binary stream of
// packed (DP uint16 LE, GQ uint16 LE, allele uint8) records, one per sample
// per variant, in metadata order.
type BinaryFileHandler struct {
	samples []string
	bin     *bufio.Writer
	meta    *bufio.Writer
	closers []io.Closer
}

// NewBinaryFileHandler creates a binary handler over the given streams and
// writes the metadata sample header.
func NewBinaryFileHandler(samples []string, bin, meta io.Writer) (*BinaryFileHandler, error) {
	h := &BinaryFileHandler{
		samples: samples,
		bin:     bufio.NewWriter(bin),
		meta:    bufio.NewWriter(meta),
	}
	if _, err := h.meta.WriteString(strings.Join(samples, "\t") + "\n"); err != nil {
		return nil, fmt.Errorf("write metadata header: %w", err)
	}
	return h, nil
}

// CreateBinaryFileHandler creates a binary handler writing to
// <prefix>_bin and <prefix>_meta. The files are closed by Finish.
func CreateBinaryFileHandler(samples []string, prefix string) (*BinaryFileHandler, error) {
	bin, err := os.Create(prefix + "_bin")
	if err != nil {
		return nil, fmt.Errorf("create binary file: %w", err)
	}
	meta, err := os.Create(prefix + "_meta")
	if err != nil {
		bin.Close()
		return nil, fmt.Errorf("create metadata file: %w", err)
	}
	h, err := NewBinaryFileHandler(samples, bin, meta)
	if err != nil {
		bin.Close()
		meta.Close()
		return nil, err
	}
	h.closers = []io.Closer{bin, meta}
	return h, nil
}

// Samples returns the admitted sample names.
func (h *BinaryFileHandler) Samples() []string {
	return h.samples
}

// IsOfInterest reports interest in every variant.
func (h *BinaryFileHandler) IsOfInterest(vcf.Variant) bool {
	return true
}

// ProcessVariant appends one metadata row and the packed calls of all
// admitted samples.
func (h *BinaryFileHandler) ProcessVariant(v vcf.Variant, alleles []vcf.Allele) error {
	if _, err := h.meta.WriteString(v.String() + "\n"); err != nil {
		return fmt.Errorf("write variant metadata: %w", err)
	}
	var buf [5]byte
	for _, a := range alleles {
		packed := vcf.BinaryFromAllele(a)
		binary.LittleEndian.PutUint16(buf[0:2], packed.DP)
		binary.LittleEndian.PutUint16(buf[2:4], packed.GQ)
		buf[4] = packed.Allele
		if _, err := h.bin.Write(buf[:]); err != nil {
			return fmt.Errorf("write binary record: %w", err)
		}
	}
	return nil
}

// Finish flushes both streams and closes any files owned by the handler.
func (h *BinaryFileHandler) Finish() error {
	if err := h.bin.Flush(); err != nil {
		return fmt.Errorf("flush binary stream: %w", err)
	}
	if err := h.meta.Flush(); err != nil {
		return fmt.Errorf("flush metadata stream: %w", err)
	}
	for _, c := range h.closers {
		if err := c.Close(); err != nil {
			return err
		}
	}
	h.closers = nil
	return nil
}
