package vcf

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Open opens a VCF file for streaming, transparently decompressing gzipped
// input. Compression is detected from the gzip magic bytes, not the file
// name. "-" reads from stdin (plain text only).
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	magic := make([]byte, 2)
	if _, err := io.ReadFull(file, magic); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// Too short for the magic bytes, certainly not gzip.
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				file.Close()
				return nil, fmt.Errorf("seek vcf file: %w", err)
			}
			return file, nil
		}
		file.Close()
		return nil, fmt.Errorf("read vcf file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &gzipReadCloser{zr: zr, file: file}, nil
	}
	return file, nil
}

type gzipReadCloser struct {
	zr   *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	if err := g.zr.Close(); err != nil {
		g.file.Close()
		return err
	}
	return g.file.Close()
}
