// Package vcf implements a single-pass streaming VCF parser with
// sample/position/variant/quality filtering and ordered handler dispatch.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// AlleleType classifies a diploid call relative to one alternate allele.
// The numeric order HomRef < Het < Hom < Missing is load-bearing: the first
// three values double as decision-tree split thresholds.
type AlleleType uint8

const (
	HomRef AlleleType = iota
	Het
	Hom
	Missing
)

// Int returns the total integer ranking of the allele type.
func (t AlleleType) Int() int {
	switch t {
	case HomRef:
		return 0
	case Het:
		return 1
	case Hom:
		return 2
	case Missing:
		return 3
	}
	return 3
}

func (t AlleleType) String() string {
	switch t {
	case HomRef:
		return "HOMREF"
	case Het:
		return "HET"
	case Hom:
		return "HOM"
	case Missing:
		return "MISSING"
	}
	return "MISSING"
}

const (
	chrX = 23
	chrY = 24
)

// Chromosome is a numeric chromosome identifier: 1..22, 23 for X, 24 for Y.
type Chromosome struct {
	num int
}

// ParseChromosome parses a chromosome name, stripping an optional "chr"
// prefix and mapping X/Y to their numeric identifiers.
func ParseChromosome(s string) (Chromosome, error) {
	name := strings.TrimPrefix(s, "chr")
	switch name {
	case "X", "x":
		return Chromosome{chrX}, nil
	case "Y", "y":
		return Chromosome{chrY}, nil
	}
	n, err := strconv.Atoi(name)
	if err != nil || n < 1 || n > chrY {
		return Chromosome{}, newError(ErrFormat, fmt.Sprintf("invalid chromosome %q", s))
	}
	return Chromosome{n}, nil
}

// Num returns the numeric chromosome identifier.
func (c Chromosome) Num() int {
	return c.num
}

func (c Chromosome) String() string {
	switch c.num {
	case chrX:
		return "X"
	case chrY:
		return "Y"
	default:
		return strconv.Itoa(c.num)
	}
}

// Position is a 1-based genomic coordinate on a chromosome.
type Position struct {
	Chrom Chromosome
	Pos   int
}

// ParsePosition parses a "chrom:pos" string.
func ParsePosition(s string) (Position, error) {
	chrom, pos, ok := strings.Cut(s, ":")
	if !ok {
		return Position{}, newError(ErrFormat, fmt.Sprintf("invalid position %q", s))
	}
	c, err := ParseChromosome(chrom)
	if err != nil {
		return Position{}, err
	}
	p, err := strconv.Atoi(pos)
	if err != nil {
		return Position{}, newError(ErrFormat, fmt.Sprintf("invalid position %q", s))
	}
	return Position{Chrom: c, Pos: p}, nil
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.Chrom, p.Pos)
}

// Range is an inclusive [From, To] span on a chromosome. Range sets are
// ordered by (chromosome, To) to support lower_bound-style queries.
type Range struct {
	Chrom    Chromosome
	From, To int
}

// ParseRange parses a "chrom:from-to" string.
func ParseRange(s string) (Range, error) {
	chrom, span, ok := strings.Cut(s, ":")
	if !ok {
		return Range{}, newError(ErrFormat, fmt.Sprintf("invalid range %q", s))
	}
	c, err := ParseChromosome(chrom)
	if err != nil {
		return Range{}, err
	}
	fromStr, toStr, ok := strings.Cut(span, "-")
	if !ok {
		return Range{}, newError(ErrFormat, fmt.Sprintf("invalid range %q", s))
	}
	from, err := strconv.Atoi(fromStr)
	if err != nil {
		return Range{}, newError(ErrFormat, fmt.Sprintf("invalid range %q", s))
	}
	to, err := strconv.Atoi(toStr)
	if err != nil {
		return Range{}, newError(ErrFormat, fmt.Sprintf("invalid range %q", s))
	}
	return Range{Chrom: c, From: from, To: to}, nil
}

// Includes reports whether p falls inside the range.
func (r Range) Includes(p Position) bool {
	return r.Chrom == p.Chrom && r.From <= p.Pos && p.Pos <= r.To
}

func (r Range) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.From, r.To)
}

// Variant is a single (position, ref, alt) triple. Multi-allelic VCF records
// expand to one Variant per alternate allele.
type Variant struct {
	Pos Position
	Ref string
	Alt string
}

// String returns the canonical variant form "chrom:pos_REF/ALT".
func (v Variant) String() string {
	return fmt.Sprintf("%s_%s/%s", v.Pos, v.Ref, v.Alt)
}

// ParseVariants parses a "chrom:pos_REF/ALT1/ALT2/..." string into one
// Variant per alternate allele.
func ParseVariants(s string) ([]Variant, error) {
	loc, alleles, ok := strings.Cut(s, "_")
	if !ok {
		return nil, newError(ErrFormat, fmt.Sprintf("invalid variant %q", s))
	}
	pos, err := ParsePosition(loc)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(alleles, "/")
	if len(parts) < 2 || parts[0] == "" {
		return nil, newError(ErrFormat, fmt.Sprintf("invalid variant %q", s))
	}
	variants := make([]Variant, 0, len(parts)-1)
	for _, alt := range parts[1:] {
		if alt == "" || alt == parts[0] {
			return nil, newError(ErrFormat, fmt.Sprintf("invalid variant %q", s))
		}
		variants = append(variants, Variant{Pos: pos, Ref: parts[0], Alt: alt})
	}
	return variants, nil
}

// Allele is one per-sample call for a specific alternate allele.
type Allele struct {
	Type AlleleType
	DP   uint32
	GQ   uint32
}

// AlleleBinary is the packed wire form of an Allele: DP and GQ as
// little-endian uint16 followed by the allele type as a single byte.
type AlleleBinary struct {
	DP     uint16
	GQ     uint16
	Allele uint8
}

// BinaryFromAllele converts an Allele to its packed wire form. DP and GQ
// saturate at the uint16 maximum.
func BinaryFromAllele(a Allele) AlleleBinary {
	dp := a.DP
	if dp > 0xffff {
		dp = 0xffff
	}
	gq := a.GQ
	if gq > 0xffff {
		gq = 0xffff
	}
	return AlleleBinary{DP: uint16(dp), GQ: uint16(gq), Allele: uint8(a.Type.Int())}
}
