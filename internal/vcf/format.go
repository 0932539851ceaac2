package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	gtField = "GT"
	dpField = "DP"
	gqField = "GQ"
	adField = "AD"
)

// Format decodes per-sample genotype strings according to a record's FORMAT
// column. GT is required; DP, GQ and AD are optional.
type Format struct {
	gtPos int
	dpPos int
	gqPos int
	adPos int
}

// NewFormat builds a decoder from the colon-separated FORMAT column.
func NewFormat(format string) (*Format, error) {
	fields := strings.Split(format, ":")
	f := &Format{
		gtPos: fieldPos(fields, gtField),
		dpPos: fieldPos(fields, dpField),
		gqPos: fieldPos(fields, gqField),
		adPos: fieldPos(fields, adField),
	}
	if f.gtPos == -1 {
		return nil, newError(ErrFormat, "no GT field available for a variant")
	}
	return f, nil
}

func fieldPos(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Parse decodes one sample's genotype string for the alternate allele with
// 1-based index allele. Filter rejections are recorded in stats and yield a
// Missing call; malformed tokens yield a Format error.
func (f *Format) Parse(genotype string, allele int, filter *Filter, stats *FilterStats) (Allele, error) {
	parts := strings.Split(genotype, ":")
	if f.gtPos >= len(parts) {
		return Allele{}, newError(ErrFormat, fmt.Sprintf("wrong genotype format: %q", genotype))
	}

	gt := parts[f.gtPos]
	if gt == "." || gt == "./." || gt == ".|." {
		stats.Add(StatGTMiss, 1)
		return Allele{Type: Missing}, nil
	}

	dp, err := f.parseCount(parts, f.dpPos)
	if err != nil {
		return Allele{}, newError(ErrFormat, fmt.Sprintf("wrong genotype format: %q", genotype))
	}
	gq, err := f.parseCount(parts, f.gqPos)
	if err != nil {
		return Allele{}, newError(ErrFormat, fmt.Sprintf("wrong genotype format: %q", genotype))
	}

	if !filter.ApplyQuality(dp, gq) {
		stats.Add(StatDPGQ, 1)
		return Allele{Type: Missing, DP: dp, GQ: gq}, nil
	}

	typ, err := parseGT(gt, allele)
	if err != nil {
		return Allele{}, err
	}

	if typ == Het && f.adPos != -1 && f.adPos < len(parts) && dp > 0 {
		if balanced, ok := alleleBalance(parts[f.adPos], allele, dp); ok && !balanced {
			stats.Add(StatAlleleBalance, 1)
			return Allele{Type: Missing}, nil
		}
	}

	return Allele{Type: typ, DP: dp, GQ: gq}, nil
}

// parseCount reads an optional numeric field. Absent columns and "." decode
// as zero.
func (f *Format) parseCount(parts []string, pos int) (uint32, error) {
	if pos == -1 || pos >= len(parts) || parts[pos] == "." {
		return 0, nil
	}
	n, err := strconv.ParseUint(parts[pos], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// parseGT decodes a GT value of the form "a", "a/b" or "a|b" against the
// alternate allele index. Phased and unphased separators are equivalent.
func parseGT(gt string, allele int) (AlleleType, error) {
	sep := strings.IndexAny(gt, "/|")
	if sep == -1 {
		first, err := strconv.Atoi(gt)
		if err != nil {
			return Missing, newError(ErrFormat, fmt.Sprintf("wrong GT format: %q", gt))
		}
		if first == 0 {
			return HomRef, nil
		}
		if first == allele {
			return Hom, nil
		}
		return Missing, nil
	}

	first, err := strconv.Atoi(gt[:sep])
	if err != nil {
		return Missing, newError(ErrFormat, fmt.Sprintf("wrong GT format: %q", gt))
	}
	second, err := strconv.Atoi(gt[sep+1:])
	if err != nil {
		return Missing, newError(ErrFormat, fmt.Sprintf("wrong GT format: %q", gt))
	}
	return diploidType(first, second, allele), nil
}

// diploidType classifies an unordered diploid call against the alternate
// allele index.
func diploidType(first, second, allele int) AlleleType {
	if first > second {
		first, second = second, first
	}
	switch {
	case first == 0 && second == 0:
		return HomRef
	case first == allele && second == allele:
		return Hom
	case first == 0 && second == allele:
		return Het
	}
	return Missing
}

// alleleBalance evaluates the AD-based balance heuristic for a heterozygous
// call. The second return is false when AD could not be decoded, in which
// case the call is left untouched.
func alleleBalance(ad string, allele int, dp uint32) (balanced, ok bool) {
	counts := strings.Split(ad, ",")
	if len(counts) <= allele {
		return false, false
	}
	ref, err := strconv.Atoi(counts[0])
	if err != nil {
		return false, false
	}
	alt, err := strconv.Atoi(counts[allele])
	if err != nil {
		return false, false
	}
	refRatio := float64(ref) / float64(dp)
	altRatio := float64(alt) / float64(dp)
	if refRatio < 0.3 || refRatio > 0.7 || altRatio < 0.3 || altRatio > 0.7 {
		return false, true
	}
	return true, true
}
