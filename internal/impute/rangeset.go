package impute

import (
	"sort"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// rangeSet keeps per-chromosome ranges sorted by end position and
// non-overlapping. Inserting a range merges every stored range it overlaps
// or touches, so repeated insertion is idempotent.
type rangeSet struct {
	byChrom map[int][]vcf.Range
}

func newRangeSet() *rangeSet {
	return &rangeSet{byChrom: make(map[int][]vcf.Range)}
}

func (s *rangeSet) insert(r vcf.Range) {
	set := s.byChrom[r.Chrom.Num()]

	// First stored range that could touch r: end >= r.From-1. Because the
	// set is non-overlapping and sorted by end, starts are sorted too.
	lo := sort.Search(len(set), func(i int) bool {
		return set[i].To >= r.From-1
	})
	hi := lo
	for hi < len(set) && set[hi].From <= r.To+1 {
		if set[hi].From < r.From {
			r.From = set[hi].From
		}
		if set[hi].To > r.To {
			r.To = set[hi].To
		}
		hi++
	}

	merged := make([]vcf.Range, 0, len(set)-(hi-lo)+1)
	merged = append(merged, set[:lo]...)
	merged = append(merged, r)
	merged = append(merged, set[hi:]...)
	s.byChrom[r.Chrom.Num()] = merged
}

// contains locates the first range ending at or after the position and
// checks inclusion.
func (s *rangeSet) contains(p vcf.Position) bool {
	set := s.byChrom[p.Chrom.Num()]
	i := sort.Search(len(set), func(i int) bool {
		return set[i].To >= p.Pos
	})
	return i < len(set) && set[i].Includes(p)
}
