package vcf

// Stat identifies a filter-rejection counter.
type Stat int

const (
	// StatOverall counts every candidate variant seen, accepted or not.
	StatOverall Stat = iota
	// StatNonPass counts variants on records whose FILTER column is not PASS.
	StatNonPass
	// StatBanned counts variants at banned positions.
	StatBanned
	// StatWarning counts variants on malformed records.
	StatWarning
	// StatGTMiss counts sample calls with a missing GT value.
	StatGTMiss
	// StatDPGQ counts sample calls rejected by the DP/GQ thresholds.
	StatDPGQ
	// StatAlleleBalance counts heterozygous calls rejected by the
	// allele-balance heuristic.
	StatAlleleBalance

	numStats
)

func (s Stat) String() string {
	switch s {
	case StatOverall:
		return "OVERALL"
	case StatNonPass:
		return "NON_PASS"
	case StatBanned:
		return "BANNED"
	case StatWarning:
		return "WARNING"
	case StatGTMiss:
		return "GT_MISS"
	case StatDPGQ:
		return "DP_GQ"
	case StatAlleleBalance:
		return "ALLELE_BALANCE"
	}
	return "UNKNOWN"
}

// Stats returns all filter-rejection counters in declaration order.
func Stats() []Stat {
	stats := make([]Stat, numStats)
	for i := range stats {
		stats[i] = Stat(i)
	}
	return stats
}

// FilterStats counts filter rejections during a parse. Rejections are
// recorded here rather than raised as errors.
type FilterStats struct {
	counts [numStats]int
}

// Add increments the counter for the given stat by n.
func (s *FilterStats) Add(stat Stat, n int) {
	s.counts[stat] += n
}

// Count returns the current value of the given counter.
func (s *FilterStats) Count(stat Stat) int {
	return s.counts[stat]
}
