package vcf

// Filter aggregates the sample, position, variant and quality predicates
// applied during a parse. The zero thresholds admit every call; nil allow
// lists admit every sample and variant.
type Filter struct {
	minDP uint32
	minGQ uint32

	samples  map[string]struct{}
	banned   map[Position]struct{}
	variants map[Variant]struct{}
}

// NewFilter creates a filter with the given per-call DP and GQ thresholds.
func NewFilter(minDP, minGQ uint32) *Filter {
	return &Filter{minDP: minDP, minGQ: minGQ}
}

// AllowSamples restricts the parse to the given sample names. Without an
// allow list every sample in the header is admitted.
func (f *Filter) AllowSamples(names []string) {
	f.samples = make(map[string]struct{}, len(names))
	for _, name := range names {
		f.samples[name] = struct{}{}
	}
}

// BanPositions excludes records at the given positions.
func (f *Filter) BanPositions(positions []Position) {
	if f.banned == nil {
		f.banned = make(map[Position]struct{}, len(positions))
	}
	for _, p := range positions {
		f.banned[p] = struct{}{}
	}
}

// AllowVariants restricts the parse to the given variants. Without an allow
// list every variant is admitted.
func (f *Filter) AllowVariants(variants []Variant) {
	f.variants = make(map[Variant]struct{}, len(variants))
	for _, v := range variants {
		f.variants[v] = struct{}{}
	}
}

// ApplySample reports whether the named sample is admitted.
func (f *Filter) ApplySample(name string) bool {
	if f.samples == nil {
		return true
	}
	_, ok := f.samples[name]
	return ok
}

// ApplyPosition reports whether the position is admitted.
func (f *Filter) ApplyPosition(p Position) bool {
	_, banned := f.banned[p]
	return !banned
}

// ApplyQuality reports whether a call passes the DP and GQ thresholds.
func (f *Filter) ApplyQuality(dp, gq uint32) bool {
	return dp >= f.minDP && gq >= f.minGQ
}

// ApplyVariant reports whether the variant is admitted.
func (f *Filter) ApplyVariant(v Variant) bool {
	if f.variants == nil {
		return true
	}
	_, ok := f.variants[v]
	return ok
}
