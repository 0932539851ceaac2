package vcf

// VariantsHandler consumes admitted variants in stream order. Handlers are
// registered on the parser with an explicit order and invoked serially.
type VariantsHandler interface {
	// Samples returns the sample names the handler was configured with.
	Samples() []string

	// IsOfInterest reports whether the handler wants the variant. A record
	// whose variants interest no handler is skipped before sample decoding.
	IsOfInterest(v Variant) bool

	// ProcessVariant consumes one variant with one Allele per admitted
	// sample, in header order.
	ProcessVariant(v Variant, alleles []Allele) error

	// Finish is called once when the stream ends, in registration order.
	Finish() error
}
