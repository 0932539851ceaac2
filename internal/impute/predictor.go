package impute

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/genotools/gtmatrix/internal/vcf"
)

// PredictingHandler imputes genotype dosages at designated target variants.
// It keeps a sliding window of neighbouring variants; on every chromosome
// transition and at stream end it trains one decision tree per pending
// target inside the window and records per-sample dosage predictions.
type PredictingHandler struct {
	samples []string
	window  *Window
	ranges  *rangeSet
	targets map[int][]vcf.Variant // per chromosome, ascending position
	rng     *rand.Rand
	logger  *zap.Logger

	currChrom   int // 0 until the first variant arrives
	predicted   map[vcf.Variant]bool
	predictions map[vcf.Variant][]float64
}

// NewPredictingHandler creates a predicting handler for the given target
// variants. The window holds at most windowSize variants within
// windowSizeKB/2 base pairs of a target; seed initialises the learner RNG.
func NewPredictingHandler(samples []string, targets []vcf.Variant, windowSize, windowSizeKB int, seed int64) *PredictingHandler {
	h := &PredictingHandler{
		samples:     samples,
		window:      NewWindow(windowSize, windowSizeKB),
		ranges:      newRangeSet(),
		targets:     make(map[int][]vcf.Variant),
		rng:         rand.New(rand.NewSource(seed)),
		logger:      zap.NewNop(),
		predicted:   make(map[vcf.Variant]bool),
		predictions: make(map[vcf.Variant][]float64),
	}
	half := windowSizeKB / 2
	for _, t := range targets {
		chrom := t.Pos.Chrom.Num()
		h.ranges.insert(vcf.Range{Chrom: t.Pos.Chrom, From: t.Pos.Pos - half, To: t.Pos.Pos + half})
		h.targets[chrom] = append(h.targets[chrom], t)
	}
	for _, ts := range h.targets {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Pos.Pos < ts[j].Pos.Pos })
	}
	return h
}

// SetLogger sets the logger used for imputation progress.
func (h *PredictingHandler) SetLogger(l *zap.Logger) {
	h.logger = l
}

// Samples returns the sample names predictions are made for.
func (h *PredictingHandler) Samples() []string {
	return h.samples
}

// IsOfInterest reports whether the variant falls inside the haplotype range
// of any target on its chromosome.
func (h *PredictingHandler) IsOfInterest(v vcf.Variant) bool {
	return h.ranges.contains(v.Pos)
}

// ProcessVariant appends the variant to the window. A chromosome transition
// first drains pending targets of the previous chromosome and resets the
// window.
func (h *PredictingHandler) ProcessVariant(v vcf.Variant, alleles []vcf.Allele) error {
	types := make([]vcf.AlleleType, len(alleles))
	for i, a := range alleles {
		types[i] = a.Type
	}
	chrom := v.Pos.Chrom.Num()
	if chrom != h.currChrom {
		if h.currChrom != 0 {
			if err := h.cleanup(h.currChrom); err != nil {
				return err
			}
		}
		h.window.Clear()
		h.currChrom = chrom
	}
	h.window.Add(types, v)
	return nil
}

// Finish drains pending targets of the final chromosome.
func (h *PredictingHandler) Finish() error {
	if h.currChrom == 0 {
		return nil
	}
	return h.cleanup(h.currChrom)
}

// cleanup trains a tree for every pending target of the chromosome that the
// window currently spans, and records dosage predictions for every sample.
func (h *PredictingHandler) cleanup(chrom int) error {
	for _, target := range h.targets[chrom] {
		if h.predicted[target] || !h.window.Spans(target.Pos) {
			continue
		}
		features, labels, err := h.window.Dataset(target)
		if err != nil {
			return err
		}
		tree := NewDecisionTree(h.rng)
		if err := tree.Fit(features, labels); err != nil {
			return err
		}
		preds := make([]float64, len(labels))
		query := make([]vcf.AlleleType, len(features))
		for s := range labels {
			for j := range features {
				query[j] = features[j][s]
			}
			preds[s] = tree.Predict(query)
		}
		h.predictions[target] = preds
		h.predicted[target] = true
		h.logger.Debug("imputed target variant",
			zap.Stringer("variant", target),
			zap.Int("neighbours", len(features)))
	}
	return nil
}

// PredictedTargets returns the targets a prediction was made for, ordered by
// chromosome then position.
func (h *PredictingHandler) PredictedTargets() []vcf.Variant {
	var out []vcf.Variant
	for _, ts := range h.targets {
		for _, t := range ts {
			if h.predicted[t] {
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pos.Chrom != out[j].Pos.Chrom {
			return out[i].Pos.Chrom.Num() < out[j].Pos.Chrom.Num()
		}
		return out[i].Pos.Pos < out[j].Pos.Pos
	})
	return out
}

// Predictions returns the per-sample dosages for a target, aligned with
// Samples. The second return is false when the target was never imputed.
func (h *PredictingHandler) Predictions(target vcf.Variant) ([]float64, bool) {
	preds, ok := h.predictions[target]
	return preds, ok
}
