package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genotools/gtmatrix/internal/arrowout"
	"github.com/genotools/gtmatrix/internal/duckdb"
	"github.com/genotools/gtmatrix/internal/handler"
	"github.com/genotools/gtmatrix/internal/impute"
	"github.com/genotools/gtmatrix/internal/output"
	"github.com/genotools/gtmatrix/internal/vcf"
)

// arrowChunkSize is the number of matrix rows per Arrow record batch.
const arrowChunkSize = 1024

type parseOptions struct {
	minDP        uint32
	minGQ        uint32
	samples      []string
	banPositions []string
	variants     []string
	regions      []string

	matrixOut    string
	callRateOut  string
	binaryPrefix string

	imputeTargets []string
	windowSize    int
	windowKB      int
	seed          int64
	dosageOut     string

	duckdbPath string
	arrowPath  string
}

func newParseCmd() *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse [flags] <input.vcf[.gz]>",
		Short: "Parse a VCF stream and emit derived artifacts",
		Long: `Parse streams a VCF file through the filter gate and the configured
handlers. Records that are not PASS, at banned positions, or of interest to
no handler are skipped; per-sample calls failing the DP/GQ thresholds or the
allele-balance heuristic become missing.`,
		Example: `  gtmatrix parse --matrix matrix.tsv input.vcf.gz
  gtmatrix parse --region 1:1000-200000 --call-rate rates.tsv input.vcf
  gtmatrix parse --binary-prefix out input.vcf
  gtmatrix parse --impute 2:45000_A/T --dosages dosages.tsv input.vcf
  gtmatrix parse --matrix - --duckdb results.duckdb input.vcf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.Uint32Var(&opts.minDP, "min-dp", 0, "Minimum read depth per call")
	flags.Uint32Var(&opts.minGQ, "min-gq", 0, "Minimum genotype quality per call")
	flags.StringSliceVar(&opts.samples, "sample", nil, "Admit only these samples (repeatable)")
	flags.StringSliceVar(&opts.banPositions, "ban-position", nil, "Skip records at chrom:pos (repeatable)")
	flags.StringSliceVar(&opts.variants, "variant", nil, "Admit only these variants, chrom:pos_REF/ALT (repeatable)")
	flags.StringSliceVar(&opts.regions, "region", nil, "Call-rate region chrom:from-to (repeatable)")
	flags.StringVar(&opts.matrixOut, "matrix", "", "Write the genotype matrix to this file ('-' for stdout)")
	flags.StringVar(&opts.callRateOut, "call-rate", "", "Write per-region call rates to this file ('-' for stdout)")
	flags.StringVar(&opts.binaryPrefix, "binary-prefix", "", "Write <prefix>_bin and <prefix>_meta binary dump files")
	flags.StringSliceVar(&opts.imputeTargets, "impute", nil, "Impute dosages at these target variants, chrom:pos_REF/ALT (repeatable)")
	flags.IntVar(&opts.windowSize, "window-size", 1000, "Imputation window capacity in variants")
	flags.IntVar(&opts.windowKB, "window-width", 100000, "Imputation window width in base pairs")
	flags.Int64Var(&opts.seed, "seed", 42, "Imputation RNG seed")
	flags.StringVar(&opts.dosageOut, "dosages", "", "Write imputed dosages to this file ('-' for stdout)")
	flags.StringVar(&opts.duckdbPath, "duckdb", "", "Persist all results into this DuckDB database")
	flags.StringVar(&opts.arrowPath, "arrow", "", "Write the genotype matrix as Arrow IPC to this file")

	return cmd
}

func runParse(ctx context.Context, inputPath string, opts parseOptions) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	filter, err := buildFilter(opts)
	if err != nil {
		return err
	}

	in, err := vcf.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	stats := &vcf.FilterStats{}
	parser := vcf.NewParser(in, filter, stats)
	parser.SetLogger(logger)

	if err := parser.ParseHeader(); err != nil {
		return err
	}
	samples := parser.Samples()
	logger.Info("parsed header", zap.Int("samples", len(samples)))

	wantMatrix := opts.matrixOut != "" || opts.duckdbPath != "" || opts.arrowPath != ""

	var matrixHandler *handler.GenotypeMatrixHandler
	if wantMatrix {
		matrixHandler = handler.NewGenotypeMatrixHandler(samples)
		parser.RegisterHandler(matrixHandler, 0)
	}

	var callRateHandler *handler.CallRateHandler
	if len(opts.regions) > 0 {
		ranges := make([]vcf.Range, 0, len(opts.regions))
		for _, region := range opts.regions {
			r, err := vcf.ParseRange(region)
			if err != nil {
				return err
			}
			ranges = append(ranges, r)
		}
		callRateHandler = handler.NewCallRateHandler(samples, ranges)
		parser.RegisterHandler(callRateHandler, 1)
	}

	if opts.binaryPrefix != "" {
		binaryHandler, err := handler.CreateBinaryFileHandler(samples, opts.binaryPrefix)
		if err != nil {
			return err
		}
		parser.RegisterHandler(binaryHandler, 2)
	}

	var predictor *impute.PredictingHandler
	if len(opts.imputeTargets) > 0 {
		var targets []vcf.Variant
		for _, t := range opts.imputeTargets {
			vs, err := vcf.ParseVariants(t)
			if err != nil {
				return err
			}
			targets = append(targets, vs...)
		}
		predictor = impute.NewPredictingHandler(samples, targets, opts.windowSize, opts.windowKB, opts.seed)
		predictor.SetLogger(logger)
		parser.RegisterHandler(predictor, 3)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := parser.ParseGenotypes(ctx); err != nil {
		return err
	}

	logStats(logger, stats)

	if matrixHandler != nil && opts.matrixOut != "" {
		if err := writeMatrix(opts.matrixOut, samples, matrixHandler); err != nil {
			return err
		}
	}
	if callRateHandler != nil && opts.callRateOut != "" {
		if err := writeCallRates(opts.callRateOut, samples, callRateHandler); err != nil {
			return err
		}
	}
	if predictor != nil && opts.dosageOut != "" {
		if err := writeDosages(opts.dosageOut, samples, predictor); err != nil {
			return err
		}
	}
	if opts.arrowPath != "" {
		if err := writeArrow(opts.arrowPath, samples, matrixHandler); err != nil {
			return err
		}
	}
	if opts.duckdbPath != "" {
		if err := saveDuckDB(opts.duckdbPath, samples, stats, matrixHandler, callRateHandler, predictor); err != nil {
			return err
		}
	}
	return nil
}

func buildFilter(opts parseOptions) (*vcf.Filter, error) {
	filter := vcf.NewFilter(opts.minDP, opts.minGQ)
	if len(opts.samples) > 0 {
		filter.AllowSamples(opts.samples)
	}
	if len(opts.banPositions) > 0 {
		positions := make([]vcf.Position, 0, len(opts.banPositions))
		for _, s := range opts.banPositions {
			p, err := vcf.ParsePosition(s)
			if err != nil {
				return nil, err
			}
			positions = append(positions, p)
		}
		filter.BanPositions(positions)
	}
	if len(opts.variants) > 0 {
		var allowed []vcf.Variant
		for _, s := range opts.variants {
			vs, err := vcf.ParseVariants(s)
			if err != nil {
				return nil, err
			}
			allowed = append(allowed, vs...)
		}
		filter.AllowVariants(allowed)
	}
	return filter, nil
}

func logStats(logger *zap.Logger, stats *vcf.FilterStats) {
	fields := make([]zap.Field, 0, len(vcf.Stats()))
	for _, stat := range vcf.Stats() {
		fields = append(fields, zap.Int(stat.String(), stats.Count(stat)))
	}
	logger.Info("parse complete", fields...)
}

// openOutput opens an output file, treating "-" as stdout.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeMatrix(path string, samples []string, h *handler.GenotypeMatrixHandler) error {
	out, closeOut, err := openOutput(path)
	if err != nil {
		return err
	}
	defer closeOut()

	mw := output.NewMatrixWriter(out, samples)
	if err := mw.WriteHeader(); err != nil {
		return err
	}
	matrix := h.Matrix()
	for i, v := range h.Variants() {
		if err := mw.Write(v, matrix[i]); err != nil {
			return err
		}
	}
	return mw.Flush()
}

func writeCallRates(path string, samples []string, h *handler.CallRateHandler) error {
	out, closeOut, err := openOutput(path)
	if err != nil {
		return err
	}
	defer closeOut()

	cw := output.NewCallRateWriter(out, samples)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	rates := h.CallRates()
	for i, r := range h.Ranges() {
		if err := cw.Write(r, rates[i]); err != nil {
			return err
		}
	}
	return cw.Flush()
}

func writeDosages(path string, samples []string, predictor *impute.PredictingHandler) error {
	out, closeOut, err := openOutput(path)
	if err != nil {
		return err
	}
	defer closeOut()

	dw := output.NewDosageWriter(out, samples)
	if err := dw.WriteHeader(); err != nil {
		return err
	}
	for _, target := range predictor.PredictedTargets() {
		dosages, _ := predictor.Predictions(target)
		if err := dw.Write(target, dosages); err != nil {
			return err
		}
	}
	return dw.Flush()
}

func writeArrow(path string, samples []string, h *handler.GenotypeMatrixHandler) error {
	aw, err := arrowout.NewWriter(path, samples, arrowChunkSize)
	if err != nil {
		return err
	}
	matrix := h.Matrix()
	for i, v := range h.Variants() {
		row := make([]float64, len(matrix[i]))
		for j, t := range matrix[i] {
			if t == vcf.Missing {
				row[j] = math.NaN()
			} else {
				row[j] = float64(t.Int())
			}
		}
		if err := aw.Write(v.String(), row); err != nil {
			aw.Close()
			return err
		}
	}
	return aw.Close()
}

func saveDuckDB(path string, samples []string, stats *vcf.FilterStats,
	matrixHandler *handler.GenotypeMatrixHandler, callRateHandler *handler.CallRateHandler,
	predictor *impute.PredictingHandler) error {

	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveStats(stats); err != nil {
		return fmt.Errorf("save filter stats: %w", err)
	}
	if matrixHandler != nil {
		if err := store.SaveGenotypes(samples, matrixHandler.Variants(), matrixHandler.Matrix()); err != nil {
			return fmt.Errorf("save genotypes: %w", err)
		}
	}
	if callRateHandler != nil {
		if err := store.SaveCallRates(samples, callRateHandler.Ranges(), callRateHandler.CallRates()); err != nil {
			return fmt.Errorf("save call rates: %w", err)
		}
	}
	if predictor != nil {
		targets := predictor.PredictedTargets()
		dosages := make([][]float64, len(targets))
		for i, t := range targets {
			dosages[i], _ = predictor.Predictions(t)
		}
		if err := store.SaveDosages(samples, targets, dosages); err != nil {
			return fmt.Errorf("save dosages: %w", err)
		}
	}
	return nil
}
