package vcf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// headerFields are the nine fixed VCF columns, in required order. Sample
// columns follow.
var headerFields = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO", "FORMAT"}

const (
	colChrom = iota
	colPos
	colID
	colRef
	colAlt
	colQual
	colFilter
	colInfo
	colFormat
)

// ErrorHook receives per-record parse errors. Parsing continues with the
// next record after the hook returns.
type ErrorHook func(err *ParseError)

type registeredHandler struct {
	handler VariantsHandler
	order   int
}

// Parser streams a VCF byte stream through the filter gate and dispatches
// admitted variants to registered handlers in order.
type Parser struct {
	reader *bufio.Reader
	filter *Filter
	stats  *FilterStats
	logger *zap.Logger

	errorHook ErrorHook

	lineNumber      int
	samples         []string
	filteredSamples []int // original column indices of admitted samples
	headerSamples   int   // sample column count in the header
	handlers        []registeredHandler
}

// NewParser creates a parser over the given byte stream. Decompression is
// the caller's concern; see Open.
func NewParser(r io.Reader, filter *Filter, stats *FilterStats) *Parser {
	return &Parser{
		reader: bufio.NewReaderSize(r, 1<<16),
		filter: filter,
		stats:  stats,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger used by the default error hook.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// SetErrorHook replaces the default per-record error handling, which logs a
// warning and continues.
func (p *Parser) SetErrorHook(hook ErrorHook) {
	p.errorHook = hook
}

// RegisterHandler registers a handler. Handlers are dispatched in ascending
// order; registration order breaks ties.
func (p *Parser) RegisterHandler(h VariantsHandler, order int) {
	p.handlers = append(p.handlers, registeredHandler{handler: h, order: order})
	sort.SliceStable(p.handlers, func(i, j int) bool {
		return p.handlers[i].order < p.handlers[j].order
	})
}

// Samples returns the admitted sample names, in header order.
func (p *Parser) Samples() []string {
	return p.samples
}

// LineNumber returns the current input line number.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// ParseHeader consumes meta lines and the column header. The first nine
// header columns must match the fixed VCF columns; the remainder are sample
// names, admitted through the sample filter.
func (p *Parser) ParseHeader() error {
	for {
		line, ok, err := p.readLine()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return p.parseHeaderLine(strings.TrimPrefix(line, "#"))
		}
		return newErrorAt(ErrHeader, p.lineNumber, "expected header line before records")
	}
	return newError(ErrHeader, "no VCF header found in given file")
}

func (p *Parser) parseHeaderLine(line string) error {
	tokens := strings.Split(line, "\t")
	if len(tokens) < len(headerFields) {
		return newErrorAt(ErrHeader, p.lineNumber,
			fmt.Sprintf("header has %d columns, expected at least %d", len(tokens), len(headerFields)))
	}
	for i, want := range headerFields {
		if tokens[i] != want {
			return newErrorAt(ErrHeader, p.lineNumber,
				fmt.Sprintf("wrong header line: expected column %s, found %s", want, tokens[i]))
		}
	}
	p.headerSamples = len(tokens) - len(headerFields)
	for i := len(headerFields); i < len(tokens); i++ {
		if p.filter.ApplySample(tokens[i]) {
			p.samples = append(p.samples, tokens[i])
			p.filteredSamples = append(p.filteredSamples, i)
		}
	}
	return nil
}

// ParseGenotypes streams every record through the filter gate and the
// handler chain. Per-record errors are annotated with the line number and
// forwarded to the error hook; header, cancellation and training-data
// errors terminate. Handlers are finalised when the stream ends.
func (p *Parser) ParseGenotypes(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return newErrorAt(ErrCancelled, p.lineNumber, err.Error())
		}
		line, ok, err := p.readLine()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := p.parseRecord(line); err != nil {
			pe, isParseErr := err.(*ParseError)
			if !isParseErr {
				return fmt.Errorf("line %d: %w", p.lineNumber, err)
			}
			if pe.Line == 0 {
				pe.Line = p.lineNumber
			}
			if pe.Fatal() {
				return pe
			}
			p.handleError(pe)
		}
	}
	return p.finish()
}

// parseRecord applies the position, PASS, ban and interest gates, decodes
// per-sample calls for every retained alternate, and dispatches handlers.
func (p *Parser) parseRecord(line string) error {
	tokens := strings.SplitN(line, "\t", len(headerFields)+1)
	if len(tokens) < len(headerFields) {
		return newError(ErrRowShape, "the row is too short")
	}

	pos, err := parsePosition(tokens)
	if err != nil {
		return err
	}

	ref := tokens[colRef]
	alts := strings.Split(tokens[colAlt], ",")
	p.stats.Add(StatOverall, len(alts))

	if tokens[colFilter] != "PASS" {
		p.stats.Add(StatNonPass, len(alts))
		return nil
	}
	if !p.filter.ApplyPosition(pos) {
		p.stats.Add(StatBanned, len(alts))
		return nil
	}

	type candidate struct {
		variant Variant
		allele  int // 1-based alternate index within the record
	}
	var retained []candidate
	for i, alt := range alts {
		v := Variant{Pos: pos, Ref: ref, Alt: alt}
		if p.filter.ApplyVariant(v) && p.isOfInterest(v) {
			retained = append(retained, candidate{variant: v, allele: i + 1})
		}
	}
	if len(retained) == 0 {
		return nil
	}

	tokens = strings.Split(line, "\t")
	if len(tokens) != len(headerFields)+p.headerSamples {
		p.stats.Add(StatWarning, len(retained))
		return newError(ErrRowShape,
			fmt.Sprintf("the row has %d columns whereas header has %d",
				len(tokens), len(headerFields)+p.headerSamples))
	}

	format, err := NewFormat(tokens[colFormat])
	if err != nil {
		return err
	}

	for _, c := range retained {
		alleles := make([]Allele, 0, len(p.filteredSamples))
		for _, col := range p.filteredSamples {
			allele, err := format.Parse(tokens[col], c.allele, p.filter, p.stats)
			if err != nil {
				return err
			}
			alleles = append(alleles, allele)
		}
		for _, rh := range p.handlers {
			if err := rh.handler.ProcessVariant(c.variant, alleles); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) isOfInterest(v Variant) bool {
	for _, rh := range p.handlers {
		if rh.handler.IsOfInterest(v) {
			return true
		}
	}
	return false
}

func (p *Parser) handleError(pe *ParseError) {
	if p.errorHook != nil {
		p.errorHook(pe)
		return
	}
	p.logger.Warn("skipping malformed record",
		zap.Int("line", pe.Line),
		zap.Stringer("kind", pe.Kind),
		zap.String("reason", pe.Message))
}

func (p *Parser) finish() error {
	for _, rh := range p.handlers {
		if err := rh.handler.Finish(); err != nil {
			return err
		}
	}
	return nil
}

// readLine returns the next input line without its terminator. The second
// return is false at end of input.
func (p *Parser) readLine() (string, bool, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, fmt.Errorf("read vcf stream: %w", err)
	}
	if line == "" {
		return "", false, nil
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), true, nil
}

func parsePosition(tokens []string) (Position, error) {
	chrom, err := ParseChromosome(tokens[colChrom])
	if err != nil {
		return Position{}, err
	}
	pos, err := strconv.Atoi(tokens[colPos])
	if err != nil {
		return Position{}, newError(ErrFormat, "can't read variant position")
	}
	return Position{Chrom: chrom, Pos: pos}, nil
}
