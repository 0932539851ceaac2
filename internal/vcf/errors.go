package vcf

import "fmt"

// ErrorKind classifies parser errors.
type ErrorKind int

const (
	// ErrHeader indicates a missing or malformed header row. Terminates parsing.
	ErrHeader ErrorKind = iota
	// ErrFormat indicates an unparseable position, GT, DP, GQ or AD value,
	// or a FORMAT column lacking GT. Skips the record.
	ErrFormat
	// ErrRowShape indicates a record with the wrong number of columns.
	// Skips the record.
	ErrRowShape
	// ErrNoTrainingData indicates a target variant missing from the
	// imputation window. Terminates parsing: this is an invariant violation.
	ErrNoTrainingData
	// ErrCancelled indicates the host requested an abort.
	ErrCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrHeader:
		return "header"
	case ErrFormat:
		return "format"
	case ErrRowShape:
		return "row shape"
	case ErrNoTrainingData:
		return "no training data"
	case ErrCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ParseError is a parser error annotated with the input line it occurred on.
// Line is zero when the error is not tied to a specific record.
type ParseError struct {
	Kind    ErrorKind
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("vcf %s error at line %d: %s", e.Kind, e.Line, e.Message)
	}
	return fmt.Sprintf("vcf %s error: %s", e.Kind, e.Message)
}

// Fatal reports whether the error must terminate parsing instead of being
// forwarded to the error hook.
func (e *ParseError) Fatal() bool {
	switch e.Kind {
	case ErrHeader, ErrNoTrainingData, ErrCancelled:
		return true
	}
	return false
}

func newError(kind ErrorKind, message string) *ParseError {
	return &ParseError{Kind: kind, Message: message}
}

func newErrorAt(kind ErrorKind, line int, message string) *ParseError {
	return &ParseError{Kind: kind, Line: line, Message: message}
}
