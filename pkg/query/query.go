// Package query defines the gateway's query model and the evaluator that
// derives execution requirements for a Cypher statement: whether it may be
// routed to read replicas or must go to writers, and whether it must run
// as a managed (retriable) transaction or an implicit (auto-commit) one.
//
// The evaluator combines three inputs:
//
//   - A token pre-pass over the statement text that detects the two
//     constructs requiring an implicit transaction (CALL {..} IN
//     TRANSACTIONS and USING PERIODIC COMMIT) while ignoring backticked
//     identifiers, string literals, and comments.
//   - The capabilities snapshot: when server-side routing is available the
//     target is always AUTO and no EXPLAIN round trip is made.
//   - Otherwise, the operator names of the EXPLAIN plan, classified
//     against known read-only and updating operator sets. Any operator the
//     evaluator does not recognise is conservatively treated as updating.
package query

import (
	"fmt"
	"strings"
)

// ResultFormat selects a projection of a statement's results.
type ResultFormat string

const (
	// FormatRow projects each record as an ordered list of column values.
	FormatRow ResultFormat = "row"

	// FormatGraph additionally projects the deduplicated nodes and
	// relationships referenced anywhere in the records.
	FormatGraph ResultFormat = "graph"
)

// ParseResultFormat parses a case-insensitive result format name.
func ParseResultFormat(s string) (ResultFormat, error) {
	switch strings.ToLower(s) {
	case "row":
		return FormatRow, nil
	case "graph":
		return FormatGraph, nil
	default:
		return "", fmt.Errorf("unknown result data content %q (supported: row, graph)", s)
	}
}

// AnnotatedQuery is a single Cypher statement together with its
// parameters and result options. Construct it with [NewAnnotatedQuery],
// which normalizes the text; treat it as immutable afterwards.
type AnnotatedQuery struct {
	// Text is the Cypher statement, trimmed of surrounding whitespace.
	Text string

	// Parameters maps parameter names to already-decoded Cypher values
	// in the driver's representation.
	Parameters map[string]any

	// IncludeStats requests the update counters in the result.
	IncludeStats bool

	// ResultFormats is the non-empty set of requested projections.
	// Defaults to {row} when the caller omits it.
	ResultFormats []ResultFormat
}

// NewAnnotatedQuery builds a normalized AnnotatedQuery. The text is
// trimmed and must be non-empty; an empty format set defaults to
// [FormatRow]; duplicate formats are removed preserving first occurrence.
func NewAnnotatedQuery(text string, params map[string]any, includeStats bool, formats []ResultFormat) (AnnotatedQuery, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return AnnotatedQuery{}, fmt.Errorf("statement must not be empty")
	}
	if len(formats) == 0 {
		formats = []ResultFormat{FormatRow}
	} else {
		seen := make(map[ResultFormat]bool, len(formats))
		deduped := formats[:0]
		for _, f := range formats {
			if !seen[f] {
				seen[f] = true
				deduped = append(deduped, f)
			}
		}
		formats = deduped
	}
	return AnnotatedQuery{
		Text:          text,
		Parameters:    params,
		IncludeStats:  includeStats,
		ResultFormats: formats,
	}, nil
}

// HasFormat reports whether the query requests the given projection.
func (q AnnotatedQuery) HasFormat(f ResultFormat) bool {
	for _, have := range q.ResultFormats {
		if have == f {
			return true
		}
	}
	return false
}

// Container is an ordered sequence of statements from a single HTTP
// payload. The statements execute sequentially on one logical transaction
// stream, in submission order.
type Container struct {
	Statements []AnnotatedQuery
}

// Target identifies which cluster members a statement may be routed to.
type Target string

const (
	// TargetReaders allows routing to read replicas.
	TargetReaders Target = "readers"

	// TargetWriters requires routing to a writer.
	TargetWriters Target = "writers"

	// TargetAuto defers routing to the cluster itself. Produced only
	// when server-side routing is available.
	TargetAuto Target = "auto"
)

// Valid reports whether the target is one of the recognized values.
func (t Target) Valid() bool {
	switch t {
	case TargetReaders, TargetWriters, TargetAuto:
		return true
	default:
		return false
	}
}

// TransactionMode identifies how a statement's transaction is driven.
type TransactionMode string

const (
	// ModeManaged runs the statement inside a transaction function that
	// the driver retries on transient failures.
	ModeManaged TransactionMode = "managed"

	// ModeImplicit runs the statement as an auto-commit transaction.
	// Required by CALL {..} IN TRANSACTIONS and USING PERIODIC COMMIT,
	// which manage their own inner transactions.
	ModeImplicit TransactionMode = "implicit"
)

// Valid reports whether the mode is one of the recognized values.
func (m TransactionMode) Valid() bool {
	switch m {
	case ModeManaged, ModeImplicit:
		return true
	default:
		return false
	}
}

// ExecutionRequirements is the evaluator's verdict for one statement.
type ExecutionRequirements struct {
	Target Target
	Mode   TransactionMode
}
