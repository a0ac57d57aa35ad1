// Package executor orchestrates statement execution for one HTTP
// request: it evaluates each statement, acquires a session shaped by the
// verdict, drives the statement through the router, and assembles the
// results.
//
// Two operations are exposed. [Executor.Run] executes a batch
// sequentially in submission order, capturing per-statement database
// errors so later statements still run, and aborting on any other error
// kind. [Executor.Stream] executes a single statement, delivering
// records to a sink as they arrive from the driver.
package executor

import (
	"context"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/StricklySoft/bolt-gateway/pkg/auth"
	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
	"github.com/StricklySoft/bolt-gateway/pkg/router"
)

// Evaluator derives the execution requirements for a statement.
// Implemented by [query.Evaluator].
type Evaluator interface {
	Evaluate(ctx context.Context, principal auth.Principal, database string, q query.AnnotatedQuery) (query.ExecutionRequirements, error)
}

// SessionRouter acquires sessions and drives statements. Implemented by
// [router.Router].
type SessionRouter interface {
	Acquire(ctx context.Context, principal auth.Principal, database string, reqs query.ExecutionRequirements) bolt.Session
	Run(ctx context.Context, session bolt.Session, database string, q query.AnnotatedQuery, reqs query.ExecutionRequirements, sink router.Sink) (router.RunResult, error)
}

// EagerResult is the fully buffered outcome of one statement in a batch:
// either the records and summary of a success, or the database error of
// a failure. It carries the query it was built for, so response
// rendering knows the requested formats and stats flag.
type EagerResult struct {
	Query query.AnnotatedQuery

	Keys    []string
	Records []*neo4j.Record
	Summary bolt.Summary

	// Err is non-nil for a failed statement. Only database errors are
	// captured this way; other kinds abort the batch.
	Err *gwerr.Error
}

// Failed reports whether the statement failed.
func (r EagerResult) Failed() bool {
	return r.Err != nil
}

// ResultContainer is the outcome of a batch: one EagerResult per
// executed statement in submission order, plus the notifications
// aggregated across successful statements.
type ResultContainer struct {
	Results []EagerResult

	// Notifications are deduplicated by (code, position offset), first
	// occurrence wins.
	Notifications []bolt.Notification
}

// Executor coordinates the evaluator and the router. It is safe for
// concurrent use by multiple goroutines; per-request state lives on the
// stack of each call.
type Executor struct {
	evaluator Evaluator
	router    SessionRouter
	logger    *slog.Logger
}

// New creates an Executor. A nil logger defaults to [slog.Default].
func New(evaluator Evaluator, sessionRouter SessionRouter, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		evaluator: evaluator,
		router:    sessionRouter,
		logger:    logger,
	}
}

// Run executes a batch sequentially in submission order, each statement
// in its own session acquisition.
//
// A database error fails only its own statement: it is recorded as a
// failure EagerResult and execution continues, matching the best-effort
// contract of the batch API. Invalid queries, authentication and
// transport errors abort the batch immediately. A cancelled context
// aborts before the next statement starts.
func (e *Executor) Run(ctx context.Context, principal auth.Principal, database string, container query.Container) (ResultContainer, error) {
	out := ResultContainer{}
	seen := make(map[notificationKey]bool)

	for i, q := range container.Statements {
		if err := ctx.Err(); err != nil {
			return ResultContainer{}, gwerr.Wrap(err, gwerr.CodeTransport,
				"request cancelled")
		}

		result, err := e.executeOne(ctx, principal, database, q)
		if err != nil {
			if !gwerr.IsDatabase(err) {
				return ResultContainer{}, err
			}
			e.logger.DebugContext(ctx, "statement failed",
				"statement_index", i,
				"error", err,
			)
			out.Results = append(out.Results, EagerResult{
				Query: q,
				Err:   gwerr.FromError(err),
			})
			continue
		}

		out.Results = append(out.Results, result)
		for _, note := range result.Summary.Notifications {
			key := notificationKey{code: note.Code, offset: -1}
			if note.Position != nil {
				key.offset = note.Position.Offset
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Notifications = append(out.Notifications, note)
		}
	}
	return out, nil
}

// Stream executes a single statement, delivering each record to the sink
// as it arrives. The session is closed before Stream returns, on every
// path.
func (e *Executor) Stream(ctx context.Context, principal auth.Principal, database string, q query.AnnotatedQuery, sink router.Sink) (router.RunResult, error) {
	reqs, err := e.evaluator.Evaluate(ctx, principal, database, q)
	if err != nil {
		return router.RunResult{}, err
	}

	session := e.router.Acquire(ctx, principal, database, reqs)
	defer func() { _ = session.Close(ctx) }()

	return e.router.Run(ctx, session, database, q, reqs, sink)
}

// executeOne buffers one statement's records eagerly.
func (e *Executor) executeOne(ctx context.Context, principal auth.Principal, database string, q query.AnnotatedQuery) (EagerResult, error) {
	reqs, err := e.evaluator.Evaluate(ctx, principal, database, q)
	if err != nil {
		return EagerResult{}, err
	}

	session := e.router.Acquire(ctx, principal, database, reqs)
	defer func() { _ = session.Close(ctx) }()

	buffer := &recordBuffer{}
	outcome, err := e.router.Run(ctx, session, database, q, reqs, buffer)
	if err != nil {
		return EagerResult{}, err
	}

	return EagerResult{
		Query:   q,
		Keys:    outcome.Keys,
		Records: buffer.records,
		Summary: outcome.Summary,
	}, nil
}

type notificationKey struct {
	code   string
	offset int
}

// recordBuffer is a resettable sink that retains every record. Reset
// clears it when the driver retries a managed transaction.
type recordBuffer struct {
	records []*neo4j.Record
}

func (b *recordBuffer) Record(record *neo4j.Record) error {
	b.records = append(b.records, record)
	return nil
}

func (b *recordBuffer) Reset() {
	b.records = b.records[:0]
}
