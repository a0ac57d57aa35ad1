// Package router acquires Bolt sessions shaped by an execution verdict
// and drives statements through them.
//
// The router is the only component that opens sessions for request
// traffic. It translates a [query.ExecutionRequirements] and an
// [auth.Principal] into the session configuration (access mode, database,
// impersonated user, shared bookmark manager), picks the transaction
// driving strategy (auto-commit or managed read/write), and classifies
// driver failures into the gateway's error codes. All database operations
// create OpenTelemetry spans with standard database semantic attributes;
// statements are truncated in spans to prevent sensitive data leakage.
package router

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/StricklySoft/bolt-gateway/pkg/auth"
	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	"github.com/StricklySoft/bolt-gateway/pkg/capabilities"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
)

// tracerName is the OpenTelemetry instrumentation scope name for this
// package. It follows the Go module path convention for OTel
// instrumentation libraries.
const tracerName = "github.com/StricklySoft/bolt-gateway/pkg/router"

// CapabilitiesSource provides the process-wide capabilities snapshot.
// Implemented by [capabilities.Probe].
type CapabilitiesSource interface {
	Snapshot(ctx context.Context) capabilities.Snapshot
}

// Sink receives each record of a statement as it is pulled from the
// server. Returning an error aborts the statement and rolls back a
// managed transaction.
type Sink interface {
	Record(record *neo4j.Record) error
}

// SinkFunc adapts a function to the [Sink] interface.
type SinkFunc func(record *neo4j.Record) error

func (f SinkFunc) Record(record *neo4j.Record) error {
	return f(record)
}

// ResettableSink is implemented by sinks that buffer records. Reset is
// called at the start of every managed transaction attempt, so a
// transaction the driver retries does not deliver its records twice.
// Sinks that write records out as they arrive cannot honour Reset;
// their output may repeat a prefix after a retry.
type ResettableSink interface {
	Sink
	Reset()
}

// RunResult is the outcome of a completed statement: the column names
// and the server's result summary. Records are delivered through the
// [Sink], not retained here.
type RunResult struct {
	Keys    []string
	Summary bolt.Summary
}

// Router owns session acquisition and statement driving. It is safe for
// concurrent use by multiple goroutines.
//
// All sessions share one bookmark manager, so a request observes the
// writes of every request that completed before it (causal consistency
// across the gateway process).
type Router struct {
	sessions  bolt.SessionFactory
	caps      CapabilitiesSource
	bookmarks neo4j.BookmarkManager
	fetchSize int
	tracer    trace.Tracer
}

// NewRouter creates a Router. fetchSize is the record batch size
// requested from the server per pull.
func NewRouter(sessions bolt.SessionFactory, caps CapabilitiesSource, fetchSize int) *Router {
	return &Router{
		sessions:  sessions,
		caps:      caps,
		bookmarks: neo4j.NewBookmarkManager(neo4j.BookmarkManagerConfig{}),
		fetchSize: fetchSize,
		tracer:    otel.Tracer(tracerName),
	}
}

// Acquire opens a session for the given principal, database and
// execution verdict. The caller must close the session when done.
//
// The access mode is write unless the verdict allows readers; under
// server-side routing the mode is advisory and the cluster routes the
// statement itself. Impersonation is applied only when the database is an
// enterprise edition; on community editions the session runs under the
// service identity, which the impersonation probe has already vouched
// for.
func (r *Router) Acquire(ctx context.Context, principal auth.Principal, database string, reqs query.ExecutionRequirements) bolt.Session {
	config := neo4j.SessionConfig{
		AccessMode:      neo4j.AccessModeWrite,
		DatabaseName:    database,
		FetchSize:       r.fetchSize,
		BookmarkManager: r.bookmarks,
	}
	if reqs.Target == query.TargetReaders {
		config.AccessMode = neo4j.AccessModeRead
	}
	if principal.Impersonates() && r.caps.Snapshot(ctx).EnterpriseEdition {
		config.ImpersonatedUser = principal.Username()
	}
	return r.sessions.NewSession(ctx, config)
}

// Run executes one statement on the session, delivering records to the
// sink as they arrive.
//
// The transaction driving follows the verdict: implicit mode uses an
// auto-commit transaction (required by CALL {..} IN TRANSACTIONS and
// USING PERIODIC COMMIT); managed mode uses a read or write transaction
// function that the driver retries on transient failures. A retried
// transaction re-delivers its records; buffering sinks should implement
// [ResettableSink].
func (r *Router) Run(ctx context.Context, session bolt.Session, database string, q query.AnnotatedQuery, reqs query.ExecutionRequirements, sink Sink) (RunResult, error) {
	ctx, span := r.startSpan(ctx, "Run", database, q.Text)

	var out RunResult
	var err error
	switch {
	case reqs.Mode == query.ModeImplicit:
		out, err = runAutoCommit(ctx, session, q, sink)
	case reqs.Target == query.TargetReaders:
		out, err = runManaged(ctx, session.ExecuteRead, q, sink)
	default:
		out, err = runManaged(ctx, session.ExecuteWrite, q, sink)
	}
	finishSpan(span, err)
	if err != nil {
		return RunResult{}, classify(err, q.Text)
	}
	return out, nil
}

// Explain plans the statement without executing it and returns the
// plan's operator names, root first. It acquires its own read-mode
// session under the given principal.
//
// A Cypher compilation failure surfaces as an invalid-query error
// carrying the statement text; the evaluator relies on that to reject
// malformed statements before execution.
func (r *Router) Explain(ctx context.Context, principal auth.Principal, database, text string) ([]string, error) {
	ctx, span := r.startSpan(ctx, "Explain", database, text)

	session := r.Acquire(ctx, principal, database, query.ExecutionRequirements{
		Target: query.TargetReaders,
		Mode:   query.ModeManaged,
	})
	defer func() { _ = session.Close(ctx) }()

	v, err := session.ExecuteRead(ctx, func(tx bolt.Transaction) (any, error) {
		result, err := tx.Run(ctx, "EXPLAIN "+text, nil)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	finishSpan(span, err)
	if err != nil {
		return nil, classify(err, text)
	}

	summary, ok := v.(bolt.Summary)
	if !ok {
		return nil, gwerr.Internalf("unexpected result type %T from explain transaction", v)
	}
	return summary.PlanOperators, nil
}

func runAutoCommit(ctx context.Context, session bolt.Session, q query.AnnotatedQuery, sink Sink) (RunResult, error) {
	result, err := session.Run(ctx, q.Text, q.Parameters)
	if err != nil {
		return RunResult{}, err
	}
	return drain(ctx, result, sink)
}

type executeFunc func(ctx context.Context, work bolt.TransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)

func runManaged(ctx context.Context, execute executeFunc, q query.AnnotatedQuery, sink Sink) (RunResult, error) {
	v, err := execute(ctx, func(tx bolt.Transaction) (any, error) {
		if resettable, ok := sink.(ResettableSink); ok {
			resettable.Reset()
		}
		result, err := tx.Run(ctx, q.Text, q.Parameters)
		if err != nil {
			return nil, err
		}
		out, err := drain(ctx, result, sink)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return RunResult{}, err
	}
	out, ok := v.(RunResult)
	if !ok {
		return RunResult{}, gwerr.Internalf("unexpected result type %T from managed transaction", v)
	}
	return out, nil
}

// drain pulls every record through the sink, then consumes the summary.
func drain(ctx context.Context, result bolt.Result, sink Sink) (RunResult, error) {
	keys, err := result.Keys()
	if err != nil {
		return RunResult{}, err
	}
	for result.Next(ctx) {
		if sink == nil {
			continue
		}
		if err := sink.Record(result.Record()); err != nil {
			return RunResult{}, err
		}
	}
	if err := result.Err(); err != nil {
		return RunResult{}, err
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{Keys: keys, Summary: summary}, nil
}
