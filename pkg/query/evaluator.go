package query

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/StricklySoft/bolt-gateway/pkg/auth"
	"github.com/StricklySoft/bolt-gateway/pkg/capabilities"
)

// Explainer runs EXPLAIN for a statement on a read-mode session and
// returns the plan's operator names. Implemented by the session router;
// faked in unit tests.
//
// A Cypher compilation failure must surface as an invalid-query error
// carrying the normalized statement text; any other failure propagates as
// a database or transport error.
type Explainer interface {
	Explain(ctx context.Context, principal auth.Principal, database, text string) ([]string, error)
}

// CapabilitiesSource provides the process-wide capabilities snapshot.
// Implemented by [capabilities.Probe].
type CapabilitiesSource interface {
	Snapshot(ctx context.Context) capabilities.Snapshot
}

// Evaluator derives [ExecutionRequirements] for Cypher statements.
//
// Target verdicts from EXPLAIN are cached keyed by statement text: the
// verdict is a pure function of the query plan and the database
// capabilities, neither of which changes within a process lifetime. The
// cache is best-effort and invalidated only by restart. Entries are
// computed at most once per key even under concurrent first requests.
//
// An Evaluator is safe for concurrent use by multiple goroutines.
type Evaluator struct {
	caps      CapabilitiesSource
	explainer Explainer
	logger    *slog.Logger

	targets sync.Map // statement text -> Target
	group   singleflight.Group
}

// NewEvaluator creates an Evaluator. A nil logger defaults to
// [slog.Default].
func NewEvaluator(caps CapabilitiesSource, explainer Explainer, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		caps:      caps,
		explainer: explainer,
		logger:    logger,
	}
}

// Evaluate derives the execution requirements for a statement.
//
// The transaction mode is computed locally from the statement text. The
// target is AUTO when server-side routing is available; otherwise it is
// derived from the EXPLAIN plan, with the verdict cached per statement
// text. Evaluate blocks on the database only for the first sight of a
// statement on a non-SSR deployment.
func (e *Evaluator) Evaluate(ctx context.Context, principal auth.Principal, database string, q AnnotatedQuery) (ExecutionRequirements, error) {
	mode := TransactionModeFor(q.Text)

	if e.caps.Snapshot(ctx).SSRAvailable {
		return ExecutionRequirements{Target: TargetAuto, Mode: mode}, nil
	}

	if cached, ok := e.targets.Load(q.Text); ok {
		return ExecutionRequirements{Target: cached.(Target), Mode: mode}, nil
	}

	// Compute-once per statement text: concurrent first requests share a
	// single EXPLAIN round trip. Failed computations are not cached.
	v, err, _ := e.group.Do(q.Text, func() (any, error) {
		if cached, ok := e.targets.Load(q.Text); ok {
			return cached.(Target), nil
		}
		operators, err := e.explainer.Explain(ctx, principal, database, q.Text)
		if err != nil {
			return nil, err
		}
		target := classifyOperators(operators, e.logger)
		e.targets.Store(q.Text, target)
		return target, nil
	})
	if err != nil {
		return ExecutionRequirements{}, err
	}
	return ExecutionRequirements{Target: v.(Target), Mode: mode}, nil
}

// classifyOperators maps a plan's operator names onto a routing target.
// The plan is read-only exactly when every operator is in the known
// read-only set; updating and unrecognised operators both force writers.
func classifyOperators(operators []string, logger *slog.Logger) Target {
	for _, raw := range operators {
		name := normalizeOperator(raw)
		if name == "" {
			continue
		}
		if operatorUpdates(name) {
			if unknownOperator(name) {
				logger.Debug("unrecognised plan operator, routing to writers",
					"operator", name,
				)
			}
			return TargetWriters
		}
	}
	return TargetReaders
}
