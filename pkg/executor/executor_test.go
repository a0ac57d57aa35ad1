package executor

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StricklySoft/bolt-gateway/internal/neotest"
	"github.com/StricklySoft/bolt-gateway/pkg/auth"
	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
	"github.com/StricklySoft/bolt-gateway/pkg/router"
)

// statementOutcome scripts the fake router's behaviour for one statement
// text.
type statementOutcome struct {
	rows    [][]any
	keys    []string
	summary bolt.Summary
	err     error
}

// fakeEvaluator returns a fixed verdict for every statement.
type fakeEvaluator struct {
	reqs query.ExecutionRequirements
	err  error
}

func (f fakeEvaluator) Evaluate(context.Context, auth.Principal, string, query.AnnotatedQuery) (query.ExecutionRequirements, error) {
	return f.reqs, f.err
}

// fakeRouter replays scripted outcomes per statement text and records
// the order statements ran in.
type fakeRouter struct {
	outcomes map[string]statementOutcome
	session  *neotest.Session
	ran      []string
}

func (f *fakeRouter) Acquire(context.Context, auth.Principal, string, query.ExecutionRequirements) bolt.Session {
	if f.session == nil {
		f.session = &neotest.Session{}
	}
	return f.session
}

func (f *fakeRouter) Run(_ context.Context, _ bolt.Session, _ string, q query.AnnotatedQuery, _ query.ExecutionRequirements, sink router.Sink) (router.RunResult, error) {
	f.ran = append(f.ran, q.Text)
	outcome := f.outcomes[q.Text]
	if outcome.err != nil {
		return router.RunResult{}, outcome.err
	}
	for _, row := range outcome.rows {
		if err := sink.Record(&neo4j.Record{Keys: outcome.keys, Values: row}); err != nil {
			return router.RunResult{}, err
		}
	}
	return router.RunResult{Keys: outcome.keys, Summary: outcome.summary}, nil
}

func batch(t *testing.T, texts ...string) query.Container {
	t.Helper()
	var container query.Container
	for _, text := range texts {
		q, err := query.NewAnnotatedQuery(text, nil, false, nil)
		require.NoError(t, err)
		container.Statements = append(container.Statements, q)
	}
	return container
}

func note(code string, offset int) bolt.Notification {
	return bolt.Notification{
		Code:     code,
		Position: &bolt.InputPosition{Offset: offset},
	}
}

// ===========================================================================
// Run Tests
// ===========================================================================

// TestRun_SequentialOrder verifies that statements run in submission
// order and that each result carries its records.
func TestRun_SequentialOrder(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{outcomes: map[string]statementOutcome{
		"RETURN 1": {keys: []string{"a"}, rows: [][]any{{int64(1)}}},
		"RETURN 2": {keys: []string{"b"}, rows: [][]any{{int64(2)}, {int64(3)}}},
	}}
	e := New(fakeEvaluator{}, rt, nil)

	out, err := e.Run(context.Background(), auth.ServicePrincipal("svc"), "neo4j",
		batch(t, "RETURN 1", "RETURN 2"))
	require.NoError(t, err)

	assert.Equal(t, []string{"RETURN 1", "RETURN 2"}, rt.ran)
	require.Len(t, out.Results, 2)
	assert.Equal(t, []string{"a"}, out.Results[0].Keys)
	require.Len(t, out.Results[0].Records, 1)
	assert.Equal(t, []string{"b"}, out.Results[1].Keys)
	require.Len(t, out.Results[1].Records, 2)
	assert.False(t, out.Results[0].Failed())
}

// TestRun_DatabaseErrorContinues verifies the best-effort contract: a
// database failure is captured in its slot and later statements still
// run.
func TestRun_DatabaseErrorContinues(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{outcomes: map[string]statementOutcome{
		"RETURN 1":   {keys: []string{"a"}},
		"CREATE (n)": {err: gwerr.Database("constraint violated").WithDetail("neo4j_code", "Neo.ClientError.Schema.ConstraintValidationFailed")},
		"RETURN 2":   {keys: []string{"b"}},
	}}
	e := New(fakeEvaluator{}, rt, nil)

	out, err := e.Run(context.Background(), auth.ServicePrincipal("svc"), "neo4j",
		batch(t, "RETURN 1", "CREATE (n)", "RETURN 2"))
	require.NoError(t, err)

	assert.Equal(t, []string{"RETURN 1", "CREATE (n)", "RETURN 2"}, rt.ran)
	require.Len(t, out.Results, 3)
	assert.False(t, out.Results[0].Failed())
	require.True(t, out.Results[1].Failed())
	assert.Equal(t, gwerr.CodeDatabase, out.Results[1].Err.Code)
	assert.False(t, out.Results[2].Failed())
}

// TestRun_OtherErrorAborts verifies that a non-database failure stops
// the batch immediately.
func TestRun_OtherErrorAborts(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{outcomes: map[string]statementOutcome{
		"RETURN 1": {err: gwerr.Transport("connection lost")},
		"RETURN 2": {keys: []string{"b"}},
	}}
	e := New(fakeEvaluator{}, rt, nil)

	_, err := e.Run(context.Background(), auth.ServicePrincipal("svc"), "neo4j",
		batch(t, "RETURN 1", "RETURN 2"))
	require.Error(t, err)
	assert.True(t, gwerr.IsTransport(err))
	assert.Equal(t, []string{"RETURN 1"}, rt.ran)
}

// TestRun_EvaluationErrorAborts verifies that an invalid statement stops
// the batch before any session work.
func TestRun_EvaluationErrorAborts(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{}
	e := New(fakeEvaluator{err: gwerr.InvalidQuery("MTCH (n)")}, rt, nil)

	_, err := e.Run(context.Background(), auth.ServicePrincipal("svc"), "neo4j",
		batch(t, "MTCH (n)"))
	require.Error(t, err)
	assert.True(t, gwerr.IsInvalidQuery(err))
	assert.Empty(t, rt.ran)
}

// TestRun_NotificationDeduplication verifies aggregation across the
// batch with first-occurrence-wins deduplication by code and position.
func TestRun_NotificationDeduplication(t *testing.T) {
	t.Parallel()
	cartesian := note("Neo.ClientNotification.Statement.CartesianProduct", 10)
	deprecated := note("Neo.ClientNotification.Statement.FeatureDeprecationWarning", 10)
	elsewhere := note("Neo.ClientNotification.Statement.CartesianProduct", 42)

	rt := &fakeRouter{outcomes: map[string]statementOutcome{
		"RETURN 1": {summary: bolt.Summary{Notifications: []bolt.Notification{cartesian, deprecated}}},
		"RETURN 2": {summary: bolt.Summary{Notifications: []bolt.Notification{cartesian, elsewhere}}},
	}}
	e := New(fakeEvaluator{}, rt, nil)

	out, err := e.Run(context.Background(), auth.ServicePrincipal("svc"), "neo4j",
		batch(t, "RETURN 1", "RETURN 2"))
	require.NoError(t, err)

	assert.Equal(t, []bolt.Notification{cartesian, deprecated, elsewhere}, out.Notifications)
}

// TestRun_CancelledContext verifies that cancellation aborts before the
// next statement starts.
func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{}
	e := New(fakeEvaluator{}, rt, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, auth.ServicePrincipal("svc"), "neo4j", batch(t, "RETURN 1"))
	require.Error(t, err)
	assert.True(t, gwerr.IsTransport(err))
	assert.Empty(t, rt.ran)
}

// TestRun_ClosesSessions verifies that every statement's session is
// closed, on success and on failure.
func TestRun_ClosesSessions(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{
		session: &neotest.Session{},
		outcomes: map[string]statementOutcome{
			"RETURN 1":   {keys: []string{"a"}},
			"CREATE (n)": {err: gwerr.Database("boom")},
		},
	}
	e := New(fakeEvaluator{}, rt, nil)

	_, err := e.Run(context.Background(), auth.ServicePrincipal("svc"), "neo4j",
		batch(t, "RETURN 1", "CREATE (n)"))
	require.NoError(t, err)
	assert.Equal(t, 2, rt.session.CloseCount)
}

// ===========================================================================
// Stream Tests
// ===========================================================================

// TestStream verifies sink delivery and session cleanup for the
// streaming path.
func TestStream(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{
		session: &neotest.Session{},
		outcomes: map[string]statementOutcome{
			"MATCH (n) RETURN n": {keys: []string{"n"}, rows: [][]any{{int64(1)}, {int64(2)}}},
		},
	}
	e := New(fakeEvaluator{}, rt, nil)

	q, err := query.NewAnnotatedQuery("MATCH (n) RETURN n", nil, false, nil)
	require.NoError(t, err)

	var values []any
	out, err := e.Stream(context.Background(), auth.ServicePrincipal("svc"), "neo4j", q,
		router.SinkFunc(func(record *neo4j.Record) error {
			values = append(values, record.Values[0])
			return nil
		}))
	require.NoError(t, err)

	assert.Equal(t, []string{"n"}, out.Keys)
	assert.Equal(t, []any{int64(1), int64(2)}, values)
	assert.Equal(t, 1, rt.session.CloseCount)
}

// TestStream_EvaluationError verifies that a failed evaluation opens no
// session.
func TestStream_EvaluationError(t *testing.T) {
	t.Parallel()
	rt := &fakeRouter{}
	e := New(fakeEvaluator{err: gwerr.InvalidQuery("MTCH")}, rt, nil)

	q, err := query.NewAnnotatedQuery("MTCH", nil, false, nil)
	require.NoError(t, err)

	_, err = e.Stream(context.Background(), auth.ServicePrincipal("svc"), "neo4j", q, nil)
	require.Error(t, err)
	assert.Nil(t, rt.session)
	assert.Empty(t, rt.ran)
}

// ===========================================================================
// Record Buffer Tests
// ===========================================================================

// TestRecordBuffer_Reset verifies that a retried managed transaction
// does not duplicate buffered records.
func TestRecordBuffer_Reset(t *testing.T) {
	t.Parallel()
	buffer := &recordBuffer{}
	require.NoError(t, buffer.Record(&neo4j.Record{Values: []any{int64(1)}}))
	require.NoError(t, buffer.Record(&neo4j.Record{Values: []any{int64(2)}}))

	buffer.Reset()
	require.NoError(t, buffer.Record(&neo4j.Record{Values: []any{int64(3)}}))

	require.Len(t, buffer.records, 1)
	assert.Equal(t, []any{int64(3)}, buffer.records[0].Values)
}
