// Package neotest provides in-memory fakes of the pkg/bolt interfaces
// for unit tests. The fakes record every session configuration and
// statement they see so tests can assert on routing and transaction
// driving without a database.
package neotest

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
)

// RunCall is one recorded statement execution.
type RunCall struct {
	Cypher string
	Params map[string]any

	// Managed reports whether the statement ran inside ExecuteRead or
	// ExecuteWrite rather than as an auto-commit Run.
	Managed bool
}

// SessionFactory dispenses a single shared [Session] and records the
// session configurations requested from it.
type SessionFactory struct {
	mu      sync.Mutex
	Session *Session
	Configs []neo4j.SessionConfig
}

// NewSessionFactory wraps the given fake session. A nil session gets a
// zero-value fake.
func NewSessionFactory(session *Session) *SessionFactory {
	if session == nil {
		session = &Session{}
	}
	return &SessionFactory{Session: session}
}

func (f *SessionFactory) NewSession(_ context.Context, config neo4j.SessionConfig) bolt.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Configs = append(f.Configs, config)
	return f.Session
}

// LastConfig returns the most recently requested session configuration.
func (f *SessionFactory) LastConfig() neo4j.SessionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Configs) == 0 {
		return neo4j.SessionConfig{}
	}
	return f.Configs[len(f.Configs)-1]
}

// Session is a fake bolt.Session. OnRun decides the outcome of every
// statement, whether auto-commit or inside a managed transaction.
// Managed transactions execute their work function inline, once.
type Session struct {
	// OnRun handles each statement. A nil OnRun yields an empty result.
	OnRun func(cypher string, params map[string]any) (bolt.Result, error)

	mu          sync.Mutex
	Calls       []RunCall
	ReadTxns    int
	WriteTxns   int
	CloseCount  int
	CloseErr    error
}

func (s *Session) Run(_ context.Context, cypher string, params map[string]any, _ ...func(*neo4j.TransactionConfig)) (bolt.Result, error) {
	return s.dispatch(cypher, params, false)
}

func (s *Session) ExecuteRead(_ context.Context, work bolt.TransactionWork, _ ...func(*neo4j.TransactionConfig)) (any, error) {
	s.mu.Lock()
	s.ReadTxns++
	s.mu.Unlock()
	return work(fakeTransaction{session: s})
}

func (s *Session) ExecuteWrite(_ context.Context, work bolt.TransactionWork, _ ...func(*neo4j.TransactionConfig)) (any, error) {
	s.mu.Lock()
	s.WriteTxns++
	s.mu.Unlock()
	return work(fakeTransaction{session: s})
}

func (s *Session) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCount++
	return s.CloseErr
}

func (s *Session) dispatch(cypher string, params map[string]any, managed bool) (bolt.Result, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, RunCall{Cypher: cypher, Params: params, Managed: managed})
	handler := s.OnRun
	s.mu.Unlock()

	if handler == nil {
		return &Result{}, nil
	}
	return handler(cypher, params)
}

type fakeTransaction struct {
	session *Session
}

func (t fakeTransaction) Run(_ context.Context, cypher string, params map[string]any) (bolt.Result, error) {
	return t.session.dispatch(cypher, params, true)
}

// Result is a fake bolt.Result backed by a fixed record slice.
type Result struct {
	Columns []string
	Records []*neo4j.Record
	Summary bolt.Summary

	// StreamErr terminates the stream after the records are exhausted.
	StreamErr error

	// ConsumeErr fails Consume.
	ConsumeErr error

	pos int
}

// NewResult builds a fake result. Each row must have one value per
// column.
func NewResult(columns []string, rows ...[]any) *Result {
	r := &Result{Columns: columns}
	for _, row := range rows {
		r.Records = append(r.Records, &neo4j.Record{
			Keys:   columns,
			Values: row,
		})
	}
	return r
}

func (r *Result) Keys() ([]string, error) {
	return r.Columns, nil
}

func (r *Result) Next(context.Context) bool {
	if r.pos < len(r.Records) {
		r.pos++
		return true
	}
	return false
}

func (r *Result) Record() *neo4j.Record {
	if r.pos == 0 || r.pos > len(r.Records) {
		return nil
	}
	return r.Records[r.pos-1]
}

func (r *Result) Err() error {
	if r.pos >= len(r.Records) {
		return r.StreamErr
	}
	return nil
}

func (r *Result) Single(ctx context.Context) (*neo4j.Record, error) {
	remaining := len(r.Records) - r.pos
	if remaining != 1 {
		return nil, fmt.Errorf("expected exactly one record, got %d", remaining)
	}
	r.pos = len(r.Records)
	return r.Records[len(r.Records)-1], nil
}

func (r *Result) Collect(context.Context) ([]*neo4j.Record, error) {
	if r.StreamErr != nil {
		return nil, r.StreamErr
	}
	records := r.Records[r.pos:]
	r.pos = len(r.Records)
	return records, nil
}

func (r *Result) Consume(context.Context) (bolt.Summary, error) {
	r.pos = len(r.Records)
	if r.ConsumeErr != nil {
		return bolt.Summary{}, r.ConsumeErr
	}
	return r.Summary, nil
}
