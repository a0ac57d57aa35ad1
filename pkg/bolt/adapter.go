package bolt

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Driver is the subset of neo4j.DriverWithContext the gateway needs. It
// is satisfied by neo4j.DriverWithContext; all method signatures follow
// the driver v5 API exactly.
type Driver interface {
	NewSession(ctx context.Context, config neo4j.SessionConfig) neo4j.SessionWithContext
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

var _ Driver = (neo4j.DriverWithContext)(nil)

// DriverSessions adapts a [Driver] to the [SessionFactory] interface.
type DriverSessions struct {
	driver Driver
}

// NewDriverSessions wraps a driver as a [SessionFactory].
func NewDriverSessions(driver Driver) *DriverSessions {
	return &DriverSessions{driver: driver}
}

func (ds *DriverSessions) NewSession(ctx context.Context, config neo4j.SessionConfig) Session {
	return driverSession{inner: ds.driver.NewSession(ctx, config)}
}

type driverSession struct {
	inner neo4j.SessionWithContext
}

func (s driverSession) Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*neo4j.TransactionConfig)) (Result, error) {
	result, err := s.inner.Run(ctx, cypher, params, configurers...)
	if err != nil {
		return nil, err
	}
	return driverResult{inner: result}, nil
}

func (s driverSession) ExecuteRead(ctx context.Context, work TransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error) {
	return s.inner.ExecuteRead(ctx, wrapWork(work), configurers...)
}

func (s driverSession) ExecuteWrite(ctx context.Context, work TransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error) {
	return s.inner.ExecuteWrite(ctx, wrapWork(work), configurers...)
}

func (s driverSession) Close(ctx context.Context) error {
	return s.inner.Close(ctx)
}

func wrapWork(work TransactionWork) neo4j.ManagedTransactionWork {
	return func(tx neo4j.ManagedTransaction) (any, error) {
		return work(driverTransaction{inner: tx})
	}
}

type driverTransaction struct {
	inner neo4j.ManagedTransaction
}

func (t driverTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	result, err := t.inner.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return driverResult{inner: result}, nil
}

type driverResult struct {
	inner neo4j.ResultWithContext
}

func (r driverResult) Keys() ([]string, error) {
	return r.inner.Keys()
}

func (r driverResult) Next(ctx context.Context) bool {
	return r.inner.Next(ctx)
}

func (r driverResult) Record() *neo4j.Record {
	return r.inner.Record()
}

func (r driverResult) Err() error {
	return r.inner.Err()
}

func (r driverResult) Single(ctx context.Context) (*neo4j.Record, error) {
	return r.inner.Single(ctx)
}

func (r driverResult) Collect(ctx context.Context) ([]*neo4j.Record, error) {
	return r.inner.Collect(ctx)
}

func (r driverResult) Consume(ctx context.Context) (Summary, error) {
	summary, err := r.inner.Consume(ctx)
	if err != nil {
		return Summary{}, err
	}
	return summarize(summary), nil
}
