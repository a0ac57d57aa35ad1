// Package bolt defines the narrow driver surface the gateway consumes and
// the adapter that backs it with the official Neo4j Go driver.
//
// The driver's own interfaces (neo4j.SessionWithContext,
// neo4j.ResultWithContext, neo4j.ManagedTransaction) carry unexported
// methods and cannot be implemented outside the driver package. The
// gateway's session handling is its core logic, so the interfaces here
// re-declare the exported subset the gateway uses. Production code wraps a
// real driver with [NewDriverSessions]; unit tests substitute fakes.
package bolt

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SessionFactory creates Bolt sessions. Backed by [NewDriverSessions] in
// production and by fakes in unit tests.
type SessionFactory interface {
	NewSession(ctx context.Context, config neo4j.SessionConfig) Session
}

// Session is one logical Bolt session. Sessions are not safe for
// concurrent use; each request acquires its own and closes it when done.
type Session interface {
	// Run executes an auto-commit transaction. The driver does not retry
	// auto-commit transactions.
	Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*neo4j.TransactionConfig)) (Result, error)

	// ExecuteRead runs the work function in a managed read transaction,
	// retried by the driver on transient failures.
	ExecuteRead(ctx context.Context, work TransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)

	// ExecuteWrite runs the work function in a managed write transaction,
	// retried by the driver on transient failures.
	ExecuteWrite(ctx context.Context, work TransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)

	// Close releases the session back to the pool.
	Close(ctx context.Context) error
}

// TransactionWork is a unit of work executed inside a managed
// transaction. It may run more than once when the driver retries.
type TransactionWork func(tx Transaction) (any, error)

// Transaction is the statement-running surface of a managed transaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// Result is a statement's record stream. Mirrors neo4j.ResultWithContext
// except that Consume returns the adapter's eager [Summary].
type Result interface {
	// Keys returns the column names of the result.
	Keys() ([]string, error)

	// Next advances to the next record, fetching from the server as
	// needed. It returns false at the end of the stream or on error.
	Next(ctx context.Context) bool

	// Record returns the current record after a successful Next.
	Record() *neo4j.Record

	// Err returns the error that terminated the stream, if any.
	Err() error

	// Single consumes the stream and returns its sole record, erroring
	// when the stream holds zero or more than one record.
	Single(ctx context.Context) (*neo4j.Record, error)

	// Collect consumes the stream and returns all remaining records.
	Collect(ctx context.Context) ([]*neo4j.Record, error)

	// Consume discards unread records and returns the result summary.
	Consume(ctx context.Context) (Summary, error)
}
