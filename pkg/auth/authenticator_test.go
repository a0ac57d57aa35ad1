package auth

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StricklySoft/bolt-gateway/internal/neotest"
	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
)

func newTestAuthenticator(t *testing.T, session *neotest.Session) (*Authenticator, *neotest.SessionFactory) {
	t.Helper()
	sessions := neotest.NewSessionFactory(session)
	authn, err := NewAuthenticator(sessions, "neo4j", "s3cret", nil)
	require.NoError(t, err)
	return authn, sessions
}

// ===========================================================================
// Authenticator Tests
// ===========================================================================

// TestAuthenticate_ServiceIdentity verifies that the configured service
// credentials resolve locally, without touching the database.
func TestAuthenticate_ServiceIdentity(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{}
	authn, _ := newTestAuthenticator(t, session)

	principal, err := authn.Authenticate(context.Background(), "neo4j", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "neo4j", principal.Username())
	assert.False(t, principal.Impersonates())
	assert.Empty(t, session.Calls)
}

// TestAuthenticate_ProbeSuccess verifies that unknown credentials are
// forwarded to the impersonation probe and that a SUCCESS verdict yields
// an impersonating principal.
func TestAuthenticate_ProbeSuccess(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{
		OnRun: func(string, map[string]any) (bolt.Result, error) {
			return neotest.NewResult([]string{"result"}, []any{true}), nil
		},
	}
	authn, sessions := newTestAuthenticator(t, session)

	principal, err := authn.Authenticate(context.Background(), "alice", "wonderland")
	require.NoError(t, err)

	assert.Equal(t, "alice", principal.Username())
	assert.True(t, principal.Impersonates())

	require.Len(t, session.Calls, 1)
	call := session.Calls[0]
	assert.Equal(t, impersonationProbe, call.Cypher)
	assert.Equal(t, map[string]any{"username": "alice", "password": "wonderland"}, call.Params)
	assert.False(t, call.Managed)

	assert.Equal(t, neo4j.AccessModeRead, sessions.LastConfig().AccessMode)
	assert.Equal(t, 1, session.CloseCount)
}

// TestAuthenticate_ProbeDenied verifies that a non-SUCCESS verdict maps
// to an authentication error.
func TestAuthenticate_ProbeDenied(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{
		OnRun: func(string, map[string]any) (bolt.Result, error) {
			return neotest.NewResult([]string{"result"}, []any{false}), nil
		},
	}
	authn, _ := newTestAuthenticator(t, session)

	_, err := authn.Authenticate(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, gwerr.IsAuthentication(err))
}

// TestAuthenticate_WrongServicePassword verifies that a bad password for
// the service user falls through to the probe rather than short-circuiting.
func TestAuthenticate_WrongServicePassword(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{
		OnRun: func(string, map[string]any) (bolt.Result, error) {
			return neotest.NewResult([]string{"result"}, []any{false}), nil
		},
	}
	authn, _ := newTestAuthenticator(t, session)

	_, err := authn.Authenticate(context.Background(), "neo4j", "not-the-password")
	require.Error(t, err)
	assert.True(t, gwerr.IsAuthentication(err))
	assert.Len(t, session.Calls, 1)
}

// TestAuthenticate_ProbeNotInstalled verifies that a Cypher syntax error
// from the probe reports the impersonation feature as unavailable.
func TestAuthenticate_ProbeNotInstalled(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{
		OnRun: func(string, map[string]any) (bolt.Result, error) {
			return nil, &neo4j.Neo4jError{
				Code: "Neo.ClientError.Statement.SyntaxError",
				Msg:  "Unknown function 'impersonation.authenticate'",
			}
		},
	}
	authn, _ := newTestAuthenticator(t, session)

	for i := 0; i < 2; i++ {
		_, err := authn.Authenticate(context.Background(), "alice", "wonderland")
		require.Error(t, err)

		var gw *gwerr.Error
		require.ErrorAs(t, err, &gw)
		assert.Equal(t, gwerr.CodeImpersonationUnavailable, gw.Code)
	}
}

// TestAuthenticate_ProbeTransportFailure verifies that a connectivity
// failure of the probe is reported as a transport error, not as a
// credential rejection.
func TestAuthenticate_ProbeTransportFailure(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{
		OnRun: func(string, map[string]any) (bolt.Result, error) {
			return nil, &neo4j.Neo4jError{
				Code: "Neo.TransientError.General.DatabaseUnavailable",
				Msg:  "database is unavailable",
			}
		},
	}
	authn, _ := newTestAuthenticator(t, session)

	_, err := authn.Authenticate(context.Background(), "alice", "wonderland")
	require.Error(t, err)
	assert.True(t, gwerr.IsTransport(err))
}
