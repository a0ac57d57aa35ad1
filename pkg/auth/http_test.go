package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StricklySoft/bolt-gateway/internal/neotest"
	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
)

// ===========================================================================
// Middleware Tests
// ===========================================================================

// TestMiddleware_MissingCredentials verifies the 401 challenge when no
// Authorization header is present.
func TestMiddleware_MissingCredentials(t *testing.T) {
	t.Parallel()
	authn, _ := newTestAuthenticator(t, &neotest.Session{})
	handler := Middleware(authn, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/db/neo4j/tx/commit", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="bolt-gateway"`, rec.Header().Get("WWW-Authenticate"))
}

// TestMiddleware_RejectedCredentials verifies the 401 challenge when the
// authenticator rejects the credentials.
func TestMiddleware_RejectedCredentials(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{
		OnRun: func(string, map[string]any) (bolt.Result, error) {
			return neotest.NewResult([]string{"result"}, []any{false}), nil
		},
	}
	authn, _ := newTestAuthenticator(t, session)
	handler := Middleware(authn, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run with rejected credentials")
	}))

	req := httptest.NewRequest(http.MethodPost, "/db/neo4j/tx/commit", nil)
	req.SetBasicAuth("alice", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="bolt-gateway"`, rec.Header().Get("WWW-Authenticate"))
}

// TestMiddleware_AcceptedCredentials verifies that an authenticated
// request reaches the handler carrying the principal in its context.
func TestMiddleware_AcceptedCredentials(t *testing.T) {
	t.Parallel()
	authn, _ := newTestAuthenticator(t, &neotest.Session{})

	var seen Principal
	var found bool
	handler := Middleware(authn, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, found = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/db/neo4j/tx/commit", nil)
	req.SetBasicAuth("neo4j", "s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, "neo4j", seen.Username())
	assert.False(t, seen.Impersonates())
}

// TestMiddleware_WipesImpersonatedCredentials verifies that the retained
// credential bytes of an impersonating principal are zeroed once the
// request completes.
func TestMiddleware_WipesImpersonatedCredentials(t *testing.T) {
	t.Parallel()
	session := &neotest.Session{
		OnRun: func(string, map[string]any) (bolt.Result, error) {
			return neotest.NewResult([]string{"result"}, []any{true}), nil
		},
	}
	authn, _ := newTestAuthenticator(t, session)

	var backing []byte
	handler := Middleware(authn, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		assert.True(t, principal.Impersonates())
		backing = principal.credentials
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/db/neo4j/tx/commit", nil)
	req.SetBasicAuth("alice", "wonderland")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, backing)
	for _, b := range backing {
		assert.Zero(t, b)
	}
}
