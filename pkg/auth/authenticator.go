package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/crypto/bcrypt"

	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
)

// impersonationProbe verifies a database user's credentials through the
// helper function installed alongside the gateway on the database. It runs
// under the service identity on a read session.
const impersonationProbe = "RETURN impersonation.authenticate($username, $password) = 'SUCCESS' AS result"

// Authenticator validates HTTP Basic credentials and produces a
// [Principal]. It is safe for concurrent use by multiple goroutines.
//
// Two identities are accepted:
//
//   - The configured service identity, compared against a bcrypt hash
//     computed at startup. bcrypt comparison is constant-time, so the
//     check leaks no timing information about the stored password.
//   - Any database user the impersonation probe resolves to SUCCESS.
//     The probe runs remotely over the existing connection pool; no new
//     Bolt connection is opened per request.
type Authenticator struct {
	sessions    bolt.SessionFactory
	serviceUser string
	serviceHash []byte
	logger      *slog.Logger

	// warnMissingProbe fires once per process when the impersonation
	// helper function is not installed on the database.
	warnMissingProbe sync.Once
}

// NewAuthenticator creates an Authenticator for the given service
// identity. The service password is hashed immediately and the plaintext
// is not retained. A nil logger defaults to [slog.Default].
func NewAuthenticator(sessions bolt.SessionFactory, serviceUser, servicePassword string, logger *slog.Logger) (*Authenticator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(servicePassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, gwerr.Wrap(err, gwerr.CodeInternalConfiguration,
			"auth: failed to hash service password")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		sessions:    sessions,
		serviceUser: serviceUser,
		serviceHash: hash,
		logger:      logger,
	}, nil
}

// Authenticate validates the given Basic credentials and returns the
// resulting principal.
//
// Credentials matching the service identity yield a service principal.
// Anything else is forwarded to the impersonation probe; on SUCCESS the
// returned principal impersonates that user and retains the password for
// the request lifetime (the caller must [Principal.Wipe] it afterwards).
// All rejections surface as authentication errors mapping to HTTP 401.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Principal, error) {
	if username == a.serviceUser &&
		bcrypt.CompareHashAndPassword(a.serviceHash, []byte(password)) == nil {
		return ServicePrincipal(username), nil
	}

	ok, err := a.probe(ctx, username, password)
	if err != nil {
		return Principal{}, err
	}
	if !ok {
		return Principal{}, gwerr.Unauthorized("invalid credentials")
	}
	return ImpersonatedPrincipal(username, password), nil
}

// probe runs the impersonation check on a read session under the service
// identity. A syntax error from the database means the helper function is
// not installed; that is logged once at warning level and reported as an
// authentication failure.
func (a *Authenticator) probe(ctx context.Context, username, password string) (bool, error) {
	session := a.sessions.NewSession(ctx, neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, impersonationProbe, map[string]any{
		"username": username,
		"password": password,
	})
	if err != nil {
		return false, a.probeError(ctx, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return false, a.probeError(ctx, err)
	}

	value, found := record.Get("result")
	granted, isBool := value.(bool)
	return found && isBool && granted, nil
}

// probeError classifies a failure of the impersonation probe. The missing
// helper function manifests as a Cypher syntax error.
func (a *Authenticator) probeError(ctx context.Context, err error) error {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && strings.Contains(neoErr.Code, "SyntaxError") {
		a.warnMissingProbe.Do(func() {
			a.logger.WarnContext(ctx, "auth: impersonation.authenticate is not installed on the database; only the service identity can authenticate",
				"neo4j_code", neoErr.Code,
			)
		})
		return gwerr.New(gwerr.CodeImpersonationUnavailable,
			"impersonated authentication is not available")
	}
	return gwerr.Wrap(err, gwerr.CodeTransport, "auth: impersonation probe failed")
}
