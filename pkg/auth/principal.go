// Package auth maps HTTP Basic credentials onto database identities for
// the bolt-gateway.
//
// The gateway holds a single Bolt connection pool opened with a service
// identity. Incoming credentials are resolved without opening a new Bolt
// connection per request: they either match the service identity (checked
// against a locally stored hash) or they are verified remotely through the
// impersonation helper function installed on the database, in which case
// subsequent sessions for the request impersonate that user.
//
// A [Principal] is owned by the request that authenticated it. Credential
// bytes retained for impersonation are wiped when the request completes.
package auth

// Principal is the authenticated identity attached to a request. It is
// immutable apart from [Principal.Wipe], which destroys the retained
// credential bytes at the end of the request lifecycle.
type Principal struct {
	username    string
	credentials []byte
}

// ServicePrincipal returns a principal for the gateway's own service
// identity. It retains no credentials: sessions for a service principal
// authenticate with the driver's connection-level credentials.
func ServicePrincipal(username string) Principal {
	return Principal{username: username}
}

// ImpersonatedPrincipal returns a principal for a database user verified
// through the impersonation probe. The password is retained for the
// lifetime of the request so it can be forwarded to the database, and
// must be destroyed with [Principal.Wipe] when the request completes.
func ImpersonatedPrincipal(username, password string) Principal {
	return Principal{
		username:    username,
		credentials: []byte(password),
	}
}

// Username returns the principal's username.
func (p Principal) Username() string {
	return p.username
}

// Impersonates reports whether sessions for this principal should act as
// the named database user rather than the service identity.
func (p Principal) Impersonates() bool {
	return p.credentials != nil
}

// Wipe zeroes the retained credential bytes. It is safe to call on any
// principal, including one that retains no credentials.
func (p *Principal) Wipe() {
	for i := range p.credentials {
		p.credentials[i] = 0
	}
	p.credentials = nil
}
