// Package capabilities discovers what the connected Neo4j deployment can
// do for the gateway: whether server-side routing is available and whether
// the database runs an enterprise edition (a prerequisite for user
// impersonation).
//
// Both facts are stable for the lifetime of the connection, so the probe
// runs once per process and publishes an immutable [Snapshot]. Probe
// failures never block request handling; they fall back to configured
// defaults and are logged.
package capabilities

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
)

const (
	editionQuery = "CALL dbms.components() YIELD name, edition RETURN name, edition"
	routingQuery = "CALL dbms.listConfig() YIELD name, value WHERE name = 'dbms.routing.enabled' RETURN value"
)

// Snapshot is the published view of the deployment's capabilities. It is
// immutable once published.
type Snapshot struct {
	// SSRAvailable reports whether server-side routing can be relied on,
	// making client-side read/write target classification unnecessary.
	SSRAvailable bool

	// EnterpriseEdition reports whether the database is an enterprise
	// edition. Impersonated sessions require enterprise; on community
	// editions impersonated principals run under the service identity.
	EnterpriseEdition bool
}

// Options configure the probe's server-side routing decision.
type Options struct {
	// RoutingScheme reports whether the driver URI uses a routing scheme
	// (neo4j:// or neo4j+s://). Without one the driver cannot follow
	// routing tables and SSR is never available, whatever the server says.
	RoutingScheme bool

	// ForceSSR skips the server probe and declares SSR available. Useful
	// against deployments where listConfig is restricted but routing is
	// known to be enabled.
	ForceSSR bool

	// DefaultSSR is the verdict used when the server probe fails.
	DefaultSSR bool
}

// Probe discovers and publishes the capabilities [Snapshot]. The probe
// runs at most once; concurrent callers of [Probe.Snapshot] block until
// the first run publishes. A Probe is safe for concurrent use.
type Probe struct {
	sessions bolt.SessionFactory
	opts     Options
	logger   *slog.Logger

	once     sync.Once
	snapshot Snapshot
}

// NewProbe creates a Probe. A nil logger defaults to [slog.Default].
func NewProbe(sessions bolt.SessionFactory, opts Options, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

// Snapshot returns the capabilities snapshot, probing the database on
// first call. The result is identical for every caller in the process.
func (p *Probe) Snapshot(ctx context.Context) Snapshot {
	p.once.Do(func() {
		p.snapshot = Snapshot{
			SSRAvailable:      p.probeSSR(ctx),
			EnterpriseEdition: p.probeEdition(ctx),
		}
		p.logger.InfoContext(ctx, "capabilities discovered",
			"ssr_available", p.snapshot.SSRAvailable,
			"enterprise_edition", p.snapshot.EnterpriseEdition,
		)
	})
	return p.snapshot
}

// probeSSR decides whether server-side routing is available. A non-routing
// driver scheme always disqualifies it; otherwise the server's
// dbms.routing.enabled setting is consulted unless ForceSSR shortcuts the
// round trip.
func (p *Probe) probeSSR(ctx context.Context) bool {
	if !p.opts.RoutingScheme {
		return false
	}
	if p.opts.ForceSSR {
		return true
	}

	session := p.sessions.NewSession(ctx, neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, routingQuery, nil)
	if err != nil {
		return p.ssrFallback(ctx, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return p.ssrFallback(ctx, err)
	}

	value, _ := record.Get("value")
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return p.opts.DefaultSSR
	}
}

// ssrFallback logs a failed routing probe and returns the configured
// default. listConfig requires admin privileges on some deployments, so a
// failure here is expected and non-fatal.
func (p *Probe) ssrFallback(ctx context.Context, err error) bool {
	p.logger.WarnContext(ctx, "capabilities: routing probe failed, using configured default",
		"default_ssr", p.opts.DefaultSSR,
		"error", err,
	)
	return p.opts.DefaultSSR
}

// probeEdition checks whether any reported component is an enterprise
// edition. On failure the database is assumed to be community, which
// disables impersonated sessions but keeps the gateway serving.
func (p *Probe) probeEdition(ctx context.Context) bool {
	session := p.sessions.NewSession(ctx, neo4j.SessionConfig{
		AccessMode: neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, editionQuery, nil)
	if err != nil {
		return p.editionFallback(ctx, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return p.editionFallback(ctx, err)
	}

	for _, record := range records {
		edition, _ := record.Get("edition")
		if s, ok := edition.(string); ok && strings.EqualFold(s, "enterprise") {
			return true
		}
	}
	return false
}

func (p *Probe) editionFallback(ctx context.Context, err error) bool {
	p.logger.WarnContext(ctx, "capabilities: edition probe failed, assuming community edition",
		"error", err,
	)
	return false
}
