// Package config provides configuration loading for the bolt-gateway.
// Values are resolved in layered priority order:
//
//	envDefault struct tags  (lowest priority)
//	YAML/JSON config file  (medium priority)
//	Environment variables  (highest priority)
//
// This mirrors how the gateway is deployed: sensible defaults are baked
// into the code, a config file provides environment-specific overrides,
// and env vars (from ConfigMaps or Secrets) take final precedence.
//
// # Usage
//
//	cfg := config.MustLoad[config.Config](
//	    config.New().WithEnvPrefix("BOLTGW").WithFile("gateway.yaml"),
//	)
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Default values for the gateway configuration.
const (
	// DefaultURI is the default Bolt endpoint. The "neo4j" scheme enables
	// driver-side routing; use "bolt" to pin a single server.
	DefaultURI = "neo4j://localhost:7687"

	// DefaultUsername is the default service identity user.
	DefaultUsername = "neo4j"

	// DefaultFetchSize is the record prefetch watermark: the driver
	// requests this many records per batch and re-requests at half the
	// watermark.
	DefaultFetchSize = 2000

	// DefaultListenAddr is the default HTTP listen address.
	DefaultListenAddr = ":8080"
)

// routingSchemes is the set of URI schemes under which the cluster can
// perform server-side routing. With "bolt" schemes the driver is pinned to
// a single server and SSR never applies.
var routingSchemes = map[string]bool{
	"neo4j":   true,
	"neo4j+s": true,
}

// validSchemes is the set of recognized Neo4j URI schemes.
var validSchemes = map[string]bool{
	"neo4j":   true,
	"neo4j+s": true,
	"bolt":    true,
	"bolt+s":  true,
}

// Secret is a string type that prevents accidental logging of sensitive
// values such as the driver password. Its [Secret.String] and
// [Secret.GoString] methods return a redacted placeholder. Use
// [Secret.Value] to retrieve the actual secret value.
type Secret string

// redacted is the placeholder string returned by Secret's string methods.
const redacted = "[REDACTED]"

// String returns "[REDACTED]" to prevent accidental logging of the secret.
func (s Secret) String() string {
	return redacted
}

// GoString returns "[REDACTED]" for fmt.Sprintf("%#v", secret) safety.
func (s Secret) GoString() string {
	return redacted
}

// Value returns the actual secret string. Handle the returned value with
// care; avoid logging, serializing, or storing it in plaintext.
func (s Secret) Value() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler, returning "[REDACTED]" to
// prevent the secret from appearing in JSON, YAML, or other text-based
// serialization formats.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Config holds the gateway configuration. The database name is not
// configured here: it comes from the request URL path on every call.
type Config struct {
	// URI is the Bolt endpoint (e.g., "neo4j://host:7687"). The scheme
	// determines whether the cluster may route queries itself: server-side
	// routing is only possible under "neo4j://" or "neo4j+s://".
	// Environment variable: DRIVER_URI
	URI string `env:"DRIVER_URI" envDefault:"neo4j://localhost:7687" yaml:"driver_uri"`

	// Username is the service identity used for the driver connection,
	// the capabilities probe, and the impersonation probe.
	// Environment variable: DRIVER_USERNAME
	Username string `env:"DRIVER_USERNAME" envDefault:"neo4j" yaml:"driver_username"`

	// Password is the service identity password. Uses the [Secret] type
	// to prevent accidental logging.
	// Environment variable: DRIVER_PASSWORD
	Password Secret `env:"DRIVER_PASSWORD" yaml:"-" required:"true"`

	// FetchSize is the record prefetch watermark handed to every session.
	// Default: 2000
	// Environment variable: FETCH_SIZE
	FetchSize int `env:"FETCH_SIZE" envDefault:"2000" yaml:"fetch_size"`

	// VerifyConnectivity makes startup fail when the database is
	// unreachable. When false, the gateway starts regardless and the
	// capabilities probe falls back to [Config.DefaultToSSR].
	// Environment variable: VERIFY_CONNECTIVITY
	VerifyConnectivity bool `env:"VERIFY_CONNECTIVITY" envDefault:"false" yaml:"verify_connectivity"`

	// DefaultToSSR is the server-side-routing fallback used when the
	// startup probe cannot reach the database.
	// Environment variable: DEFAULT_TO_SSR
	DefaultToSSR bool `env:"DEFAULT_TO_SSR" envDefault:"false" yaml:"default_to_ssr"`

	// ProfileSSR forces server-side routing on, skipping the probe
	// entirely. Use this when the deployment is known to run against a
	// cluster with dbms.routing.enabled.
	// Environment variable: PROFILE_SSR
	ProfileSSR bool `env:"PROFILE_SSR" envDefault:"false" yaml:"profile_ssr"`

	// ListenAddr is the HTTP listen address.
	// Default: ":8080"
	// Environment variable: LISTEN_ADDR
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080" yaml:"listen_addr"`

	// LogLevel is the minimum slog level ("debug", "info", "warn",
	// "error").
	// Environment variable: LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level"`
}

// Validate checks the configuration for invalid values. It is called
// automatically by [Loader.Load] via the [Validator] interface.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URI)
	if err != nil {
		return fmt.Errorf("config: driver URI is invalid: %w", err)
	}
	if !validSchemes[u.Scheme] {
		return fmt.Errorf("config: driver URI scheme must be neo4j://, neo4j+s://, bolt://, or bolt+s://, got %q", u.Scheme)
	}
	if c.Username == "" {
		return fmt.Errorf("config: driver username must not be empty")
	}
	if c.FetchSize < 1 {
		return fmt.Errorf("config: fetch_size must be >= 1, got %d", c.FetchSize)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}

// RoutingScheme reports whether the configured URI scheme supports
// cluster-side routing. Server-side routing can only be available under a
// routing scheme; under bolt:// the probe is skipped entirely.
func (c *Config) RoutingScheme() bool {
	u, err := url.Parse(c.URI)
	if err != nil {
		return false
	}
	return routingSchemes[u.Scheme]
}
