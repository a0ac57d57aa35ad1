//go:build integration

// Package containers provides testcontainers-go helpers for integration
// testing against a real Neo4j server.
//
// All helpers in this package are gated behind the "integration" build
// tag so they do not pull Docker-related dependencies into unit test
// builds. Use them exclusively from test files that carry the same tag:
//
//	//go:build integration
//
// [StartNeo4j] starts a Neo4j 5 Community container and returns a
// [Neo4jResult] containing the container handle, Bolt URL, and
// credentials:
//
//	result, err := containers.StartNeo4j(ctx)
//	if err != nil { ... }
//	defer result.Container.Terminate(ctx)
package containers

import (
	"context"
	"fmt"

	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
)

// ===========================================================================
// Neo4j
// ===========================================================================

// DefaultNeo4jImage is the container image used for Neo4j integration
// tests. Uses the Community Edition for license-free testing.
const DefaultNeo4jImage = "docker.io/neo4j:5-community"

// DefaultNeo4jPassword is the admin password for the Neo4j container.
// This is a deliberately simple credential suitable only for ephemeral
// test containers.
const DefaultNeo4jPassword = "testpassword"

// DefaultNeo4jUsername is the admin username for the Neo4j container.
// Neo4j Community Edition always uses "neo4j" as the initial username.
const DefaultNeo4jUsername = "neo4j"

// Neo4jResult holds a started Neo4j container and the connection details
// needed to connect to it. The caller is responsible for terminating
// the container when it is no longer needed:
//
//	defer result.Container.Terminate(ctx)
type Neo4jResult struct {
	// Container is the started Neo4j testcontainer. Use it to
	// retrieve mapped ports, inspect logs, or terminate the container.
	Container *tcneo4j.Neo4jContainer

	// BoltURL is the Bolt protocol URL (e.g., "neo4j://localhost:55681").
	// Use this with the Neo4j Go driver to connect.
	BoltURL string

	// Username is the admin username for the Neo4j container.
	Username string

	// Password is the admin password for the Neo4j container.
	Password string
}

// StartNeo4j starts a Neo4j 5 Community Edition container using
// testcontainers-go and returns a [Neo4jResult] containing the
// container handle, Bolt URL, and credentials.
//
// The container is configured with [DefaultNeo4jImage] and
// [DefaultNeo4jPassword]. Authentication is enabled to test
// credential-based connections.
//
// The caller must terminate the container when done:
//
//	result, err := containers.StartNeo4j(ctx)
//	if err != nil {
//	    return err
//	}
//	defer result.Container.Terminate(ctx)
//
// StartNeo4j returns an error if the container fails to start or if
// the Bolt URL cannot be retrieved. In the latter case, the container
// is terminated before returning.
func StartNeo4j(ctx context.Context) (*Neo4jResult, error) {
	container, err := tcneo4j.Run(ctx,
		DefaultNeo4jImage,
		tcneo4j.WithAdminPassword(DefaultNeo4jPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("containers: failed to start neo4j container: %w", err)
	}

	boltURL, err := container.BoltUrl(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("containers: failed to get neo4j bolt URL: %w", err)
	}

	return &Neo4jResult{
		Container: container,
		BoltURL:   boltURL,
		Username:  DefaultNeo4jUsername,
		Password:  DefaultNeo4jPassword,
	}, nil
}
