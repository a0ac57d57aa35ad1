package router

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
)

// classify converts a driver failure into a gateway error. text is the
// normalized statement the failure belongs to; an invalid-query error
// carries it as its message, per the HTTP error contract.
//
// Server-reported failures become database errors, annotated with the
// server's status code so callers can surface it. Deadline and
// connectivity failures become transport errors. Errors already
// classified pass through unchanged, including sink errors that aborted
// the statement.
func classify(err error, text string) error {
	if err == nil {
		return nil
	}

	var gw *gwerr.Error
	if errors.As(err, &gw) {
		return err
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if strings.Contains(neoErr.Code, "SyntaxError") {
			return gwerr.InvalidQuery(text)
		}
		return gwerr.Wrap(err, gwerr.CodeDatabase, neoErr.Msg).
			WithDetail("neo4j_code", neoErr.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return gwerr.Wrap(err, gwerr.CodeTransportTimeout,
			"database did not respond before the deadline")
	}
	if neo4j.IsConnectivityError(err) {
		return gwerr.Wrap(err, gwerr.CodeTransport,
			"lost connection to the database")
	}
	return gwerr.Wrap(err, gwerr.CodeTransport, "database request failed")
}
