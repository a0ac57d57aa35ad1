package router

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxStatementLength is the maximum number of runes of a Cypher statement
// included in span attributes. Statements may embed literals with
// sensitive data, so only a prefix is recorded.
const maxStatementLength = 100

// startSpan creates a span with standard database semantic attributes.
// It follows the OpenTelemetry semantic conventions for database client
// spans: https://opentelemetry.io/docs/specs/semconv/database/
func (r *Router) startSpan(ctx context.Context, operationName, database, cypher string) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, "bolt."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "neo4j"),
		attribute.String("db.name", database),
		attribute.String("db.statement", truncateStatement(cypher)),
	)
	return ctx, span
}

// finishSpan records an error on the span (if any) and ends it. If err is
// nil, the span status is set to OK.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// truncateStatement shortens a statement to at most maxStatementLength
// runes, appending an ellipsis when truncated.
func truncateStatement(cypher string) string {
	runes := []rune(cypher)
	if len(runes) <= maxStatementLength {
		return cypher
	}
	return string(runes[:maxStatementLength]) + "..."
}
