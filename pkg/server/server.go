// Package server exposes the gateway over HTTP.
//
// One endpoint carries all query traffic:
//
//	POST /db/{database}/tx/commit
//
// The Accept header selects the response shape. application/json treats
// the body as a statement container and answers with the legacy
// results/notifications/errors document; application/x-ndjson treats the
// body as a single statement and streams one JSON object per record.
// HTTP Basic credentials are required on every call.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/StricklySoft/bolt-gateway/pkg/auth"
	"github.com/StricklySoft/bolt-gateway/pkg/executor"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
	"github.com/StricklySoft/bolt-gateway/pkg/router"
)

// Runner executes statements on behalf of a request. Implemented by
// [executor.Executor].
type Runner interface {
	Run(ctx context.Context, principal auth.Principal, database string, container query.Container) (executor.ResultContainer, error)
	Stream(ctx context.Context, principal auth.Principal, database string, q query.AnnotatedQuery, sink router.Sink) (router.RunResult, error)
}

// Server is the HTTP front of the gateway. Create it with [New] and
// mount [Server.Handler].
type Server struct {
	runner Runner
	authn  *auth.Authenticator
	logger *slog.Logger
}

// New creates a Server. A nil logger defaults to [slog.Default].
func New(runner Runner, authn *auth.Authenticator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner: runner,
		authn:  authn,
		logger: logger,
	}
}

// Handler returns the fully assembled handler chain: request id
// tagging, access logging, Basic authentication, then routing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /db/{database}/tx/commit", s.handleCommit)

	var handler http.Handler = mux
	handler = auth.Middleware(s.authn, s.logger)(handler)
	handler = s.accessLog(handler)
	handler = requestID(handler)
	return handler
}

// requestIDHeader carries the per-request correlation id.
const requestIDHeader = "X-Request-Id"

// requestID assigns each request a correlation id, honouring one the
// client already sent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(contextWithRequestID(r.Context(), id)))
	})
}

// accessLog logs one line per completed request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		id, _ := requestIDFromContext(r.Context())
		s.logger.InfoContext(r.Context(), "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status(),
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

type requestIDKey struct{}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// statusRecorder captures the response status for access logging while
// forwarding Flush so the streaming path keeps working through the
// middleware chain.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.code == 0 {
		r.code = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (r *statusRecorder) status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}
