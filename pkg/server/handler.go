package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/StricklySoft/bolt-gateway/pkg/auth"
	"github.com/StricklySoft/bolt-gateway/pkg/codec"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
	"github.com/StricklySoft/bolt-gateway/pkg/router"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
)

// handleCommit dispatches on the Accept header: ndjson selects the
// streaming view, everything else the legacy batch view.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		s.writeError(w, gwerr.Internal("no principal on request context"))
		return
	}
	database := r.PathValue("database")

	if strings.Contains(r.Header.Get("Accept"), contentTypeNDJSON) {
		s.handleStream(w, r, principal, database)
		return
	}
	s.handleBatch(w, r, principal, database)
}

// handleBatch runs a statement container and answers with the legacy
// results/notifications/errors document. Per-statement database failures
// land in the errors array; the response status stays 200.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, principal auth.Principal, database string) {
	container, err := codec.ParseContainer(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	results, err := s.runner.Run(r.Context(), principal, database, container)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body, err := renderContainer(results)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WarnContext(r.Context(), "failed to write batch response", "error", err)
	}
}

// handleStream runs a single statement and streams one JSON object per
// record as it arrives from the driver. An error after the stream has
// started cannot change the status; it terminates the stream with a
// final error object.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, principal auth.Principal, database string) {
	q, err := codec.ParseStatement(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	wrote := false

	sink := router.SinkFunc(func(record *neo4j.Record) error {
		obj := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			encoded, err := codec.EncodeValue(record.Values[i])
			if err != nil {
				return err
			}
			obj[key] = encoded
		}
		if !wrote {
			w.Header().Set("Content-Type", contentTypeNDJSON)
			w.WriteHeader(http.StatusOK)
			wrote = true
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	if _, err := s.runner.Stream(r.Context(), principal, database, q, sink); err != nil {
		if !wrote {
			s.writeError(w, err)
			return
		}
		gw := gwerr.FromError(err)
		_ = enc.Encode(map[string]any{
			"error":   errorTitle(gw.Code),
			"message": gw.Message,
		})
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	if !wrote {
		w.Header().Set("Content-Type", contentTypeNDJSON)
		w.WriteHeader(http.StatusOK)
	}
}

// writeError answers with the gateway's error body. The message of an
// invalid-query error is the normalized statement text.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	gw := gwerr.FromError(err)
	status := gw.HTTPStatus()

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   errorTitle(gw.Code),
		"message": gw.Message,
		"status":  status,
	})
}

func errorTitle(code gwerr.Code) string {
	switch code.Category() {
	case "QRY":
		return "Invalid query"
	case "PARAM":
		return "Invalid parameter"
	case "AUTH":
		return "Unauthorized"
	case "DB":
		return "Database error"
	case "TRANSPORT":
		return "Transport error"
	default:
		return "Internal error"
	}
}
