// Package codec maps between JSON and the Cypher type system.
//
// JSON has no native representation for most Cypher types (temporals,
// durations, points, byte arrays, graph entities), so the codec defines a
// tagged wrapper: a JSON object with a "$type" key naming the Cypher type
// and a "_value" key holding a string literal in a fixed format. The tag
// registry is closed; an unrecognised tag is rejected with a message
// enumerating the supported tags.
//
// The codec has two response views. The new format renders every extended
// type as its tagged wrapper, making encode and decode inverses. The
// legacy view mirrors the Neo4j HTTP transactional API: graph entities
// render as bare property maps in the row with entity identity in a
// parallel meta slot, temporals render as bare literals, and points as a
// coordinates/crs object.
//
// The codec operates directly on the driver's value representation
// (dbtype); records are not copied into an intermediate model.
package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
)

// Tag names of the extended-type wrapper.
const (
	TagDate          = "Date"
	TagTime          = "Time"
	TagLocalTime     = "LocalTime"
	TagDateTime      = "DateTime"
	TagLocalDateTime = "LocalDateTime"
	TagDuration      = "Duration"
	TagPeriod        = "Period"
	TagPoint         = "Point"
	TagBytes         = "Byte[]"
	TagNode          = "Node"
	TagRelationship  = "Relationship"
	TagPath          = "Path"
)

// statementPayload is the JSON shape of one statement in a request.
type statementPayload struct {
	Statement          string          `json:"statement"`
	Parameters         json.RawMessage `json:"parameters"`
	IncludeStats       bool            `json:"includeStats"`
	ResultDataContents []string        `json:"resultDataContents"`
}

// containerPayload is the JSON shape of a batch request body.
type containerPayload struct {
	Statements []statementPayload `json:"statements"`
}

// ParseContainer parses a batch request body ({"statements":[...]}) into
// a normalized statement container.
func ParseContainer(r io.Reader) (query.Container, error) {
	var payload containerPayload
	if err := decodeJSON(r, &payload); err != nil {
		return query.Container{}, err
	}
	container := query.Container{}
	for i, stmt := range payload.Statements {
		q, err := buildQuery(stmt)
		if err != nil {
			return query.Container{}, gwerr.FromError(err).
				WithDetail("statement_index", i)
		}
		container.Statements = append(container.Statements, q)
	}
	return container, nil
}

// ParseStatement parses a single-statement request body
// ({"statement":...,"parameters":...}) as used by the streaming endpoint.
func ParseStatement(r io.Reader) (query.AnnotatedQuery, error) {
	var payload statementPayload
	if err := decodeJSON(r, &payload); err != nil {
		return query.AnnotatedQuery{}, err
	}
	return buildQuery(payload)
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return gwerr.Wrap(err, gwerr.CodeInvalidParameter,
			"request body is not valid JSON")
	}
	return nil
}

// buildQuery normalizes one statement payload: decodes the parameters
// through the tag registry and resolves the requested result formats.
func buildQuery(payload statementPayload) (query.AnnotatedQuery, error) {
	params, err := DecodeParameters(payload.Parameters)
	if err != nil {
		return query.AnnotatedQuery{}, err
	}

	var formats []query.ResultFormat
	for _, name := range payload.ResultDataContents {
		format, err := query.ParseResultFormat(name)
		if err != nil {
			return query.AnnotatedQuery{}, gwerr.Wrap(err,
				gwerr.CodeInvalidParameter, "invalid resultDataContents entry")
		}
		formats = append(formats, format)
	}

	q, err := query.NewAnnotatedQuery(payload.Statement, params, payload.IncludeStats, formats)
	if err != nil {
		return query.AnnotatedQuery{}, gwerr.Wrap(err,
			gwerr.CodeInvalidParameter, "invalid statement")
	}
	return q, nil
}

// supportedTags lists the parameter tags accepted by the decoder, sorted,
// for the unknown-tag error message.
func supportedTags() string {
	tags := make([]string, 0, len(tagParsers))
	for tag := range tagParsers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return strings.Join(tags, ", ")
}

// unknownTag builds the rejection for an unrecognised $type value.
func unknownTag(tag string) error {
	return gwerr.Newf(gwerr.CodeUnknownTypeTag,
		"unknown $type tag %q (supported: %s)", tag, supportedTags())
}

// nonStringLiteral builds the rejection for a tagged wrapper whose
// _value is not a string.
func nonStringLiteral(tag string, value any) error {
	rendered, err := json.Marshal(value)
	if err != nil {
		rendered = []byte(fmt.Sprintf("%v", value))
	}
	return gwerr.Newf(gwerr.CodeInvalidTypeLiteral,
		"Value %s of $type %q has to be String-based", rendered, tag)
}
