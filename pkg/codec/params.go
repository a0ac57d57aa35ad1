package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
)

// tagParsers is the closed registry of extended-type tags accepted in
// request parameters. Each parser turns the string literal of a tagged
// wrapper into the driver's value representation.
var tagParsers = map[string]func(literal string) (any, error){
	TagDate:          parseDateLiteral,
	TagTime:          parseTimeLiteral,
	TagLocalTime:     parseLocalTimeLiteral,
	TagDateTime:      parseDateTimeLiteral,
	TagLocalDateTime: parseLocalDateTimeLiteral,
	TagDuration:      parseDurationLiteral,
	TagPeriod:        parseDurationLiteral,
	TagPoint:         parsePointLiteral,
	TagBytes:         parseBytesLiteral,
}

// DecodeParameters decodes the raw parameters object of a statement into
// driver values. Numbers are decoded distinguishing 64-bit integers from
// 64-bit floats; objects carrying a "$type" key go through the tag
// registry. A nil or absent parameters object decodes to nil.
func DecodeParameters(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, gwerr.Wrap(err, gwerr.CodeInvalidParameter,
			"parameters is not valid JSON")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, gwerr.InvalidParameter("parameters must be a JSON object")
	}

	out := make(map[string]any, len(obj))
	for name, value := range obj {
		decoded, err := decodeValue(value)
		if err != nil {
			return nil, gwerr.FromError(err).WithDetail("parameter", name)
		}
		out[name] = decoded
	}
	return out, nil
}

// decodeValue maps one JSON value onto the Cypher type system.
func decodeValue(v any) (any, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return value, nil
	case string:
		return value, nil
	case json.Number:
		return decodeNumber(value)
	case []any:
		list := make([]any, len(value))
		for i, element := range value {
			decoded, err := decodeValue(element)
			if err != nil {
				return nil, err
			}
			list[i] = decoded
		}
		return list, nil
	case map[string]any:
		if tag, tagged := value["$type"]; tagged {
			return decodeTagged(tag, value["_value"])
		}
		m := make(map[string]any, len(value))
		for key, entry := range value {
			decoded, err := decodeValue(entry)
			if err != nil {
				return nil, err
			}
			m[key] = decoded
		}
		return m, nil
	default:
		return nil, gwerr.InvalidParameterf("unsupported JSON value of type %T", v)
	}
}

// decodeNumber keeps 64-bit integers exact and falls back to a 64-bit
// float for everything else.
func decodeNumber(n json.Number) (any, error) {
	if !strings.ContainsAny(n.String(), ".eE") {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, gwerr.InvalidParameterf("number %s is out of range", n)
	}
	return f, nil
}

// decodeTagged resolves a tagged wrapper through the registry. The tag
// must be a known string and the literal must be a string.
func decodeTagged(tag, literal any) (any, error) {
	name, ok := tag.(string)
	if !ok {
		return nil, gwerr.InvalidParameterf("$type must be a string, got %T", tag)
	}
	parse, known := tagParsers[name]
	if !known {
		return nil, unknownTag(name)
	}
	s, ok := literal.(string)
	if !ok {
		return nil, nonStringLiteral(name, literal)
	}
	return parse(s)
}

func parseDateLiteral(s string) (any, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, badLiteral(TagDate, s, "YYYY-MM-DD")
	}
	return dbtype.Date(t), nil
}

func parseTimeLiteral(s string) (any, error) {
	t, err := time.Parse("15:04:05.999999999Z07:00", s)
	if err != nil {
		return nil, badLiteral(TagTime, s, "HH:MM:SS±HH:MM")
	}
	return dbtype.Time(t), nil
}

func parseLocalTimeLiteral(s string) (any, error) {
	t, err := time.Parse("15:04:05.999999999", s)
	if err != nil {
		return nil, badLiteral(TagLocalTime, s, "HH:MM:SS")
	}
	return dbtype.LocalTime(t), nil
}

// parseDateTimeLiteral parses an ISO offset datetime with an optional
// trailing [Region/City] zone id. When a zone id is present the instant
// from the offset is re-expressed in that zone.
func parseDateTimeLiteral(s string) (any, error) {
	base, zone := s, ""
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		if open < 0 {
			return nil, badLiteral(TagDateTime, s, "YYYY-MM-DDTHH:MM:SS±HH:MM[Region/City]")
		}
		base, zone = s[:open], s[open+1:len(s)-1]
	}

	t, err := time.Parse("2006-01-02T15:04:05.999999999Z07:00", base)
	if err != nil {
		return nil, badLiteral(TagDateTime, s, "YYYY-MM-DDTHH:MM:SS±HH:MM[Region/City]")
	}
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, gwerr.InvalidParameterf("unknown time zone %q in %s literal %q", zone, TagDateTime, s)
		}
		t = t.In(loc)
	}
	return t, nil
}

func parseLocalDateTimeLiteral(s string) (any, error) {
	t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
	if err != nil {
		return nil, badLiteral(TagLocalDateTime, s, "YYYY-MM-DDTHH:MM:SS")
	}
	return dbtype.LocalDateTime(t), nil
}

func parseDurationLiteral(s string) (any, error) {
	d, err := parseISODuration(s)
	if err != nil {
		return nil, gwerr.Wrap(err, gwerr.CodeInvalidTypeLiteral,
			"invalid duration literal "+s)
	}
	return d, nil
}

func parsePointLiteral(s string) (any, error) {
	point, err := parseWKTPoint(s)
	if err != nil {
		return nil, gwerr.Wrap(err, gwerr.CodeInvalidTypeLiteral,
			"invalid point literal "+s)
	}
	return point, nil
}

// parseBytesLiteral decodes pairs of hex digits, tolerating whitespace
// between them.
func parseBytesLiteral(s string) (any, error) {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
	data, err := hex.DecodeString(compact)
	if err != nil {
		return nil, badLiteral(TagBytes, s, "pairs of hex digits")
	}
	return data, nil
}

func badLiteral(tag, literal, want string) error {
	return gwerr.Newf(gwerr.CodeInvalidTypeLiteral,
		"invalid %s literal %q, expected %s", tag, literal, want)
}
