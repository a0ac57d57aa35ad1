package codec

import (
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
)

// EncodeValue renders a driver value in the new format: primitives as
// their JSON counterparts, everything else as a tagged wrapper. Encode
// and decode are inverses for every type the parameter decoder accepts.
func EncodeValue(v any) (any, error) {
	switch value := v.(type) {
	case nil, bool, string, int64, float64, int, int32:
		return value, nil
	case []any:
		list := make([]any, len(value))
		for i, element := range value {
			encoded, err := EncodeValue(element)
			if err != nil {
				return nil, err
			}
			list[i] = encoded
		}
		return list, nil
	case map[string]any:
		m := make(map[string]any, len(value))
		for key, entry := range value {
			encoded, err := EncodeValue(entry)
			if err != nil {
				return nil, err
			}
			m[key] = encoded
		}
		return m, nil
	case []byte:
		return tagged(TagBytes, encodeHex(value)), nil
	case dbtype.Date:
		return tagged(TagDate, time.Time(value).Format("2006-01-02")), nil
	case dbtype.Time:
		return tagged(TagTime, time.Time(value).Format("15:04:05.999999999Z07:00")), nil
	case dbtype.LocalTime:
		return tagged(TagLocalTime, time.Time(value).Format("15:04:05.999999999")), nil
	case time.Time:
		return tagged(TagDateTime, formatDateTime(value)), nil
	case dbtype.LocalDateTime:
		return tagged(TagLocalDateTime, time.Time(value).Format("2006-01-02T15:04:05.999999999")), nil
	case dbtype.Duration:
		return encodeDuration(value), nil
	case dbtype.Point2D:
		return tagged(TagPoint, formatWKTPoint(value.SpatialRefId, value.X, value.Y)), nil
	case dbtype.Point3D:
		return tagged(TagPoint, formatWKTPoint(value.SpatialRefId, value.X, value.Y, value.Z)), nil
	case dbtype.Node:
		return encodeNode(value)
	case dbtype.Relationship:
		return encodeRelationship(value)
	case dbtype.Path:
		return encodePath(value)
	default:
		return nil, gwerr.Internalf("cannot encode driver value of type %T", v)
	}
}

// tagged wraps a literal in the extended-type envelope.
func tagged(tag string, literal any) map[string]any {
	return map[string]any{
		"$type":  tag,
		"_value": literal,
	}
}

// encodeDuration picks the tightest tag for a driver duration: a pure
// month-count becomes a Period, a pure second-count a Duration, and a
// mixed value a Duration carrying the full ISO form. The driver carries
// no record of the parameter tag a value arrived under, so a Period
// parameter with a day component (such as "P3D") re-encodes as a
// Duration.
func encodeDuration(d dbtype.Duration) map[string]any {
	monthsOnly := d.Months != 0 && d.Days == 0 && d.Seconds == 0 && d.Nanos == 0
	if monthsOnly {
		return tagged(TagPeriod, formatISODuration(d))
	}
	return tagged(TagDuration, formatISODuration(d))
}

// formatDateTime renders a zoned datetime, appending the [Region/City]
// zone id when the value carries a named zone rather than a bare offset.
func formatDateTime(t time.Time) string {
	literal := t.Format("2006-01-02T15:04:05.999999999Z07:00")
	if name := t.Location().String(); strings.Contains(name, "/") {
		literal += "[" + name + "]"
	}
	return literal
}

func encodeNode(node dbtype.Node) (any, error) {
	props, err := EncodeValue(node.Props)
	if err != nil {
		return nil, err
	}
	return tagged(TagNode, map[string]any{
		"_labels": node.Labels,
		"_props":  props,
	}), nil
}

func encodeRelationship(rel dbtype.Relationship) (any, error) {
	props, err := EncodeValue(rel.Props)
	if err != nil {
		return nil, err
	}
	return tagged(TagRelationship, map[string]any{
		"_type":  rel.Type,
		"_props": props,
	}), nil
}

// encodePath renders a path as the alternating node, relationship, node,
// ... sequence derived from its segments.
func encodePath(path dbtype.Path) (any, error) {
	var sequence []any
	for _, entity := range pathSequence(path) {
		encoded, err := EncodeValue(entity)
		if err != nil {
			return nil, err
		}
		sequence = append(sequence, encoded)
	}
	return tagged(TagPath, sequence), nil
}

// pathSequence reconstructs the traversal order of a path. The driver
// exposes the distinct nodes and the relationships in path order; each
// relationship may be traversed in either direction, so the next node is
// resolved by element id.
func pathSequence(path dbtype.Path) []any {
	if len(path.Nodes) == 0 {
		return nil
	}
	byElementId := make(map[string]dbtype.Node, len(path.Nodes))
	for _, node := range path.Nodes {
		byElementId[node.ElementId] = node
	}

	current := path.Nodes[0]
	sequence := []any{current}
	for _, rel := range path.Relationships {
		next := rel.EndElementId
		if next == current.ElementId {
			next = rel.StartElementId
		}
		sequence = append(sequence, rel)
		current = byElementId[next]
		sequence = append(sequence, current)
	}
	return sequence
}

// encodeHex renders bytes as pairs of hex digits.
func encodeHex(data []byte) string {
	const digits = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(data) * 2)
	for _, octet := range data {
		b.WriteByte(digits[octet>>4])
		b.WriteByte(digits[octet&0x0f])
	}
	return b.String()
}
