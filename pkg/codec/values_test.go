package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, v any) any {
	t.Helper()
	encoded, err := EncodeValue(v)
	require.NoError(t, err)
	return encoded
}

// ===========================================================================
// Value Encoding Tests
// ===========================================================================

// TestEncodeValue_Primitives verifies pass-through of JSON-native values.
func TestEncodeValue_Primitives(t *testing.T) {
	t.Parallel()

	assert.Nil(t, encode(t, nil))
	assert.Equal(t, true, encode(t, true))
	assert.Equal(t, "s", encode(t, "s"))
	assert.Equal(t, int64(42), encode(t, int64(42)))
	assert.Equal(t, 1.5, encode(t, 1.5))
}

// TestEncodeValue_Temporals verifies the tagged literals for every
// temporal type.
func TestEncodeValue_Temporals(t *testing.T) {
	t.Parallel()

	date := dbtype.Date(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, tagged(TagDate, "2024-06-01"), encode(t, date))

	clock := dbtype.Time(time.Date(0, 1, 1, 12, 34, 56, 789000000, time.FixedZone("", 2*3600)))
	assert.Equal(t, tagged(TagTime, "12:34:56.789+02:00"), encode(t, clock))

	localTime := dbtype.LocalTime(time.Date(0, 1, 1, 12, 34, 56, 0, time.UTC))
	assert.Equal(t, tagged(TagLocalTime, "12:34:56"), encode(t, localTime))

	localDateTime := dbtype.LocalDateTime(time.Date(2024, 6, 1, 12, 34, 56, 0, time.UTC))
	assert.Equal(t, tagged(TagLocalDateTime, "2024-06-01T12:34:56"), encode(t, localDateTime))
}

// TestEncodeValue_DateTime verifies the zoned datetime literal, with the
// zone id appended only for named zones.
func TestEncodeValue_DateTime(t *testing.T) {
	t.Parallel()

	utc := time.Date(2024, 6, 1, 12, 34, 56, 0, time.UTC)
	assert.Equal(t, tagged(TagDateTime, "2024-06-01T12:34:56Z"), encode(t, utc))

	offset := time.Date(2024, 6, 1, 12, 34, 56, 0, time.FixedZone("", 2*3600))
	assert.Equal(t, tagged(TagDateTime, "2024-06-01T12:34:56+02:00"), encode(t, offset))

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	zoned := time.Date(2024, 6, 1, 12, 34, 56, 0, berlin)
	assert.Equal(t, tagged(TagDateTime, "2024-06-01T12:34:56+02:00[Europe/Berlin]"), encode(t, zoned))
}

// TestEncodeValue_Durations verifies the Period tag for month-only
// values and the Duration tag otherwise.
func TestEncodeValue_Durations(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tagged(TagPeriod, "P1Y2M"), encode(t, dbtype.Duration{Months: 14}))
	assert.Equal(t, tagged(TagDuration, "PT1.5S"),
		encode(t, dbtype.Duration{Seconds: 1, Nanos: 500000000}))
	assert.Equal(t, tagged(TagDuration, "P1M2DT3S"),
		encode(t, dbtype.Duration{Months: 1, Days: 2, Seconds: 3}))
	assert.Equal(t, tagged(TagDuration, "PT0S"), encode(t, dbtype.Duration{}))

	// A days-only value takes the Duration tag even when it arrived as a
	// Period parameter; the driver value carries no trace of the tag.
	assert.Equal(t, tagged(TagDuration, "P3D"), encode(t, dbtype.Duration{Days: 3}))
}

// TestEncodeValue_PointsAndBytes verifies the WKT and hex literals.
func TestEncodeValue_PointsAndBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tagged(TagPoint, "SRID=4326;POINT(12.5 55.7)"),
		encode(t, dbtype.Point2D{SpatialRefId: 4326, X: 12.5, Y: 55.7}))
	assert.Equal(t, tagged(TagPoint, "SRID=9157;POINT(1 2 3)"),
		encode(t, dbtype.Point3D{SpatialRefId: 9157, X: 1, Y: 2, Z: 3}))
	assert.Equal(t, tagged(TagBytes, "deadbeef"),
		encode(t, []byte{0xde, 0xad, 0xbe, 0xef}))
}

// TestEncodeValue_Entities verifies the entity wrappers.
func TestEncodeValue_Entities(t *testing.T) {
	t.Parallel()

	node := dbtype.Node{
		Id:        1,
		ElementId: "4:abc:1",
		Labels:    []string{"Person"},
		Props:     map[string]any{"name": "Alice"},
	}
	assert.Equal(t, tagged(TagNode, map[string]any{
		"_labels": []string{"Person"},
		"_props":  map[string]any{"name": "Alice"},
	}), encode(t, node))

	rel := dbtype.Relationship{
		Id:        7,
		ElementId: "5:abc:7",
		Type:      "KNOWS",
		Props:     map[string]any{"since": int64(2020)},
	}
	assert.Equal(t, tagged(TagRelationship, map[string]any{
		"_type":  "KNOWS",
		"_props": map[string]any{"since": int64(2020)},
	}), encode(t, rel))
}

// TestEncodeValue_Path verifies the alternating traversal sequence,
// including a relationship traversed against its direction.
func TestEncodeValue_Path(t *testing.T) {
	t.Parallel()
	a := dbtype.Node{Id: 1, ElementId: "n1", Labels: []string{"A"}, Props: map[string]any{}}
	b := dbtype.Node{Id: 2, ElementId: "n2", Labels: []string{"B"}, Props: map[string]any{}}
	c := dbtype.Node{Id: 3, ElementId: "n3", Labels: []string{"C"}, Props: map[string]any{}}
	forward := dbtype.Relationship{
		Id: 10, ElementId: "r1", StartElementId: "n1", EndElementId: "n2",
		Type: "NEXT", Props: map[string]any{},
	}
	backward := dbtype.Relationship{
		Id: 11, ElementId: "r2", StartElementId: "n3", EndElementId: "n2",
		Type: "NEXT", Props: map[string]any{},
	}
	path := dbtype.Path{
		Nodes:         []dbtype.Node{a, b, c},
		Relationships: []dbtype.Relationship{forward, backward},
	}

	encoded := encode(t, path)
	wrapper, ok := encoded.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, TagPath, wrapper["$type"])

	sequence, ok := wrapper["_value"].([]any)
	require.True(t, ok)
	require.Len(t, sequence, 5)
	assert.Equal(t, encode(t, a), sequence[0])
	assert.Equal(t, encode(t, forward), sequence[1])
	assert.Equal(t, encode(t, b), sequence[2])
	assert.Equal(t, encode(t, backward), sequence[3])
	assert.Equal(t, encode(t, c), sequence[4])
}

// TestEncodeValue_Unsupported verifies the rejection of values outside
// the driver's type system.
func TestEncodeValue_Unsupported(t *testing.T) {
	t.Parallel()
	_, err := EncodeValue(struct{ X int }{1})
	assert.Error(t, err)
}

// TestEncodeDecode_RoundTrip verifies that encode and decode are
// inverses for tagged parameter values.
func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	literals := map[string]string{
		TagDate:          "2024-06-01",
		TagLocalTime:     "12:34:56.5",
		TagLocalDateTime: "2024-06-01T12:34:56",
		TagDuration:      "P1DT9001.5S",
		TagPeriod:        "P1Y2M",
		TagPoint:         "SRID=4326;POINT(12.5 55.7)",
		TagBytes:         "deadbeef",
	}
	for tag, literal := range literals {
		body, err := json.Marshal(map[string]any{"v": tagged(tag, literal)})
		require.NoError(t, err, "tag: %s", tag)

		params, err := DecodeParameters(body)
		require.NoError(t, err, "tag: %s", tag)

		encoded, err := EncodeValue(params["v"])
		require.NoError(t, err, "tag: %s", tag)
		assert.Equal(t, tagged(tag, literal), encoded, "tag: %s", tag)
	}
}
