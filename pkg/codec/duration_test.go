package codec

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================================================================
// ISO Duration Tests
// ===========================================================================

// TestParseISODuration verifies the component grammar.
func TestParseISODuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		literal string
		want    dbtype.Duration
	}{
		{"P1Y", dbtype.Duration{Months: 12}},
		{"P1Y2M", dbtype.Duration{Months: 14}},
		{"P2W", dbtype.Duration{Days: 14}},
		{"P3D", dbtype.Duration{Days: 3}},
		{"PT2H", dbtype.Duration{Seconds: 7200}},
		{"PT30M", dbtype.Duration{Seconds: 1800}},
		{"PT1.5S", dbtype.Duration{Seconds: 1, Nanos: 500000000}},
		{"PT0.000000001S", dbtype.Duration{Nanos: 1}},
		{"P1Y2M3DT4H5M6.7S", dbtype.Duration{Months: 14, Days: 3, Seconds: 4*3600 + 5*60 + 6, Nanos: 700000000}},
		{"p1y2m", dbtype.Duration{Months: 14}},
		{"-PT1.5S", dbtype.Duration{Seconds: -1, Nanos: -500000000}},
		{"-P1M2D", dbtype.Duration{Months: -1, Days: -2}},
	}
	for _, tc := range tests {
		got, err := parseISODuration(tc.literal)
		require.NoError(t, err, "literal: %s", tc.literal)
		assert.Equal(t, tc.want, got, "literal: %s", tc.literal)
	}
}

// TestParseISODuration_Rejections verifies the grammar's error cases.
func TestParseISODuration_Rejections(t *testing.T) {
	t.Parallel()

	for _, literal := range []string{
		"",
		"P",
		"1Y",
		"P1X",
		"PT1X",
		"P1.5Y",
		"PT1.5M",
		"PT1HT2M",
		"P1Y2",
	} {
		_, err := parseISODuration(literal)
		assert.Error(t, err, "literal: %q", literal)
	}
}

// TestFormatISODuration verifies rendering, including the zero value
// and fraction trimming.
func TestFormatISODuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    dbtype.Duration
		want string
	}{
		{dbtype.Duration{}, "PT0S"},
		{dbtype.Duration{Months: 14}, "P1Y2M"},
		{dbtype.Duration{Months: 12}, "P1Y"},
		{dbtype.Duration{Months: 2}, "P2M"},
		{dbtype.Duration{Days: 3}, "P3D"},
		{dbtype.Duration{Seconds: 90}, "PT90S"},
		{dbtype.Duration{Seconds: 1, Nanos: 500000000}, "PT1.5S"},
		{dbtype.Duration{Nanos: 1}, "PT0.000000001S"},
		{dbtype.Duration{Seconds: -1, Nanos: -500000000}, "PT-1.5S"},
		{dbtype.Duration{Months: 14, Days: 3, Seconds: 6}, "P1Y2M3DT6S"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatISODuration(tc.d), "duration: %+v", tc.d)
	}
}
