package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
)

// ===========================================================================
// Request Parsing Tests
// ===========================================================================

// TestParseContainer verifies the batch body shape and per-statement
// normalization.
func TestParseContainer(t *testing.T) {
	t.Parallel()
	body := `{"statements": [
		{"statement": "RETURN 1"},
		{
			"statement": "  CREATE (n {name: $name}) RETURN n ",
			"parameters": {"name": "Alice"},
			"includeStats": true,
			"resultDataContents": ["ROW", "graph"]
		}
	]}`

	container, err := ParseContainer(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, container.Statements, 2)

	first := container.Statements[0]
	assert.Equal(t, "RETURN 1", first.Text)
	assert.Nil(t, first.Parameters)
	assert.False(t, first.IncludeStats)
	assert.Equal(t, []query.ResultFormat{query.FormatRow}, first.ResultFormats)

	second := container.Statements[1]
	assert.Equal(t, "CREATE (n {name: $name}) RETURN n", second.Text)
	assert.Equal(t, map[string]any{"name": "Alice"}, second.Parameters)
	assert.True(t, second.IncludeStats)
	assert.Equal(t, []query.ResultFormat{query.FormatRow, query.FormatGraph}, second.ResultFormats)
}

// TestParseContainer_EmptyBatch verifies that a batch with no statements
// parses to an empty container.
func TestParseContainer_EmptyBatch(t *testing.T) {
	t.Parallel()
	container, err := ParseContainer(strings.NewReader(`{"statements": []}`))
	require.NoError(t, err)
	assert.Empty(t, container.Statements)
}

// TestParseContainer_StatementIndex verifies that a bad statement is
// reported with its position in the batch.
func TestParseContainer_StatementIndex(t *testing.T) {
	t.Parallel()
	body := `{"statements": [
		{"statement": "RETURN 1"},
		{"statement": "RETURN $x", "parameters": {"x": {"$type": "Money", "_value": "10"}}}
	]}`

	_, err := ParseContainer(strings.NewReader(body))
	require.Error(t, err)

	var gw *gwerr.Error
	require.ErrorAs(t, err, &gw)
	assert.Equal(t, gwerr.CodeUnknownTypeTag, gw.Code)
	assert.Equal(t, 1, gw.Details["statement_index"])
}

// TestParseContainer_MalformedJSON verifies the body-level rejection.
func TestParseContainer_MalformedJSON(t *testing.T) {
	t.Parallel()
	_, err := ParseContainer(strings.NewReader(`{"statements": [`))
	require.Error(t, err)
	assert.True(t, gwerr.IsInvalidParameter(err))
}

// TestParseContainer_EmptyStatement verifies that a blank statement is
// rejected as an invalid parameter.
func TestParseContainer_EmptyStatement(t *testing.T) {
	t.Parallel()
	_, err := ParseContainer(strings.NewReader(`{"statements": [{"statement": "  "}]}`))
	require.Error(t, err)
	assert.True(t, gwerr.IsInvalidParameter(err))
}

// TestParseContainer_BadResultFormat verifies the rejection of unknown
// resultDataContents entries.
func TestParseContainer_BadResultFormat(t *testing.T) {
	t.Parallel()
	body := `{"statements": [{"statement": "RETURN 1", "resultDataContents": ["rest"]}]}`
	_, err := ParseContainer(strings.NewReader(body))
	require.Error(t, err)
	assert.True(t, gwerr.IsInvalidParameter(err))
}

// TestParseStatement verifies the single-statement body used by the
// streaming endpoint.
func TestParseStatement(t *testing.T) {
	t.Parallel()
	q, err := ParseStatement(strings.NewReader(
		`{"statement": "MATCH (n) RETURN n", "parameters": {"limit": 10}}`))
	require.NoError(t, err)

	assert.Equal(t, "MATCH (n) RETURN n", q.Text)
	assert.Equal(t, map[string]any{"limit": int64(10)}, q.Parameters)
	assert.Equal(t, []query.ResultFormat{query.FormatRow}, q.ResultFormats)
}
