package annotate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/relmark/pkg/types"
)

func TestParseEntityFieldWireFormat(t *testing.T) {
	field := "{'word': '비틀즈', 'start_idx': 24, 'end_idx': 26, 'type': 'ORG'}"

	span, err := ParseEntityField(1, field)
	require.NoError(t, err)

	assert.Equal(t, 24, span.Start)
	assert.Equal(t, 26, span.End)
	assert.Equal(t, "ORG", span.Type)
}

func TestParseEntityFieldAwkwardWord(t *testing.T) {
	// Entity words can contain commas, colons, and apostrophes; the offsets
	// and type must still come out intact via the key-marker scan.
	field := "{'word': 'O'Brien, Jr.: the 3rd', 'start_idx': 7, 'end_idx': 27, 'type': 'PER'}"

	span, err := ParseEntityField(2, field)
	require.NoError(t, err)

	assert.Equal(t, 7, span.Start)
	assert.Equal(t, 27, span.End)
	assert.Equal(t, "PER", span.Type)
}

func TestParseEntityFieldMissingEndIdx(t *testing.T) {
	field := "{'word': 'Kim', 'start_idx': 0, 'type': 'PER'}"

	_, err := ParseEntityField(17, field)

	var malformed *types.MalformedSpanError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, int64(17), malformed.RowID)
	assert.Contains(t, malformed.Error(), "end_idx")
	assert.Contains(t, malformed.Error(), field, "message must include the offending field")
}

func TestParseEntityFieldNonIntegerOffset(t *testing.T) {
	field := "{'word': 'Kim', 'start_idx': zero, 'end_idx': 2, 'type': 'PER'}"

	_, err := ParseEntityField(5, field)

	var malformed *types.MalformedSpanError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Reason, "start_idx")
}

func TestParseEntityFieldWhitespaceTolerant(t *testing.T) {
	field := "{'word': 'Acme',  'start_idx' :  13 , 'end_idx':16, 'type': 'ORG'}"

	span, err := ParseEntityField(3, field)
	require.NoError(t, err)

	assert.Equal(t, 13, span.Start)
	assert.Equal(t, 16, span.End)
	assert.Equal(t, "ORG", span.Type)
}
