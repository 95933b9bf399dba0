package annotate

import (
	"encoding/json"
	"strconv"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/soundprediction/relmark/pkg/types"
)

// parsedSpan is the span fragment recovered from one entity field, before the
// text is re-extracted from the sentence.
type parsedSpan struct {
	Word  string
	Type  string
	Start int
	End   int
}

// spanSchema is the wire schema of the entity field once repaired into JSON:
// {'word': '<text>', 'start_idx': <int>, 'end_idx': <int>, 'type': '<TAG>'}.
type spanSchema struct {
	Word     string `json:"word"`
	StartIdx *int   `json:"start_idx"`
	EndIdx   *int   `json:"end_idx"`
	Type     string `json:"type"`
}

// ParseEntityField extracts word, type, and character offsets from the
// Python-repr-style entity field. The primary path repairs the field into
// valid JSON and decodes it against the schema; when repair fails (entity
// words can contain quotes and commas that confuse it) the literal key-marker
// scan of the original wire format takes over. Either way a missing key or
// non-integer offset yields a MalformedSpanError naming the row.
func ParseEntityField(rowID int64, field string) (parsedSpan, error) {
	if span, ok := parseRepairedJSON(field); ok {
		return span, nil
	}
	return scanSpanField(rowID, field)
}

func parseRepairedJSON(field string) (parsedSpan, bool) {
	repaired, err := jsonrepair.JSONRepair(field)
	if err != nil {
		return parsedSpan{}, false
	}

	var schema spanSchema
	if err := json.Unmarshal([]byte(repaired), &schema); err != nil {
		return parsedSpan{}, false
	}
	if schema.StartIdx == nil || schema.EndIdx == nil || schema.Type == "" {
		return parsedSpan{}, false
	}

	return parsedSpan{
		Word:  schema.Word,
		Type:  schema.Type,
		Start: *schema.StartIdx,
		End:   *schema.EndIdx,
	}, true
}

// scanSpanField reproduces the original wire parsing: locate the literal
// start_idx/end_idx key markers and read the integer between the colon and the
// next comma; the type tag is the last single-quoted token before the closing
// brace.
func scanSpanField(rowID int64, field string) (parsedSpan, error) {
	start, err := scanOffset(rowID, field, "start_idx")
	if err != nil {
		return parsedSpan{}, err
	}
	end, err := scanOffset(rowID, field, "end_idx")
	if err != nil {
		return parsedSpan{}, err
	}

	typ, err := scanType(rowID, field)
	if err != nil {
		return parsedSpan{}, err
	}

	return parsedSpan{Type: typ, Start: start, End: end}, nil
}

func scanOffset(rowID int64, field, key string) (int, error) {
	pos := strings.Index(field, key)
	if pos < 0 {
		return 0, &types.MalformedSpanError{RowID: rowID, Field: field, Reason: "missing " + key}
	}

	rest := field[pos+len(key):]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return 0, &types.MalformedSpanError{RowID: rowID, Field: field, Reason: "no value after " + key}
	}
	rest = rest[colon+1:]

	if comma := strings.IndexAny(rest, ",}"); comma >= 0 {
		rest = rest[:comma]
	}

	value, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, &types.MalformedSpanError{RowID: rowID, Field: field, Reason: key + " is not an integer"}
	}
	return value, nil
}

func scanType(rowID int64, field string) (string, error) {
	trimmed := strings.TrimSpace(field)
	trimmed = strings.TrimSuffix(trimmed, "}")

	colon := strings.LastIndex(trimmed, ":")
	if colon < 0 {
		return "", &types.MalformedSpanError{RowID: rowID, Field: field, Reason: "missing type"}
	}

	parts := strings.Split(trimmed[colon+1:], "'")
	if len(parts) < 2 {
		return "", &types.MalformedSpanError{RowID: rowID, Field: field, Reason: "missing type"}
	}
	return parts[len(parts)-2], nil
}
