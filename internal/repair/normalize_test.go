package repair

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_StripsFencesWithLanguageTag(t *testing.T) {
	in := "```json\n[{\"id\":\"1\",\"type\":\"text\",\"x\":0,\"y\":0,\"text\":\"hi\"}]\n```"

	out := Normalize(in)
	assert.NotContains(t, out, "```")
	assert.True(t, json.Valid([]byte(out)))

	elements, err := ExtractElements(out)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "hi", elements[0].Text)
}

func TestNormalize_FenceTagIsCaseInsensitive(t *testing.T) {
	for _, tag := range []string{"JSON", "JavaScript", "js"} {
		out := Normalize("```" + tag + "\n[1, 2]\n```")
		assert.Equal(t, "[1, 2]", out, "tag %q", tag)
	}
}

func TestNormalize_ValidJSONKeepsSurroundingWhitespace(t *testing.T) {
	in := "  \n" + `[{"id":"a"}]` + "\n "
	assert.Equal(t, in, Normalize(in))
}

func TestNormalize_InvalidInputIsTrimmed(t *testing.T) {
	// Commentary makes the input invalid, so the fence/whitespace pass runs.
	assert.Equal(t, `see: [1, 2]`, Normalize("  \nsee: [1, 2]\n "))
}

func TestNormalize_ValidJSONPassesThroughUnchanged(t *testing.T) {
	inputs := []string{
		`{"a": "say \"hi\" now"}`,
		`[{"id":"1","text":"line\nbreak"}]`,
		`[1, 2, 3]`,
		`{"nested": {"deep": ["values", "here"]}}`,
	}
	for _, in := range inputs {
		assert.Equal(t, in, Normalize(in))
	}
}

func TestNormalize_EscapesBareQuotesInsideStrings(t *testing.T) {
	out := Normalize(`{"a": "say "hi" now"}`)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, `say "hi" now`, parsed["a"])
}

func TestNormalize_KeepsExistingEscapes(t *testing.T) {
	// Invalid overall (trailing garbage) so the repair pass runs, but the
	// already-escaped quote must survive as a single escape.
	out := Normalize(`{"a": "ok \"quoted\" text"}   trailing junk`)
	assert.Contains(t, out, `\"quoted\"`)
	assert.NotContains(t, out, `\\\"`)
}

func TestNormalize_ToleratesTruncationMidString(t *testing.T) {
	// Stream cut off in the middle of a value. Must not panic and must
	// return something; validity comes later as more text arrives.
	out := Normalize(`[{"id":"1","text":"unfini`)
	assert.Contains(t, out, "unfini")
}

func TestNormalize_QuoteBeforeStructuralCharCloses(t *testing.T) {
	// The quote before the comma and before the brace are legitimate
	// closers and must not be escaped.
	in := `{"a": "x", "b": "y"}`
	out := Normalize(in)
	assert.Equal(t, in, out)
}

func TestNormalize_QuoteAtEndOfInputCloses(t *testing.T) {
	out := Normalize(`{"a": "x"`)
	assert.Equal(t, `{"a": "x"`, out)
}
