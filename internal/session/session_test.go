package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchflow/internal/diagram"
	"sketchflow/internal/repair"
)

const streamedDoc = "```json\n" +
	`[{"id":"r1","type":"rectangle","x":0,"y":0,"width":120,"height":80},` +
	`{"id":"t1","type":"text","x":10,"y":10,"text":"hello"}]` + "\n```"

func TestSession_ChunkSplitsConvergeToSameResult(t *testing.T) {
	splits := [][]string{
		{streamedDoc},
		{streamedDoc[:7], streamedDoc[7:]},
		{streamedDoc[:1], streamedDoc[1:40], streamedDoc[40:41], streamedDoc[41:]},
	}
	// Byte-at-a-time, worst case.
	var bytewise []string
	for i := range streamedDoc {
		bytewise = append(bytewise, streamedDoc[i:i+1])
	}
	splits = append(splits, bytewise)

	var results [][]diagram.Element
	for _, chunks := range splits {
		s := New(nil)
		for _, c := range chunks {
			s.Feed(c)
		}
		result, err := s.Finalize()
		require.NoError(t, err)
		results = append(results, result.Elements)
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
	assert.Len(t, results[0], 2)
}

func TestSession_UpdateCallbackFiresOnApply(t *testing.T) {
	var snapshots [][]diagram.Element
	s := New(func(elements []diagram.Element) {
		snapshots = append(snapshots, elements)
	})

	// Nothing parseable yet.
	s.Feed("```json\n[{\"id\":\"a\",\"type\":")
	assert.Empty(t, snapshots)

	// Array completes.
	s.Feed("\"rectangle\",\"x\":0,\"y\":0}]")
	require.NotEmpty(t, snapshots)
	assert.Equal(t, "a", snapshots[len(snapshots)-1][0].ID)
}

func TestSession_FailedReparseKeepsLastApplied(t *testing.T) {
	s := New(nil)
	s.Feed(`[{"id":"a","type":"rectangle","x":0,"y":0}]`)
	require.Len(t, s.Elements(), 1)

	applied := s.Elements()

	// Garbage grows the buffer and breaks the parse; the applied state
	// must remain exactly what it was.
	s.Feed(` {{{"broken`)
	assert.Equal(t, applied, s.Elements())
}

func TestSession_FinalizeRunsAutoFix(t *testing.T) {
	s := New(nil)
	s.Feed(`[{"id":"r","type":"rectangle","x":0,"y":0,"width":10,"height":5}]`)

	result, err := s.Finalize()
	require.NoError(t, err)
	require.Len(t, result.Elements, 1)
	assert.Equal(t, 50.0, *result.Elements[0].Width)
	assert.Equal(t, 30.0, *result.Elements[0].Height)
	require.Len(t, result.Fixes, 1)
	assert.Equal(t, "r", result.Fixes[0].ElementID)
	assert.Equal(t, 1, result.Stats.ElementCount)
}

func TestSession_FinalizeWithNoValidArrayFails(t *testing.T) {
	s := New(nil)
	s.Feed("The model never produced JSON, only prose.")

	_, err := s.Finalize()
	assert.ErrorIs(t, err, repair.ErrNoArray)
}

func TestSession_FinalizeFallsBackToLastAppliedOnBrokenTail(t *testing.T) {
	s := New(nil)
	s.Feed(`[{"id":"a","type":"rectangle","x":0,"y":0,"width":100,"height":60}]`)
	require.Len(t, s.Elements(), 1)

	// A broken tail after a valid apply must not lose the diagram.
	s.Feed(` and then some trailing commentary [unclosed`)

	result, err := s.Finalize()
	require.NoError(t, err)
	require.Len(t, result.Elements, 1)
	assert.Equal(t, "a", result.Elements[0].ID)
}

func TestSession_BufferGrowsMonotonically(t *testing.T) {
	s := New(nil)
	s.Feed("abc")
	s.Feed("def")
	assert.Equal(t, "abcdef", s.Buffer())
}

func TestSession_LiveDiagramTracksApplies(t *testing.T) {
	s := New(nil)
	s.Feed(`[{"id":"a","type":"rectangle","x":0,"y":0},{"id":"b","type":"text","x":5,"y":5,"text":"hi"}]`)

	d := s.Diagram()
	require.Equal(t, 2, d.Len())
	el := d.Get("b")
	require.NotNil(t, el)
	assert.Equal(t, "hi", el.Text)

	// A tail that breaks the parse never touches the live diagram.
	s.Feed(` broken]`)
	assert.Equal(t, 2, d.Len())
	assert.NotNil(t, d.Get("a"))
}
