// Package session drives one diagram generation attempt: it accumulates the
// raw stream, repairs it after every chunk, and applies each successfully
// parsed element array to the live diagram. Partial or garbled intermediate
// states are expected during streaming and are never surfaced as errors;
// only a failure to produce any valid array by stream end is.
package session

import (
	"strings"

	"sketchflow/internal/diagram"
	"sketchflow/internal/optimize"
	"sketchflow/internal/repair"
)

// UpdateFunc is invoked with the freshly applied element sequence every time
// a chunk yields a parseable array. The rendering surface hangs off here.
type UpdateFunc func(elements []diagram.Element)

// Result is the outcome of a finished generation.
type Result struct {
	Elements []diagram.Element `json:"elements"`
	Fixes    []optimize.Fix    `json:"fixes"`
	Stats    optimize.Stats    `json:"stats"`

	// Raw is the final normalized text, kept for the code view.
	Raw string `json:"raw"`
}

// Session holds the state of a single generation attempt. The buffer grows
// monotonically until the stream closes; it is discarded with the session.
// Not safe for concurrent use: chunks must be fed in arrival order from one
// goroutine, matching the stream consumption loop.
type Session struct {
	buf            strings.Builder
	lastNormalized string
	live           *diagram.Diagram
	everApplied    bool
	onUpdate       UpdateFunc
}

// New creates a session. onUpdate may be nil.
func New(onUpdate UpdateFunc) *Session {
	return &Session{live: diagram.New(nil), onUpdate: onUpdate}
}

// Feed appends one stream chunk, re-normalizes the full buffer and attempts
// to extract and apply an element array. Extraction failures leave the last
// applied elements untouched; a previous valid state is never discarded on a
// failed re-parse. Because every call operates on the full buffer, feeding
// the same total input in any chunk split converges to the same final state.
func (s *Session) Feed(chunk string) {
	s.buf.WriteString(chunk)

	normalized := repair.Normalize(s.buf.String())
	if normalized == s.lastNormalized {
		return
	}
	s.lastNormalized = normalized

	elements, err := repair.ExtractElements(normalized)
	if err != nil {
		return
	}
	s.live.Replace(elements)
	s.everApplied = true
	if s.onUpdate != nil {
		s.onUpdate(elements)
	}
}

// Diagram returns the live diagram the session applies snapshots to.
func (s *Session) Diagram() *diagram.Diagram {
	return s.live
}

// Elements returns the last successfully applied element sequence.
func (s *Session) Elements() []diagram.Element {
	return s.live.Elements
}

// Buffer returns the raw text accumulated so far.
func (s *Session) Buffer() string {
	return s.buf.String()
}

// Finalize runs one last repair-and-extract pass over the full buffer, then
// the structural auto-fix over the final element set. If the stream never
// produced a valid array, the extraction error is returned and the caller
// keeps whatever was applied last (nothing, in that case).
func (s *Session) Finalize() (*Result, error) {
	normalized := repair.Normalize(s.buf.String())
	s.lastNormalized = normalized

	elements, err := repair.ExtractElements(normalized)
	if err != nil {
		if !s.everApplied {
			return nil, err
		}
		// The final tail broke the parse but an earlier pass applied a
		// valid array; finish with that.
		elements = s.live.Elements
	}

	fixed, fixes, _ := optimize.AutoFix(elements)
	s.live.Replace(fixed)
	s.everApplied = true

	return &Result{
		Elements: fixed,
		Fixes:    fixes,
		Stats:    optimize.Summarize(fixed),
		Raw:      normalized,
	}, nil
}
