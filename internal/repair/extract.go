package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sketchflow/internal/diagram"
)

// ErrNoArray indicates the candidate text contains no bracket-delimited
// array. Recoverable: the caller keeps its current diagram.
var ErrNoArray = errors.New("no element array found in response")

// MalformedError indicates a candidate array substring was located but failed
// to parse. The underlying parser message is preserved verbatim so it can be
// surfaced for debugging.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("element array is not valid JSON: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// ExtractElements locates the outermost JSON array literal in text (first
// '[' through last ']', tolerating leading or trailing model commentary) and
// parses it into an element sequence. On failure the caller's previously
// applied elements must be left untouched; this function never mutates
// anything, it only returns.
//
// The same locate-and-parse contract serves both the streaming path (called
// once per chunk) and file import, where the text is expected to already be
// valid JSON.
func ExtractElements(text string) ([]diagram.Element, error) {
	start := strings.Index(text, "[")
	if start == -1 {
		return nil, ErrNoArray
	}
	end := strings.LastIndex(text, "]")
	if end <= start {
		return nil, ErrNoArray
	}

	var elements []diagram.Element
	if err := json.Unmarshal([]byte(text[start:end+1]), &elements); err != nil {
		return nil, &MalformedError{Err: err}
	}
	return elements, nil
}
