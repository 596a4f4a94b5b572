package repair

import (
	"encoding/json"
	"strings"
)

// Normalize turns the accumulated raw text of an in-progress generation into
// best-effort valid JSON. It strips a single markdown code fence from each
// edge and escapes unescaped quote characters inside string values. It is
// re-run on every incoming chunk, so transient invalidity (a string opened
// but not yet closed) is expected and self-corrects as more text arrives.
//
// The quote repair is heuristic: it cannot distinguish a literal quote that
// happens to be followed by a structural character from a real closing quote.
// It is a best-effort pass, not a guaranteed-correct JSON repair.
func Normalize(buf string) string {
	// Already-valid input passes through byte for byte, surrounding
	// whitespace included, so correctly escaped content is never
	// double-escaped.
	if json.Valid([]byte(buf)) {
		return buf
	}

	text := stripFences(buf)
	if json.Valid([]byte(text)) {
		return text
	}
	return repairQuotes(text)
}

// fence language tags the models are known to emit.
var fenceTags = []string{"json", "javascript", "js"}

// stripFences removes one leading and one trailing ``` marker from the
// trimmed edges of the text. The leading marker may carry a language tag.
func stripFences(buf string) string {
	text := strings.TrimSpace(buf)

	if strings.HasPrefix(text, "```") {
		rest := text[3:]
		for _, tag := range fenceTags {
			if len(rest) >= len(tag) && strings.EqualFold(rest[:len(tag)], tag) {
				rest = rest[len(tag):]
				break
			}
		}
		if strings.HasPrefix(rest, "\r\n") {
			rest = rest[2:]
		} else if strings.HasPrefix(rest, "\n") {
			rest = rest[1:]
		}
		text = rest
	}

	text = strings.TrimRight(text, " \t\r\n")
	if strings.HasSuffix(text, "```") {
		text = text[:len(text)-3]
	}

	return strings.TrimSpace(text)
}

// repairQuotes escapes bare quote characters that appear inside string
// values. A quote inside a string is treated as the closing quote only when
// the next non-whitespace character is structural (one of : , } ]) or the
// input ends there; otherwise it is escaped and the string stays open.
// Single left-to-right pass; tolerates input truncated mid-string.
func repairQuotes(text string) string {
	var out strings.Builder
	out.Grow(len(text) + 16)

	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escaped {
			out.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			out.WriteByte(c)
			escaped = true
			continue
		}
		if c != '"' {
			out.WriteByte(c)
			continue
		}

		if !inString {
			inString = true
			out.WriteByte(c)
			continue
		}

		if closesString(text, i+1) {
			inString = false
			out.WriteByte(c)
			continue
		}

		// Bare literal quote inside the value.
		out.WriteString(`\"`)
	}

	return out.String()
}

// closesString reports whether a quote at position pos-1 can legitimately
// close a string: the next non-whitespace character is structural, or the
// input ends.
func closesString(text string, pos int) bool {
	for pos < len(text) {
		switch text[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
			continue
		case ':', ',', '}', ']':
			return true
		default:
			return false
		}
	}
	return true
}
