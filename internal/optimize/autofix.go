package optimize

import (
	"strings"

	"sketchflow/internal/diagram"
)

// Fix is an audit record for one correction applied by AutoFix. It is purely
// observational and never feeds back into further processing.
type Fix struct {
	ElementID string `json:"elementId"`
	Issue     string `json:"issue"`
	Action    string `json:"action"`
}

const (
	// MinWidth and MinHeight are the smallest dimensions a shape may keep.
	MinWidth  = 50.0
	MinHeight = 30.0

	// PlaceholderText replaces blank text payloads.
	PlaceholderText = "Text"
)

// AutoFix applies deterministic structural corrections element by element and
// reports what changed. Each rule triggers independently and logs its own Fix.
// Elements with no triggered rule are returned as the same value, so callers
// can detect change by comparison. Order is preserved. Running AutoFix twice
// produces no fixes on the second pass.
//
// The minimum-size rule applies to non-connector elements; connectors get the
// dedicated zero-width rule so a degenerate arrow becomes drawable without
// being inflated to shape dimensions.
func AutoFix(elements []diagram.Element) ([]diagram.Element, []Fix, bool) {
	out := make([]diagram.Element, len(elements))
	var fixes []Fix

	for i, el := range elements {
		if !el.IsConnector() {
			tooNarrow := el.Width != nil && *el.Width < MinWidth
			tooShort := el.Height != nil && *el.Height < MinHeight
			if tooNarrow || tooShort {
				w := diagram.DefaultWidth
				if el.Width != nil {
					w = *el.Width
				}
				h := diagram.DefaultHeight
				if el.Height != nil {
					h = *el.Height
				}
				el.Width = diagram.Float(max(w, MinWidth))
				el.Height = diagram.Float(max(h, MinHeight))
				fixes = append(fixes, Fix{
					ElementID: el.ID,
					Issue:     "element size below minimum",
					Action:    "resized to minimum dimensions",
				})
			}
		}

		if el.IsConnector() && el.Width != nil && *el.Width == 0 {
			el.Width = diagram.Float(1)
			fixes = append(fixes, Fix{
				ElementID: el.ID,
				Issue:     "connector has zero width",
				Action:    "set width to 1",
			})
		}

		if el.Type == diagram.TypeText && strings.TrimSpace(el.Text) == "" {
			el.Text = PlaceholderText
			fixes = append(fixes, Fix{
				ElementID: el.ID,
				Issue:     "text element has no content",
				Action:    "inserted placeholder text",
			})
		}

		if el.Opacity != nil && (*el.Opacity < 0 || *el.Opacity > 100) {
			clamped := *el.Opacity
			if clamped < 0 {
				clamped = 0
			}
			if clamped > 100 {
				clamped = 100
			}
			el.Opacity = diagram.Float(clamped)
			fixes = append(fixes, Fix{
				ElementID: el.ID,
				Issue:     "opacity out of range",
				Action:    "clamped opacity into [0,100]",
			})
		}

		out[i] = el
	}

	return out, fixes, len(fixes) > 0
}
