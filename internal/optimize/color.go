package optimize

import (
	"fmt"
	"sort"
	"strings"

	"sketchflow/internal/diagram"
)

// Palette is an ordered list of stroke colors plus one background color used
// for positional color assignment.
type Palette struct {
	Name       string   `json:"name"`
	Colors     []string `json:"colors"`
	Background string   `json:"background"`
}

// Scheme is an ad hoc color tuple. It is applied exactly like a three-color
// palette with [Primary, Secondary, Accent] as the positional list.
type Scheme struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
}

// builtinPalettes are the named palettes shipped with the service.
var builtinPalettes = map[string]Palette{
	"vibrant": {
		Name:       "vibrant",
		Colors:     []string{"#e64980", "#fd7e14", "#fab005", "#40c057", "#228be6", "#7950f2"},
		Background: "#fff9db",
	},
	"pastel": {
		Name:       "pastel",
		Colors:     []string{"#ffc9c9", "#ffd8a8", "#ffec99", "#b2f2bb", "#a5d8ff", "#d0bfff"},
		Background: "#f8f9fa",
	},
	"mono": {
		Name:       "mono",
		Colors:     []string{"#212529", "#495057", "#868e96"},
		Background: "#ffffff",
	},
	"ocean": {
		Name:       "ocean",
		Colors:     []string{"#0b7285", "#1098ad", "#15aabf", "#66d9e8"},
		Background: "#e3fafc",
	},
}

// PaletteByName looks up a built-in palette, case-insensitively.
func PaletteByName(name string) (Palette, error) {
	p, ok := builtinPalettes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Palette{}, fmt.Errorf("unknown palette: %s", name)
	}
	return p, nil
}

// PaletteNames returns the sorted names of the built-in palettes.
func PaletteNames() []string {
	names := make([]string, 0, len(builtinPalettes))
	for name := range builtinPalettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPalette assigns colors[i mod len(colors)] as stroke color to each
// element in diagram order. Shape kinds additionally receive the palette
// background; text always uses colors[0]. Pure: the input sequence is left
// untouched and freshly constructed elements are returned, so undo/redo and
// state handling stay outside this package.
func ApplyPalette(elements []diagram.Element, p Palette) []diagram.Element {
	if len(p.Colors) == 0 {
		out := make([]diagram.Element, len(elements))
		copy(out, elements)
		return out
	}

	out := make([]diagram.Element, len(elements))
	for i, el := range elements {
		color := p.Colors[i%len(p.Colors)]
		switch {
		case el.IsShape():
			el.StrokeColor = color
			el.BackgroundColor = p.Background
		case el.Type == diagram.TypeText:
			el.StrokeColor = p.Colors[0]
		default:
			el.StrokeColor = color
		}
		out[i] = el
	}
	return out
}

// ApplyScheme applies an explicit color tuple using the same positional rule
// as ApplyPalette.
func ApplyScheme(elements []diagram.Element, s Scheme) []diagram.Element {
	return ApplyPalette(elements, Palette{
		Colors:     []string{s.Primary, s.Secondary, s.Accent},
		Background: s.Background,
	})
}
