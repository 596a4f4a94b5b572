package diagram

// ElementType identifies the geometric kind of an element. The kind is fixed
// at creation time and never changes afterwards.
type ElementType string

const (
	TypeRectangle ElementType = "rectangle"
	TypeEllipse   ElementType = "ellipse"
	TypeDiamond   ElementType = "diamond"
	TypeArrow     ElementType = "arrow"
	TypeLine      ElementType = "line"
	TypeText      ElementType = "text"
	TypeFreedraw  ElementType = "freedraw"
)

// Binding references the element an arrow or line endpoint is attached to.
type Binding struct {
	ElementID string  `json:"elementId"`
	Focus     float64 `json:"focus,omitempty"`
	Gap       float64 `json:"gap,omitempty"`
}

// Element is a single visual primitive. Field names follow the Excalidraw
// wire format so a parsed array can be handed to the canvas as-is.
// Width, Height and Opacity are pointers because point-like elements omit
// them entirely, which is distinct from a zero value.
type Element struct {
	ID              string      `json:"id"`
	Type            ElementType `json:"type"`
	X               float64     `json:"x"`
	Y               float64     `json:"y"`
	Width           *float64    `json:"width,omitempty"`
	Height          *float64    `json:"height,omitempty"`
	Angle           float64     `json:"angle,omitempty"`
	StrokeColor     string      `json:"strokeColor,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	FillStyle       string      `json:"fillStyle,omitempty"`
	StrokeWidth     *float64    `json:"strokeWidth,omitempty"`
	Opacity         *float64    `json:"opacity,omitempty"`
	Text            string      `json:"text,omitempty"`
	FontSize        float64     `json:"fontSize,omitempty"`
	FontFamily      int         `json:"fontFamily,omitempty"`
	Points          [][]float64 `json:"points,omitempty"`
	StartBinding    *Binding    `json:"startBinding,omitempty"`
	EndBinding      *Binding    `json:"endBinding,omitempty"`
}

// Default sizes assumed for elements that omit width or height.
const (
	DefaultWidth  = 100.0
	DefaultHeight = 50.0
)

// IsConnector reports whether the element is an arrow or line.
func (e *Element) IsConnector() bool {
	return e.Type == TypeArrow || e.Type == TypeLine
}

// IsShape reports whether the element is a filled shape kind
// (the kinds that receive a background color during palette assignment).
func (e *Element) IsShape() bool {
	switch e.Type {
	case TypeRectangle, TypeEllipse, TypeDiamond:
		return true
	}
	return false
}

// BoxWidth returns the element width, falling back to the default when absent.
func (e *Element) BoxWidth() float64 {
	if e.Width != nil {
		return *e.Width
	}
	return DefaultWidth
}

// BoxHeight returns the element height, falling back to the default when absent.
func (e *Element) BoxHeight() float64 {
	if e.Height != nil {
		return *e.Height
	}
	return DefaultHeight
}

// Float returns a pointer to v, for building optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
