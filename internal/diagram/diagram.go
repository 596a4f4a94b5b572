package diagram

// Diagram is an ordered sequence of elements. Order is meaningful: it is the
// rendering z-order, and every transformation in this module preserves it.
type Diagram struct {
	Elements []Element

	// Index for faster lookup: ID -> position in Elements.
	idIndex map[string]int
}

// New creates a diagram from an element sequence.
func New(elements []Element) *Diagram {
	d := &Diagram{Elements: elements}
	d.RebuildIndex()
	return d
}

// RebuildIndex recomputes the ID lookup index. Callers that mutate Elements
// directly must call this before using Get.
func (d *Diagram) RebuildIndex() {
	d.idIndex = make(map[string]int, len(d.Elements))
	for i, el := range d.Elements {
		d.idIndex[el.ID] = i
	}
}

// Get returns the element with the given ID, or nil if absent.
func (d *Diagram) Get(id string) *Element {
	if d.idIndex == nil {
		d.RebuildIndex()
	}
	i, ok := d.idIndex[id]
	if !ok {
		return nil
	}
	return &d.Elements[i]
}

// Len returns the number of elements.
func (d *Diagram) Len() int {
	return len(d.Elements)
}

// Replace swaps in a new element sequence wholesale. The previous sequence is
// never partially mutated; a failed parse upstream simply never calls Replace.
func (d *Diagram) Replace(elements []Element) {
	d.Elements = elements
	d.RebuildIndex()
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent of the bounds.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the bounds.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// UnionBounds computes the union bounding box over all elements, using the
// default width/height for elements that omit them. The second return is
// false when the sequence is empty.
func UnionBounds(elements []Element) (Bounds, bool) {
	if len(elements) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinX: elements[0].X,
		MinY: elements[0].Y,
		MaxX: elements[0].X + elements[0].BoxWidth(),
		MaxY: elements[0].Y + elements[0].BoxHeight(),
	}
	for _, el := range elements[1:] {
		if el.X < b.MinX {
			b.MinX = el.X
		}
		if el.Y < b.MinY {
			b.MinY = el.Y
		}
		if right := el.X + el.BoxWidth(); right > b.MaxX {
			b.MaxX = right
		}
		if bottom := el.Y + el.BoxHeight(); bottom > b.MaxY {
			b.MaxY = bottom
		}
	}
	return b, true
}
