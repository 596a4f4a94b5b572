package optimize

import "sketchflow/internal/diagram"

// OverlapPair is an unordered pair of element identifiers whose axis-aligned
// bounding boxes intersect. A and B follow diagram order.
type OverlapPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// DetectOverlaps reports every unordered pair of non-connector elements whose
// bounding boxes strictly intersect on both axes. Elements without explicit
// dimensions are assumed to occupy the default box. O(n²) in element count,
// which is fine for typical diagrams of tens to low hundreds of elements;
// larger inputs need a spatial index, not different semantics.
func DetectOverlaps(elements []diagram.Element) []OverlapPair {
	boxes := make([]diagram.Element, 0, len(elements))
	for _, el := range elements {
		if el.IsConnector() {
			continue
		}
		boxes = append(boxes, el)
	}

	var pairs []OverlapPair
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if boxesIntersect(&boxes[i], &boxes[j]) {
				pairs = append(pairs, OverlapPair{A: boxes[i].ID, B: boxes[j].ID})
			}
		}
	}
	return pairs
}

// boxesIntersect is the standard strict AABB test on both axes.
func boxesIntersect(a, b *diagram.Element) bool {
	aw, ah := a.BoxWidth(), a.BoxHeight()
	bw, bh := b.BoxWidth(), b.BoxHeight()
	return a.X < b.X+bw && a.X+aw > b.X &&
		a.Y < b.Y+bh && a.Y+ah > b.Y
}
