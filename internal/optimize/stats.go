package optimize

import "sketchflow/internal/diagram"

// Stats is a read-only diagnostic view over a diagram.
type Stats struct {
	ElementCount int                         `json:"elementCount"`
	CountByType  map[diagram.ElementType]int `json:"countByType"`
	Bounds       *diagram.Bounds             `json:"bounds,omitempty"`
	OverlapCount int                         `json:"overlapCount"`
}

// Summarize computes element counts, the union bounding box over all
// positioned elements, and the overlap count. It never mutates its input.
func Summarize(elements []diagram.Element) Stats {
	stats := Stats{
		ElementCount: len(elements),
		CountByType:  make(map[diagram.ElementType]int),
		OverlapCount: len(DetectOverlaps(elements)),
	}
	for _, el := range elements {
		stats.CountByType[el.Type]++
	}
	if b, ok := diagram.UnionBounds(elements); ok {
		stats.Bounds = &b
	}
	return stats
}
