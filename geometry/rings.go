// rings.go - Topological assembly of polygon rings
package geometry

import "github.com/twpayne/go-geom"

// ring is a view over one closed ring inside a flat coordinate slice.
type ring struct {
	flat   []float64
	stride int
}

func (r ring) numPoints() int { return len(r.flat) / r.stride }

func (r ring) point(i int) (x, y float64) {
	return r.flat[i*r.stride], r.flat[i*r.stride+1]
}

// contains reports whether (x, y) falls inside the ring, by even-odd
// ray casting. Points exactly on an edge may land on either side.
func (r ring) contains(x, y float64) bool {
	inside := false
	n := r.numPoints()
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := r.point(i)
		xj, yj := r.point(j)
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// organizeRings groups the rings of a multi-ring polygon shape into
// polygons. Ring winding as stored cannot be trusted, so shells and
// holes are told apart by containment: a ring nested inside an odd
// number of other rings is a hole of its immediate parent.
func organizeRings(layout geom.Layout, flat []float64, ends []int) geom.T {
	stride := layout.Stride()
	rings := make([]ring, len(ends))
	start := 0
	for i, end := range ends {
		rings[i] = ring{flat: flat[start:end], stride: stride}
		start = end
	}

	depth := make([]int, len(rings))
	enclosers := make([][]int, len(rings))
	for i := range rings {
		if rings[i].numPoints() == 0 {
			continue
		}
		x, y := rings[i].point(0)
		for j := range rings {
			if i == j || rings[j].numPoints() == 0 {
				continue
			}
			if rings[j].contains(x, y) {
				depth[i]++
				enclosers[i] = append(enclosers[i], j)
			}
		}
	}
	// The deepest enclosing ring is the immediate parent.
	parent := make([]int, len(rings))
	for i := range rings {
		parent[i] = -1
		for _, j := range enclosers[i] {
			if parent[i] < 0 || depth[j] > depth[parent[i]] {
				parent[i] = j
			}
		}
	}

	// Shells sit at even depth, holes at odd depth. A hole attaches to
	// its parent shell; a hole whose parent is itself a hole belongs to
	// the grandparent's sibling shell, which the parent chain reaches.
	shellOf := make(map[int]int, len(rings))
	var shellOrder []int
	for i := range rings {
		if depth[i]%2 == 0 {
			shellOf[i] = len(shellOrder)
			shellOrder = append(shellOrder, i)
		}
	}
	if len(shellOrder) <= 1 {
		// Degenerate nesting collapses to one polygon with all the
		// remaining rings as holes.
		return geom.NewPolygonFlat(layout, flat, ends)
	}

	polyRings := make([][]ring, len(shellOrder))
	for idx, i := range shellOrder {
		polyRings[idx] = []ring{rings[i]}
	}
	for i := range rings {
		if depth[i]%2 == 0 {
			continue
		}
		p := parent[i]
		for p >= 0 && depth[p]%2 != 0 {
			p = parent[p]
		}
		if p < 0 {
			p = shellOrder[0]
		}
		idx := shellOf[p]
		polyRings[idx] = append(polyRings[idx], rings[i])
	}

	mpFlat := make([]float64, 0, len(flat))
	endss := make([][]int, len(polyRings))
	for idx, prs := range polyRings {
		polyEnds := make([]int, len(prs))
		for j, r := range prs {
			mpFlat = append(mpFlat, r.flat...)
			polyEnds[j] = len(mpFlat)
		}
		endss[idx] = polyEnds
	}
	return geom.NewMultiPolygonFlat(layout, mpFlat, endss)
}
