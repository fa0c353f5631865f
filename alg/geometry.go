package alg

import (
	"math"

	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// Scale limits for the map viewport. SuggestedScale additionally floors its
// result at ZoomToFitMinScale so "zoom to spot" never lands on a wide shot.
const (
	MinScale          = 0.5
	MaxScale          = 10.0
	ZoomToFitMinScale = 1.5

	// zoomToFitFraction keeps the larger polygon extent at roughly this share
	// of the canonical frame after a zoom-to-territory.
	zoomToFitFraction = 0.3
)

// PointInPolygon reports whether p lies inside the polygon using a horizontal
// ray cast. Edges are treated half-open (one endpoint strictly above, the other
// at or below the ray) so shared vertices are not double counted. Polygons with
// fewer than 3 points contain nothing.
func PointInPolygon(p typedef.Point, polygon []typedef.Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			crossX := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < crossX {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Centroid returns the arithmetic mean of the polygon's vertices. That is not
// the true area centroid but it is where the label should sit for the shapes
// drawn by hand here, and it never leaves the convex hull of the points.
func Centroid(polygon []typedef.Point) typedef.Point {
	if len(polygon) == 0 {
		return typedef.Point{}
	}

	var sumX, sumY float64
	for _, p := range polygon {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(polygon))
	return typedef.Point{X: sumX / n, Y: sumY / n}
}

// BoundingBox returns the axis-aligned extents of the polygon. A zero Rect is
// returned for an empty polygon.
func BoundingBox(polygon []typedef.Point) typedef.Rect {
	if len(polygon) == 0 {
		return typedef.Rect{}
	}

	box := typedef.Rect{
		MinX: polygon[0].X, MaxX: polygon[0].X,
		MinY: polygon[0].Y, MaxY: polygon[0].Y,
	}
	for _, p := range polygon[1:] {
		box.MinX = math.Min(box.MinX, p.X)
		box.MaxX = math.Max(box.MaxX, p.X)
		box.MinY = math.Min(box.MinY, p.Y)
		box.MaxY = math.Max(box.MaxY, p.Y)
	}
	return box
}

// SuggestedScale picks the zoom level that frames the polygon at roughly 30%
// of the canonical frame, clamped to [ZoomToFitMinScale, MaxScale]. Degenerate
// polygons (zero extent) get the floor scale.
func SuggestedScale(polygon []typedef.Point) float64 {
	box := BoundingBox(polygon)
	extent := math.Max(box.Width(), box.Height())
	if extent <= 0 {
		return ZoomToFitMinScale
	}

	scale := (typedef.FrameWidth * zoomToFitFraction) / extent
	return Clamp(scale, ZoomToFitMinScale, MaxScale)
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
