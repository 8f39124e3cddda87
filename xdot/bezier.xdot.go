package xdot

// BezierPoint evaluates the curve through control points pts at t in
// [0, 1] by repeated linear interpolation over the whole chain.
func BezierPoint(t float64, pts []Point) Point {
	switch len(pts) {
	case 0:
		return Point{}
	case 1:
		return pts[0]
	}
	work := make([]Point, len(pts))
	copy(work, pts)
	for n := len(work) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			work[i] = Point{
				X: work[i].X + (work[i+1].X-work[i].X)*t,
				Y: work[i].Y + (work[i+1].Y-work[i].Y)*t,
			}
		}
	}
	return work[0]
}

// BezierCurve samples the curve at segments+1 evenly spaced parameters.
func BezierCurve(pts []Point, segments int) []Point {
	if segments < 1 {
		segments = 1
	}
	out := make([]Point, segments+1)
	for i := range out {
		out[i] = BezierPoint(float64(i)/float64(segments), pts)
	}
	return out
}

// Offset returns pts translated by (dx, dy).
func Offset(pts []Point, dx, dy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}
