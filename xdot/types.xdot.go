package xdot

// Point is a coordinate in canvas pixels.
type Point struct {
	X float64
	Y float64
}

// Ellipse is given by its centre and half-axes.
type Ellipse struct {
	X      float64
	Y      float64
	W      float64
	H      float64
	Filled bool
}

// Text is a label placed by the layout engine. X is interpreted according
// to Justify (-1 left, 0 centre, 1 right), Y is the baseline.
type Text struct {
	X       float64
	Y       float64
	Justify int
	Width   float64
	Value   string
}

// Record is everything one draw string says about a graph element. Absent
// commands leave their field nil.
type Record struct {
	Pen  *string
	Fill *string

	Polygon       []Point
	PolygonFilled bool
	Polyline      []Point

	Ellipse *Ellipse

	Curve       []Point
	CurveFilled bool

	Font      *string
	FontSize  *float64
	FontFlags *int
	Styles    []string

	Text *Text
}

// HasEllipse reports whether the record describes a node shape.
func (r Record) HasEllipse() bool { return r.Ellipse != nil }

// HasCurve reports whether the record carries edge geometry.
func (r Record) HasCurve() bool { return len(r.Curve) > 0 }

// Bounds returns the width and height of the polygon, truncated to whole
// pixels. It is zero for records without a polygon.
func (r Record) Bounds() (int, int) {
	if len(r.Polygon) == 0 {
		return 0, 0
	}
	minX, maxX := r.Polygon[0].X, r.Polygon[0].X
	minY, maxY := r.Polygon[0].Y, r.Polygon[0].Y
	for _, p := range r.Polygon[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	return int(maxX - minX), int(maxY - minY)
}
