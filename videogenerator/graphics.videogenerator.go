package videogenerator

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"musicgraph/animation"
	"musicgraph/imagefilter"
	"musicgraph/theme"
	"musicgraph/xdot"
)

// CurveAlpha is the chord line envelope: fade in over the first 10% of
// total, hold until 50%, then fade linearly out.
func CurveAlpha(frame, total int) uint8 {
	if total <= 0 {
		return 0
	}
	f, n := float64(frame), float64(total)
	fadeInEnd := n * 0.1
	fadeOutStart := n * 0.5
	switch {
	case f < fadeInEnd:
		return uint8(255 * (f / fadeInEnd))
	case f <= fadeOutStart:
		return 255
	default:
		return uint8(max(0, 255*((n-f)/(n-fadeOutStart))))
	}
}

// Renderer draws actions onto frame canvases.
type Renderer struct {
	th     *theme.Theme
	offset xdot.Point
}

// NewRenderer returns a renderer for graph coordinates shifted by offset.
func NewRenderer(th *theme.Theme, offset image.Point) *Renderer {
	return &Renderer{th: th, offset: xdot.Point{X: float64(offset.X), Y: float64(offset.Y)}}
}

// Apply composites a onto canvas and returns the composite, which later
// actions of the same frame draw on.
func (r *Renderer) Apply(canvas *image.RGBA, a animation.Action) *image.RGBA {
	switch a.Kind {
	case animation.ChordLine:
		r.chordLine(canvas, a)
	case animation.TravelBall:
		r.ball(canvas, a)
	case animation.Pulse:
		r.pulse(canvas, a)
	}
	return canvas
}

// overlay is a transparent scratch image covering part of the canvas.
// Drawing uses canvas coordinates.
type overlay struct {
	img    *image.RGBA
	dc     *gg.Context
	origin image.Point
}

func newOverlay(area, canvas image.Rectangle) (*overlay, bool) {
	area = area.Intersect(canvas)
	if area.Empty() {
		return nil, false
	}
	img := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	dc := gg.NewContextForRGBA(img)
	dc.Translate(-float64(area.Min.X), -float64(area.Min.Y))
	return &overlay{img: img, dc: dc, origin: area.Min}, true
}

func (o *overlay) blur(radius float64) {
	imagefilter.Blur(o.img, o.img.Bounds(), radius)
}

func (o *overlay) compositeOnto(canvas *image.RGBA) {
	draw.Draw(canvas, o.img.Bounds().Add(o.origin), o.img, image.Point{}, draw.Over)
}

func (o *overlay) strokePolyline(pts []xdot.Point, c color.Color, width float64) {
	if len(pts) == 0 {
		return
	}
	o.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		o.dc.LineTo(p.X, p.Y)
	}
	o.dc.SetColor(c)
	o.dc.SetLineWidth(width)
	o.dc.SetLineCap(gg.LineCapRound)
	o.dc.SetLineJoin(gg.LineJoinRound)
	o.dc.Stroke()
}

// chordLineBlur softens the border drawn under every chord line.
const chordLineBlur = 5

// chordLine draws a blurred border twice as wide as the line, then the
// line itself, both with the envelope alpha.
func (r *Renderer) chordLine(canvas *image.RGBA, a animation.Action) {
	if len(a.Curve) == 0 {
		return
	}
	alpha := CurveAlpha(a.Frame, a.Length)
	if alpha == 0 {
		return
	}
	pts := xdot.Offset(a.Curve, r.offset.X, r.offset.Y)
	curve := xdot.BezierCurve(pts, 300*len(pts))
	width := r.th.ChordLineWidth(a.Track)

	area := imagefilter.Expand(pointBounds(curve).Inset(-int(math.Ceil(width))), chordLineBlur)
	ov, ok := newOverlay(area, canvas.Bounds())
	if !ok {
		return
	}
	ov.strokePolyline(curve, theme.WithAlpha(r.th.ChordLineBorderColor(a.Track), alpha), width*2)
	ov.blur(chordLineBlur)
	ov.strokePolyline(curve, theme.WithAlpha(r.th.ChordLineColor(a.Track), alpha), width)
	ov.compositeOnto(canvas)
}

// ball draws concentric filled circles at the point of the edge the ball
// has reached, optionally blurred more strongly the closer it is to leaving.
func (r *Renderer) ball(canvas *image.RGBA, a animation.Action) {
	if len(a.Curve) == 0 {
		return
	}
	p := xdot.BezierPoint(a.Progress(), a.Curve)
	x, y := p.X+r.offset.X, p.Y+r.offset.Y

	rings := int(r.th.BallRadius(a.Track)) / 2
	strokeWidth := r.th.BallStrokeWidth(a.Track)
	blur := 0.0
	if gmax := r.th.BallGBlurMax(a.Track); gmax > 0 {
		blur = min(float64(a.Length-a.Frame), gmax)
	}

	reach := int(math.Ceil(float64(rings)+strokeWidth)) + 1
	area := imagefilter.Expand(image.Rect(int(x)-reach, int(y)-reach, int(x)+reach+1, int(y)+reach+1), blur)
	ov, ok := newOverlay(area, canvas.Bounds())
	if !ok {
		return
	}
	fill := r.th.BallColor(a.Track)
	stroke, hasStroke := r.th.BallStrokeColor(a.Track)
	for i := 0; i < rings; i++ {
		ov.dc.DrawCircle(x, y, float64(i))
		ov.dc.SetColor(fill)
		ov.dc.FillPreserve()
		if hasStroke && strokeWidth > 0 {
			ov.dc.SetColor(stroke)
			ov.dc.SetLineWidth(strokeWidth)
			ov.dc.StrokePreserve()
		}
		ov.dc.ClearPath()
	}
	if blur > 0 {
		ov.blur(blur)
	}
	ov.compositeOnto(canvas)
}

// pulse outlines the node grown by the velocity scaled increase and fills
// it with a soft glow that never leaks outside the grown outline.
func (r *Renderer) pulse(canvas *image.RGBA, a animation.Action) {
	e := a.Ellipse
	x, y := e.X+r.offset.X, e.Y+r.offset.Y
	inc := r.th.NoteIncreaseSize(a.Track) * float64(a.Velocity) / 127
	w := e.W + e.W*inc/2
	h := e.H + e.H*inc/2
	noteColor := r.th.NoteColor(a.Track)
	strokeWidth := r.th.NoteStrokeWidth(a.Track)

	margin := int(math.Ceil(strokeWidth)) + 2
	area := image.Rect(int(x-w)-margin, int(y-h)-margin, int(math.Ceil(x+w))+margin, int(math.Ceil(y+h))+margin)
	ov, ok := newOverlay(area, canvas.Bounds())
	if !ok {
		return
	}

	if strokeWidth > 0 {
		ov.dc.DrawEllipse(x, y, w, h)
		ov.dc.SetColor(noteColor)
		ov.dc.SetLineWidth(strokeWidth)
		ov.dc.Stroke()
		ov.compositeOnto(canvas)
	}

	// Hard mask of the grown ellipse, in overlay coordinates.
	shape, _ := newOverlay(area, canvas.Bounds())
	shape.dc.DrawEllipse(x, y, w, h)
	shape.dc.SetColor(color.White)
	shape.dc.Fill()
	hard := alphaOf(shape.img)

	soft := image.NewAlpha(hard.Rect)
	copy(soft.Pix, hard.Pix)
	imagefilter.BlurAlpha(soft, soft.Rect, max(1, a.Progress()*float64(a.Velocity)))
	for i, v := range hard.Pix {
		soft.Pix[i] = min(soft.Pix[i], v)
	}

	dst := soft.Rect.Add(shape.origin)
	draw.DrawMask(canvas, dst, image.NewUniform(noteColor), image.Point{}, soft, image.Point{}, draw.Over)
}

func alphaOf(img *image.RGBA) *image.Alpha {
	m := image.NewAlpha(img.Rect)
	for i := range m.Pix {
		m.Pix[i] = img.Pix[i*4+3]
	}
	return m
}

func pointBounds(pts []xdot.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}
