package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"musicgraph/imagefilter"
	"musicgraph/theme"
	"musicgraph/workspace"
	"musicgraph/xdot"
)

// graphLineSegments is the resolution of static edge lines.
const graphLineSegments = 100

// newHostCanvas returns the width x height canvas painted with the
// background image (resized to fit) or the background colour.
func newHostCanvas(th *theme.Theme) (*image.RGBA, error) {
	host := image.NewRGBA(image.Rect(0, 0, th.Width(), th.Height()))
	path := th.BackgroundImage()
	if path == "" {
		draw.Draw(host, host.Bounds(), image.NewUniform(th.BackgroundColor()), image.Point{}, draw.Src)
		return host, nil
	}

	if err := workspace.RequireFile("background image", path); err != nil {
		return nil, err
	}
	bg, err := gg.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("loading background image %s: %w", path, err)
	}
	draw.CatmullRom.Scale(host, host.Bounds(), bg, bg.Bounds(), draw.Src, nil)
	return host, nil
}

// drawNode paints the optional blurred shadow, then the node ellipse.
func (b *builder) drawNode(e xdot.Ellipse) {
	x := e.X + float64(b.scene.Offset.X)
	y := e.Y + float64(b.scene.Offset.Y)

	shadow, hasShadow := b.th.NodeShadowColor()
	if size := b.th.NodeShadowSize(); hasShadow && size > 0 {
		incW, incH := e.W*size, e.H*size
		w, h := e.W+incW, e.H+incH
		tmp := image.NewRGBA(b.layer.Bounds())
		sdc := gg.NewContextForRGBA(tmp)
		sdc.DrawEllipse(x, y, w, h)
		sdc.SetColor(shadow)
		sdc.Fill()

		radius := math.Floor(max(incW, incH))
		area := imagefilter.Expand(image.Rect(int(x-w), int(y-h), int(math.Ceil(x+w)), int(math.Ceil(y+h))), radius)
		imagefilter.Blur(tmp, area, radius)
		draw.Draw(b.layer, area.Intersect(b.layer.Bounds()), tmp, area.Intersect(b.layer.Bounds()).Min, draw.Over)
	}

	b.dc.DrawEllipse(x, y, e.W, e.H)
	if fill, ok := b.th.NodeFillColor(); ok {
		b.dc.SetColor(fill)
		b.dc.FillPreserve()
	}
	if outline, ok := b.th.NodeOutlineColor(); ok {
		b.dc.SetColor(outline)
		b.dc.SetLineWidth(b.th.GraphLineWidth())
		b.dc.StrokePreserve()
	}
	b.dc.ClearPath()
}

// drawEdge paints an edge curve in the record's pen colour.
func (b *builder) drawEdge(rec xdot.Record) {
	pen := color.NRGBA{A: 255}
	if rec.Pen != nil {
		if c, err := theme.ParseColor(*rec.Pen); err == nil {
			pen = c
		}
	}
	pts := xdot.Offset(rec.Curve, float64(b.scene.Offset.X), float64(b.scene.Offset.Y))
	curve := xdot.BezierCurve(pts, graphLineSegments)

	b.dc.SetColor(pen)
	b.dc.SetLineWidth(b.th.GraphLineWidth())
	for i := 0; i+1 < len(curve); i++ {
		b.dc.DrawLine(curve[i].X, curve[i].Y, curve[i+1].X, curve[i+1].Y)
		b.dc.Stroke()
	}
}
