package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"musicgraph/theme"
	"musicgraph/workspace"
	"musicgraph/xdot"
)

type labelPainter struct {
	th          *theme.Theme
	face        font.Face
	color       color.NRGBA
	stroke      color.NRGBA
	strokeWidth float64
	hasStroke   bool
}

// loadFace reads the TrueType font at path, or Go Regular when path is empty.
func loadFace(path string, size float64) (font.Face, error) {
	data := goregular.TTF
	if path != "" {
		if err := workspace.RequireFile("font", path); err != nil {
			return nil, err
		}
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading font %s: %w", path, err)
		}
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", path, err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

func newLabelPainter(th *theme.Theme) (*labelPainter, error) {
	face, err := loadFace(th.Font(), th.FontSize())
	if err != nil {
		return nil, err
	}
	p := &labelPainter{
		th:          th,
		face:        face,
		color:       th.NodeTextColor(),
		strokeWidth: th.NodeTextStrokeWidth(),
	}
	p.stroke, p.hasStroke = th.NodeTextStrokeColor()
	p.hasStroke = p.hasStroke && p.strokeWidth > 0
	return p, nil
}

// draw places the label with its top left corner at the layout position
// plus the per-length nudge and the canvas offset.
func (p *labelPainter) draw(dc *gg.Context, t xdot.Text, offset image.Point) {
	nudge := p.th.LabelOffset(t.Value)
	x := t.X + nudge.X + float64(offset.X)
	y := t.Y + nudge.Y + float64(offset.Y)

	dc.SetFontFace(p.face)
	if p.hasStroke {
		dc.SetColor(p.stroke)
		r := int(math.Ceil(p.strokeWidth))
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if float64(dx*dx+dy*dy) > p.strokeWidth*p.strokeWidth {
					continue
				}
				dc.DrawStringAnchored(t.Value, x+float64(dx), y+float64(dy), 0, 1)
			}
		}
	}
	dc.SetColor(p.color)
	dc.DrawStringAnchored(t.Value, x, y, 0, 1)
}
