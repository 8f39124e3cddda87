package xdot

import (
	"strconv"
	"strings"
)

// Format writes r back as a draw string in point units, the inverse of
// Parse for the same dpi.
func Format(r Record, dpi float64) string {
	f := formatter{scale: scaleFor(dpi)}

	if r.Pen != nil {
		f.cmd('c')
		f.str(*r.Pen)
	}
	if r.Fill != nil {
		f.cmd('C')
		f.str(*r.Fill)
	}
	for _, s := range r.Styles {
		f.cmd('S')
		f.str(s)
	}
	if len(r.Polygon) > 0 {
		if r.PolygonFilled {
			f.cmd('P')
		} else {
			f.cmd('p')
		}
		f.points(r.Polygon)
	}
	if len(r.Polyline) > 0 {
		f.cmd('L')
		f.points(r.Polyline)
	}
	if e := r.Ellipse; e != nil {
		if e.Filled {
			f.cmd('E')
		} else {
			f.cmd('e')
		}
		f.coord(e.X)
		f.coord(e.Y)
		f.coord(e.W)
		f.coord(e.H)
	}
	if len(r.Curve) > 0 {
		if r.CurveFilled {
			f.cmd('b')
		} else {
			f.cmd('B')
		}
		f.points(r.Curve)
	}
	if r.FontFlags != nil {
		f.cmd('t')
		f.raw(strconv.Itoa(*r.FontFlags))
	}
	if r.FontSize != nil {
		f.cmd('F')
		f.raw(strconv.FormatFloat(*r.FontSize, 'f', -1, 64))
		font := ""
		if r.Font != nil {
			font = *r.Font
		}
		f.str(font)
	}
	if t := r.Text; t != nil {
		f.cmd('T')
		f.coord(t.X)
		f.coord(t.Y)
		f.raw(strconv.Itoa(t.Justify))
		f.coord(t.Width)
		f.str(t.Value)
	}
	return f.String()
}

type formatter struct {
	strings.Builder
	scale float64
}

func (f *formatter) cmd(c byte) {
	if f.Len() > 0 {
		f.WriteByte(' ')
	}
	f.WriteByte(c)
}

func (f *formatter) raw(s string) {
	f.WriteByte(' ')
	f.WriteString(s)
}

func (f *formatter) coord(v float64) {
	f.raw(strconv.FormatFloat(v/f.scale, 'f', -1, 64))
}

func (f *formatter) points(pts []Point) {
	f.raw(strconv.Itoa(len(pts)))
	for _, p := range pts {
		f.coord(p.X)
		f.coord(p.Y)
	}
}

func (f *formatter) str(s string) {
	f.raw(strconv.Itoa(len(s)))
	f.WriteString(" -")
	f.WriteString(s)
}
