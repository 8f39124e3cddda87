// Package xdot parses the per-element draw strings of graphviz's xdot output
// (the _draw_ and _ldraw_ attributes) into geometry in canvas pixels.
package xdot

import (
	"math"
	"strconv"
)

// PointsPerInch is the unit of every xdot coordinate.
const PointsPerInch = 72

// Parse reads one draw string. Coordinates are converted from points to
// pixels with dpi/72; a non-positive dpi leaves them in points.
func Parse(s string, dpi float64) (Record, error) {
	l := &lexer{input: s, scale: scaleFor(dpi)}
	var r Record

	for {
		l.skipSpace()
		if l.done() {
			return r, nil
		}
		start := l.pos
		cmd := l.input[l.pos]
		l.pos++
		if !l.done() && !isSpace(l.input[l.pos]) {
			return Record{}, newParseError(s, start, "unrecognized command")
		}

		var err error
		switch cmd {
		case 'c':
			r.Pen, err = l.str()
		case 'C':
			r.Fill, err = l.str()
		case 'P', 'p':
			r.Polygon, err = l.pointList()
			r.PolygonFilled = cmd == 'P' && len(r.Polygon) > 0
		case 'L':
			r.Polyline, err = l.pointList()
		case 'e', 'E':
			var e Ellipse
			if e.X, err = l.coord(); err != nil {
				break
			}
			if e.Y, err = l.coord(); err != nil {
				break
			}
			if e.W, err = l.coord(); err != nil {
				break
			}
			if e.H, err = l.coord(); err != nil {
				break
			}
			e.Filled = cmd == 'E'
			r.Ellipse = &e
		case 'B', 'b':
			r.Curve, err = l.pointList()
			r.CurveFilled = cmd == 'b' && len(r.Curve) > 0
		case 'F':
			var size float64
			if size, err = l.number(); err != nil {
				break
			}
			r.FontSize = &size
			r.Font, err = l.str()
		case 'T':
			var t Text
			if t.X, err = l.coord(); err != nil {
				break
			}
			if t.Y, err = l.coord(); err != nil {
				break
			}
			var j float64
			if j, err = l.number(); err != nil {
				break
			}
			t.Justify = int(j)
			if t.Width, err = l.coord(); err != nil {
				break
			}
			var v *string
			if v, err = l.str(); err != nil {
				break
			}
			if v != nil {
				t.Value = *v
			}
			r.Text = &t
		case 'S':
			var style *string
			if style, err = l.str(); err == nil && style != nil {
				r.Styles = append(r.Styles, *style)
			}
		case 't':
			var n int
			if n, err = l.count(); err == nil {
				r.FontFlags = &n
			}
		default:
			return Record{}, newParseError(s, start, "unrecognized command")
		}
		if err != nil {
			return Record{}, err
		}
	}
}

func scaleFor(dpi float64) float64 {
	if dpi <= 0 {
		return 1
	}
	return dpi / PointsPerInch
}

type lexer struct {
	input string
	pos   int
	scale float64
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (l *lexer) done() bool { return l.pos >= len(l.input) }

func (l *lexer) skipSpace() {
	for !l.done() && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *lexer) fail(offset int, reason string) error {
	return newParseError(l.input, offset, reason)
}

// word returns the next whitespace separated token.
func (l *lexer) word() (string, int, error) {
	l.skipSpace()
	start := l.pos
	for !l.done() && !isSpace(l.input[l.pos]) {
		l.pos++
	}
	if start == l.pos {
		return "", start, l.fail(start, "unexpected end of input")
	}
	return l.input[start:l.pos], start, nil
}

func (l *lexer) number() (float64, error) {
	w, start, err := l.word()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(w, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, l.fail(start, "malformed number")
	}
	return v, nil
}

func (l *lexer) coord() (float64, error) {
	v, err := l.number()
	return v * l.scale, err
}

func (l *lexer) count() (int, error) {
	w, start, err := l.word()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(w)
	if err != nil || n < 0 {
		return 0, l.fail(start, "malformed count")
	}
	return n, nil
}

func (l *lexer) pointList() ([]Point, error) {
	n, err := l.count()
	if err != nil || n == 0 {
		return nil, err
	}
	pts := make([]Point, n)
	for i := range pts {
		if pts[i].X, err = l.coord(); err != nil {
			return nil, err
		}
		if pts[i].Y, err = l.coord(); err != nil {
			return nil, err
		}
	}
	return pts, nil
}

// str reads "n -<n bytes>". Zero-length strings are returned as nil.
func (l *lexer) str() (*string, error) {
	n, err := l.count()
	if err != nil {
		return nil, err
	}
	l.skipSpace()
	if l.done() || l.input[l.pos] != '-' {
		return nil, l.fail(l.pos, "expected '-' before string field")
	}
	l.pos++
	if l.pos+n > len(l.input) {
		return nil, l.fail(l.pos, "string field shorter than its length")
	}
	if n == 0 {
		return nil, nil
	}
	v := l.input[l.pos : l.pos+n]
	l.pos += n
	return &v, nil
}
