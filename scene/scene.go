// Package scene draws the static graph (background, nodes, labels and
// optional edge lines) from a graphviz xdot document and records the node
// and edge geometry the animation is laid over.
package scene

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"musicgraph/logger"
	"musicgraph/theme"
	"musicgraph/xdot"
)

// Scene is the result of drawing the layout once.
type Scene struct {
	// Base is the host canvas with the graph pasted on it. Frames start as
	// a copy of it.
	Base *image.RGBA
	// Nodes maps a note id to its ellipse in graph coordinates.
	Nodes map[string]xdot.Ellipse
	// Edges holds every edge curve under both orderings of its notes.
	Edges map[string]map[string][]xdot.Point
	// Offset centres the graph on the canvas. Add it to graph coordinates.
	Offset image.Point
}

// Node returns the ellipse of a note.
func (s *Scene) Node(id string) (xdot.Ellipse, bool) {
	e, ok := s.Nodes[id]
	return e, ok
}

// Lookup returns the curve joining a and b in either direction.
func (s *Scene) Lookup(a, b string) ([]xdot.Point, bool) {
	pts, ok := s.Edges[a][b]
	return pts, ok
}

// Bounds returns the canvas rectangle.
func (s *Scene) Bounds() image.Rectangle { return s.Base.Bounds() }

// Clone returns a copy of the base canvas.
func (s *Scene) Clone() *image.RGBA {
	dst := image.NewRGBA(s.Base.Bounds())
	copy(dst.Pix, s.Base.Pix)
	return dst
}

type builder struct {
	th     *theme.Theme
	dpi    float64
	scene  *Scene
	layer  *image.RGBA
	dc     *gg.Context
	sized  bool
	labels *labelPainter
}

// Build reads the xdot document doc and draws the base canvas.
func Build(doc []byte, th *theme.Theme) (*Scene, error) {
	stmts, err := parseDocument(doc)
	if err != nil {
		return nil, err
	}
	host, err := newHostCanvas(th)
	if err != nil {
		return nil, err
	}

	b := &builder{
		th:  th,
		dpi: th.DPI(),
		scene: &Scene{
			Base:  host,
			Nodes: map[string]xdot.Ellipse{},
			Edges: map[string]map[string][]xdot.Point{},
		},
		layer: image.NewRGBA(host.Bounds()),
	}
	b.dc = gg.NewContextForRGBA(b.layer)
	if !th.HideLetters() {
		if b.labels, err = newLabelPainter(th); err != nil {
			return nil, err
		}
	}

	for _, st := range stmts {
		if err := b.apply(st); err != nil {
			return nil, err
		}
	}

	pasteCenter(host, b.layer)
	logger.Logger().Info("scene built", "nodes", len(b.scene.Nodes), "offset", b.scene.Offset)
	return b.scene, nil
}

func (b *builder) apply(st statement) error {
	if st.kind == graphStatement {
		return b.size(st.attrs)
	}

	if s, ok := st.attrs["_draw_"]; ok {
		rec, err := xdot.Parse(s, b.dpi)
		if err != nil {
			return fmt.Errorf("%s _draw_: %w", st.id, err)
		}
		switch {
		case st.kind == nodeStatement && rec.HasEllipse():
			b.drawNode(*rec.Ellipse)
			b.scene.Nodes[st.id] = *rec.Ellipse
		case st.kind == edgeStatement && rec.HasCurve():
			b.addEdge(st.id, st.to, rec.Curve)
			if b.th.ShowGraphLines() {
				b.drawEdge(rec)
			}
		}
	}

	if s, ok := st.attrs["_ldraw_"]; ok && b.labels != nil {
		rec, err := xdot.Parse(s, b.dpi)
		if err != nil {
			return fmt.Errorf("%s _ldraw_: %w", st.id, err)
		}
		if rec.Text != nil {
			b.labels.draw(b.dc, *rec.Text, b.scene.Offset)
		}
	}
	return nil
}

// size computes the centring offset from the first graph statement that
// carries a background polygon or a bounding box.
func (b *builder) size(attrs map[string]string) error {
	if b.sized {
		return nil
	}
	var w, h int
	if s, ok := attrs["_draw_"]; ok {
		rec, err := xdot.Parse(s, b.dpi)
		if err != nil {
			return fmt.Errorf("graph _draw_: %w", err)
		}
		w, h = rec.Bounds()
	} else if bb, ok := attrs["bb"]; ok {
		var err error
		if w, h, err = parseBB(bb, b.dpi); err != nil {
			return err
		}
	} else {
		return nil
	}
	bounds := b.scene.Base.Bounds()
	b.scene.Offset = image.Pt((bounds.Dx()-w)/2, (bounds.Dy()-h)/2)
	b.sized = true
	return nil
}

func (b *builder) addEdge(from, to string, curve []xdot.Point) {
	for _, pair := range [2][2]string{{from, to}, {to, from}} {
		m, ok := b.scene.Edges[pair[0]]
		if !ok {
			m = map[string][]xdot.Point{}
			b.scene.Edges[pair[0]] = m
		}
		m[pair[1]] = curve
	}
}

// parseBB reads "llx,lly,urx,ury" (points) into a pixel width and height.
func parseBB(bb string, dpi float64) (int, int, error) {
	parts := strings.Split(bb, ",")
	if len(parts) != 4 {
		return 0, 0, fmt.Errorf("bad bb %q", bb)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad bb %q: %w", bb, err)
		}
		v[i] = f
	}
	scale := 1.0
	if dpi > 0 {
		scale = dpi / xdot.PointsPerInch
	}
	return int((v[2] - v[0]) * scale), int((v[3] - v[1]) * scale), nil
}

// pasteCenter composites src over the middle of dst.
func pasteCenter(dst, src *image.RGBA) {
	db, sb := dst.Bounds(), src.Bounds()
	at := image.Pt((db.Dx()-sb.Dx())/2, (db.Dy()-sb.Dy())/2)
	draw.Draw(dst, sb.Sub(sb.Min).Add(at), src, sb.Min, draw.Over)
}
