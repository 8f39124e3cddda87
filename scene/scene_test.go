package scene

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"musicgraph/theme"
	"musicgraph/workspace"
)

const layout = `graph G {
	graph [_draw_="c 9 -#fffffe00 C 7 -#ffffff P 4 0 0 0 100 200 100 200 0 ",
		bb="0,0,200,100",
		xdotversion=1.7
	];
	node [label="\N"];
	"n-1" [_draw_="c 7 -#000000 e 27 18 27 18 ",
		_ldraw_="F 14 11 -Times-Roman c 7 -#000000 T 27 13.8 0 9.33 1 -C ",
		label=C];
	"n-2" [_draw_="c 7 -#000000 e 150 50 27 18 ",
		_ldraw_="F 14 11 -Times-Roman c 7 -#000000 T 150 46 0 9.33 2 -Db ",
		label=Db];
	"n-1" -- "n-2" [_draw_="c 7 -#000000 B 4 40 30 80 40 110 45 \
130 48 "];
}
`

const defaults = `
frame_rate: 30
graphviz_engine: circo
width: 400
height: 300
dpi: 72
font_size: 14
text_location_offsets:
  len_1: {x: 0, y: 0}
  len_2: {x: 0, y: 0}
node:
  text:
    color: "#ff0000"
tracks:
  default:
    note:
      color: "#ff8000"
    chord_line:
      color: black
      border_color: white
    ball:
      color: black
`

func build(t *testing.T, user string) *Scene {
	t.Helper()
	th, err := theme.Parse([]byte(user), []byte(defaults))
	if err != nil {
		t.Fatalf("theme.Parse() error = %v", err)
	}
	sc, err := Build([]byte(layout), th)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return sc
}

func TestBuildGeometry(t *testing.T) {
	sc := build(t, "hide_letters: true\n")

	if got := sc.Bounds(); got != image.Rect(0, 0, 400, 300) {
		t.Errorf("Bounds() = %v, want 400x300", got)
	}
	if sc.Offset != image.Pt(100, 100) {
		t.Errorf("Offset = %v, want (100,100)", sc.Offset)
	}
	if e, ok := sc.Node("n-2"); !ok || e.X != 150 || e.W != 27 {
		t.Errorf("Node(n-2) = %+v, %v", e, ok)
	}
	ab, okAB := sc.Lookup("n-1", "n-2")
	ba, okBA := sc.Lookup("n-2", "n-1")
	if !okAB || !okBA || len(ab) != 4 || len(ba) != 4 {
		t.Fatalf("Lookup both orderings = %v %v / %v %v", ab, okAB, ba, okBA)
	}
	if ab[3].X != 130 || ab[3].Y != 48 {
		t.Errorf("continued curve point = %+v, want {130 48}", ab[3])
	}
	if _, ok := sc.Lookup("n-1", "n-3"); ok {
		t.Error("Lookup of an absent edge succeeded")
	}
}

func TestBuildDPIScaling(t *testing.T) {
	th, err := theme.Parse([]byte("dpi: 144\nhide_letters: true\n"), []byte(defaults))
	if err != nil {
		t.Fatal(err)
	}
	sc, err := Build([]byte(layout), th)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Offset != image.Pt(0, 50) {
		t.Errorf("Offset at dpi 144 = %v, want (0,50)", sc.Offset)
	}
	if e := sc.Nodes["n-1"]; e.X != 54 || e.H != 36 {
		t.Errorf("scaled node = %+v", e)
	}
}

func TestBuildBackgroundColor(t *testing.T) {
	sc := build(t, "hide_letters: true\nbackground_color: \"#000000\"\n")
	if got := sc.Base.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("corner pixel = %v, want opaque black", got)
	}
	clone := sc.Clone()
	clone.Set(0, 0, color.White)
	if sc.Base.RGBAAt(0, 0) == clone.RGBAAt(0, 0) {
		t.Error("Clone() shares pixels with the base canvas")
	}
}

// reddish counts pixels in r dominated by the label colour.
func reddish(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.R > 200 && c.G < 120 {
				n++
			}
		}
	}
	return n
}

func TestBuildLabels(t *testing.T) {
	// The C label sits with its top left corner at (127, 113.8).
	box := image.Rect(120, 105, 150, 140)
	if n := reddish(build(t, "").Base, box); n == 0 {
		t.Error("label pixels not drawn")
	}
	if n := reddish(build(t, "hide_letters: true\n").Base, box); n != 0 {
		t.Errorf("hide_letters left %d label pixels", n)
	}

	moved := build(t, "text_location_offsets:\n  len_1: {x: 100, y: 0}\n  len_2: {x: 0, y: 0}\n").Base
	if n := reddish(moved, box); n != 0 {
		t.Errorf("len_1 nudge ignored: %d pixels left in the unshifted box", n)
	}
	// Db is two characters long and keeps the len_2 offset.
	if n := reddish(moved, image.Rect(245, 140, 285, 180)); n == 0 {
		t.Error("two character label moved with len_1")
	}
}

func TestBuildNodeAndShadow(t *testing.T) {
	sc := build(t, `hide_letters: true
node:
  fill_color: "#0000ff"
  shadow_color: "#00ff00"
  shadow_size: 50
`)
	// n-1 is centred at (127, 118) with half-axes 27x18.
	if got := sc.Base.RGBAAt(127, 118); got.B < 200 || got.R > 50 {
		t.Errorf("node centre = %v, want blue fill", got)
	}
	if got := sc.Base.RGBAAt(127, 118-18-4); got.G == 255 && got.R == 255 {
		t.Errorf("pixel just outside the node = %v, want tinted by the shadow", got)
	}
}

func TestBuildMissingResources(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	for _, user := range []string{
		"font: " + missing + ".ttf\n",
		"background_image: " + missing + ".png\n",
	} {
		th, err := theme.Parse([]byte(user), []byte(defaults))
		if err != nil {
			t.Fatal(err)
		}
		_, err = Build([]byte(layout), th)
		var re *workspace.ResourceError
		if !errors.As(err, &re) {
			t.Errorf("Build() with %q error = %v, want *workspace.ResourceError", user, err)
		}
	}
}

func TestBuildRejectsBadDocuments(t *testing.T) {
	th, err := theme.Parse(nil, []byte(defaults))
	if err != nil {
		t.Fatal(err)
	}
	for _, doc := range []string{
		"graph G {",
		`graph G { "n-1" [_draw_="e 1 2 3"]; }`,
	} {
		if _, err := Build([]byte(doc), th); err == nil {
			t.Errorf("Build(%q) error = nil", doc)
		}
	}
}
