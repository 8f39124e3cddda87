package graphlayout

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"musicgraph/midiparser"
	"musicgraph/theme"
	"musicgraph/workspace"
)

const defaults = `
frame_rate: 30
graphviz_engine: circo
width: 100
height: 100
dpi: 72
node:
  text:
    color: black
graphviz_node_attrs:
  shape: circle
tracks:
  default:
    note:
      color: "#ff8000"
    chord_line:
      color: black
      border_color: white
    ball:
      color: black
  track_1:
    skip: true
`

func testTheme(t *testing.T, user string) *theme.Theme {
	t.Helper()
	th, err := theme.Parse([]byte(user), []byte(defaults))
	if err != nil {
		t.Fatalf("theme.Parse() error = %v", err)
	}
	return th
}

func timeline(frames map[string]map[int][]string) midiparser.Timeline {
	tl := midiparser.Timeline{}
	for track, byFrame := range frames {
		tf := midiparser.TrackFrames{}
		for frame, ids := range byFrame {
			for _, id := range ids {
				tf.Add(midiparser.NoteEvent{NoteID: id, StartFrame: frame, DurationFrames: 1, TrackID: track, Velocity: 100})
			}
		}
		tl[track] = tf
	}
	return tl
}

type skipSet map[string]bool

func (s skipSet) SkipTrack(track string) bool { return s[track] }

func TestBuild(t *testing.T) {
	tl := timeline(map[string]map[int][]string{
		"track_1": {0: {"n-12"}},
		"track_2": {0: {"n-1"}, 5: {"n-5", "n-3"}, 9: {"n-1"}},
	})
	gr := Build(tl, skipSet{"track_1": true})

	if got := gr.Notes(); strings.Join(got, " ") != "n-1 n-5 n-3" {
		t.Errorf("Notes() = %v, want encounter order [n-1 n-5 n-3]", got)
	}
	edges := [][2]string{
		{"n-1", "n-5"}, {"n-1", "n-3"}, // melodic
		{"n-3", "n-5"}, // chord
		{"n-5", "n-1"}, // melodic, reversed
	}
	for _, e := range edges {
		if !gr.HasEdge(e[0], e[1]) {
			t.Errorf("HasEdge(%s, %s) = false", e[0], e[1])
		}
	}
	if gr.HasEdge("n-1", "n-12") {
		t.Error("skipped track contributed an edge")
	}
	if got := gr.EdgeCount(); got != 3 {
		t.Errorf("EdgeCount() = %d, want 3 after collapsing duplicates", got)
	}
}

func TestBuildSelfEdge(t *testing.T) {
	tl := timeline(map[string]map[int][]string{"track_2": {0: {"n-1"}, 1: {"n-1"}}})
	gr := Build(tl, nil)
	if !gr.HasEdge("n-1", "n-1") {
		t.Error("repeated note should give a self edge")
	}
}

func TestMarshalDOT(t *testing.T) {
	gr := NewGraph()
	gr.Connect("n-1", "n-7")
	gr.SetAttrs(map[string]string{"bgcolor": "transparent"}, map[string]string{"shape": "circle"}, nil)
	gr.Pin(map[string]Position{"n-7": {X: 1.5, Y: 2}})

	out, err := gr.MarshalDOT()
	if err != nil {
		t.Fatalf("MarshalDOT() error = %v", err)
	}
	for _, want := range []string{`"n-1"`, `"n-7"`, "--", `label="F#"`, `pos="1.5,2!"`, `shape="circle"`, `bgcolor="transparent"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("MarshalDOT() output lacks %s:\n%s", want, out)
		}
	}
}

func TestRingOrder(t *testing.T) {
	gr := NewGraph()
	for _, id := range []string{"n-5", "n-1", "n-12", "n-3"} {
		gr.AddNote(id)
	}
	tests := []struct {
		order theme.NodeOrder
		want  string
	}{
		{theme.NodeOrder{}, "n-5 n-1 n-12 n-3"},
		{theme.NodeOrder{Sorted: true}, "n-1 n-3 n-5 n-12"},
		{theme.NodeOrder{Custom: []int{12, 8, 1}}, "n-12 n-1"},
	}
	for _, tt := range tests {
		if got := strings.Join(gr.RingOrder(tt.order), " "); got != tt.want {
			t.Errorf("RingOrder(%+v) = %q, want %q", tt.order, got, tt.want)
		}
	}

	ring := gr.Ring([]string{"n-1", "n-3", "n-5"})
	for _, e := range [][2]string{{"n-1", "n-3"}, {"n-3", "n-5"}, {"n-5", "n-1"}} {
		if !ring.HasEdge(e[0], e[1]) {
			t.Errorf("ring lacks %s -- %s", e[0], e[1])
		}
	}
}

func TestParsePlain(t *testing.T) {
	doc := `graph 1 4.5 4.5
node "n-1" 2.25 4 0.5 0.5 C solid circle black lightgrey
node "a b\"c" 0.25 2.25 0.5 0.5 "F#" solid circle black lightgrey
edge "n-1" "a b\"c" 4 2.2 3.9 1.9 3.6 1.6 3.3 solid black
stop
`
	pos, err := ParsePlain([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePlain() error = %v", err)
	}
	if got := pos["n-1"]; got != (Position{X: 2.25, Y: 4}) {
		t.Errorf("pos[n-1] = %+v", got)
	}
	if got := pos[`a b"c`]; got != (Position{X: 0.25, Y: 2.25}) {
		t.Errorf("quoted name position = %+v", got)
	}

	for _, bad := range []string{"node \"n-1 2 3\n", "node n-1 x 3\n", "node n-1\n"} {
		if _, err := ParsePlain([]byte(bad)); err == nil {
			t.Errorf("ParsePlain(%q) error = nil", bad)
		}
	}
}

// fakeRunner records calls and writes canned output per format.
type fakeRunner struct {
	calls  []string
	inputs []string
	output map[string]string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, engine, format, input, output string) error {
	f.calls = append(f.calls, engine+" "+format)
	src, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	f.inputs = append(f.inputs, string(src))
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(output, []byte(f.output[format]), 0o644)
}

func newWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestLayoutDefault(t *testing.T) {
	r := &fakeRunner{output: map[string]string{"xdot": "graph G {}"}}
	tl := timeline(map[string]map[int][]string{"track_2": {0: {"n-1"}, 3: {"n-8"}}})

	out, err := Layout(context.Background(), newWorkspace(t), tl, testTheme(t, ""), r)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if string(out) != "graph G {}" {
		t.Errorf("Layout() = %q", out)
	}
	if len(r.calls) != 1 || r.calls[0] != "circo xdot" {
		t.Errorf("runner calls = %v, want [circo xdot]", r.calls)
	}
	if !strings.Contains(r.inputs[0], `shape="circle"`) {
		t.Errorf("graph attrs missing from input:\n%s", r.inputs[0])
	}
}

func TestLayoutForcedOrder(t *testing.T) {
	r := &fakeRunner{output: map[string]string{
		"plain": "graph 1 2 2\nnode \"n-1\" 1 2 0.5 0.5 C solid circle black none\nnode \"n-8\" 1 0 0.5 0.5 G solid circle black none\nstop\n",
		"xdot":  "graph G {}",
	}}
	tl := timeline(map[string]map[int][]string{"track_2": {0: {"n-8"}, 3: {"n-1"}}})

	_, err := Layout(context.Background(), newWorkspace(t), tl, testTheme(t, "nodes_sorted: true\n"), r)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if strings.Join(r.calls, ",") != "circo plain,neato xdot" {
		t.Fatalf("runner calls = %v, want circo plain then neato xdot", r.calls)
	}
	if !strings.Contains(r.inputs[1], `pos="1,2!"`) || !strings.Contains(r.inputs[1], `pos="1,0!"`) {
		t.Errorf("final graph does not pin positions:\n%s", r.inputs[1])
	}
}

func TestLayoutForcedOrderNothingLeft(t *testing.T) {
	tl := timeline(map[string]map[int][]string{"track_2": {0: {"n-8"}}})
	_, err := Layout(context.Background(), newWorkspace(t), tl, testTheme(t, "nodes_sorted: [2]\n"), &fakeRunner{})
	var ce *theme.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("Layout() error = %v, want *theme.ConfigError", err)
	}
}

func TestLayoutRunnerError(t *testing.T) {
	r := &fakeRunner{err: errors.New("boom")}
	tl := timeline(map[string]map[int][]string{"track_2": {0: {"n-8"}}})
	if _, err := Layout(context.Background(), newWorkspace(t), tl, testTheme(t, ""), r); err == nil {
		t.Error("Layout() error = nil, want runner failure")
	}
}
