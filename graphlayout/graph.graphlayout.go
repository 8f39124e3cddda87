package graphlayout

import (
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"musicgraph/midiparser"
	"musicgraph/theme"
)

// Skipper reports tracks left out of the graph.
type Skipper interface {
	SkipTrack(track string) bool
}

// Graph is the note graph handed to the layout engine. Nodes are note ids,
// edges join notes that sound in consecutive steps or in the same chord.
type Graph struct {
	g     *multi.UndirectedGraph
	nodes map[string]*noteNode
	// order holds the note ids in encounter order.
	order []string
	edges int

	graphAttrs, nodeAttrs, edgeAttrs attrSet
}

type noteNode struct {
	id    int64
	note  string
	attrs attrSet
}

type attrSet []encoding.Attribute

func (a attrSet) Attributes() []encoding.Attribute { return a }

func (a attrSet) with(key, value string) attrSet {
	return append(a, encoding.Attribute{Key: key, Value: quote(value)})
}

func (n *noteNode) ID() int64                        { return n.id }
func (n *noteNode) DOTID() string                    { return quote(n.note) }
func (n *noteNode) Attributes() []encoding.Attribute { return n.attrs }

func (n *noteNode) set(key, value string) { n.attrs = n.attrs.with(key, value) }

// dotGraph carries the attribute statements through dot.MarshalMulti.
type dotGraph struct {
	*multi.UndirectedGraph
	graph, node, edge attrSet
}

func (w dotGraph) DOTAttributers() (g, n, e encoding.Attributer) { return w.graph, w.node, w.edge }

// NewGraph returns an empty note graph.
func NewGraph() *Graph {
	return &Graph{
		g:     multi.NewUndirectedGraph(),
		nodes: map[string]*noteNode{},
	}
}

// Build creates the note graph of every track the skipper keeps. Tracks
// are visited in sorted order, frames in ascending order.
func Build(tl midiparser.Timeline, skip Skipper) *Graph {
	gr := NewGraph()
	for _, track := range tl.Tracks() {
		if skip != nil && skip.SkipTrack(track) {
			continue
		}
		frames := tl[track]
		var prev []string
		for _, f := range frames.Frames() {
			chord := frames[f]
			cur := midiparser.IDs(chord)
			for _, id := range cur {
				gr.AddNote(id)
			}
			for _, a := range prev {
				for _, b := range cur {
					gr.Connect(a, b)
				}
			}
			for _, p := range midiparser.ChordPairs(chord) {
				gr.Connect(p[0].NoteID, p[1].NoteID)
			}
			prev = cur
		}
	}
	return gr
}

// AddNote adds a node labelled with the pitch class of id. Adding a note
// twice is a no-op.
func (gr *Graph) AddNote(id string) {
	if _, ok := gr.nodes[id]; ok {
		return
	}
	n := &noteNode{id: int64(len(gr.order)), note: id}
	n.set("label", midiparser.PitchClass(id))
	gr.g.AddNode(n)
	gr.nodes[id] = n
	gr.order = append(gr.order, id)
}

// Connect adds the edge a -- b unless the two notes are already joined.
// Both notes are added when missing.
func (gr *Graph) Connect(a, b string) {
	gr.AddNote(a)
	gr.AddNote(b)
	na, nb := gr.nodes[a], gr.nodes[b]
	if gr.g.HasEdgeBetween(na.id, nb.id) {
		return
	}
	gr.g.SetLine(gr.g.NewLine(na, nb))
	gr.edges++
}

// Notes returns the note ids in encounter order.
func (gr *Graph) Notes() []string { return slices.Clone(gr.order) }

// Len returns the number of notes.
func (gr *Graph) Len() int { return len(gr.order) }

// HasEdge reports whether a and b are joined.
func (gr *Graph) HasEdge(a, b string) bool {
	na, okA := gr.nodes[a]
	nb, okB := gr.nodes[b]
	return okA && okB && gr.g.HasEdgeBetween(na.id, nb.id)
}

// EdgeCount returns the number of distinct edges, self loops included.
func (gr *Graph) EdgeCount() int { return gr.edges }

// SetAttrs installs the graph, node and edge attribute statements.
func (gr *Graph) SetAttrs(g, n, e map[string]string) {
	gr.graphAttrs = toAttrs(g)
	gr.nodeAttrs = toAttrs(n)
	gr.edgeAttrs = toAttrs(e)
}

// Pin fixes the position (in inches) of every note found in pos.
func (gr *Graph) Pin(pos map[string]Position) {
	for _, id := range gr.order {
		p, ok := pos[id]
		if !ok {
			continue
		}
		gr.nodes[id].set("pos", p.Pinned())
	}
}

// Ring returns a graph over notes joined in a cycle: each note to the next
// and the last back to the first.
func (gr *Graph) Ring(notes []string) *Graph {
	ring := NewGraph()
	ring.graphAttrs, ring.nodeAttrs, ring.edgeAttrs = gr.graphAttrs, gr.nodeAttrs, gr.edgeAttrs
	for i, id := range notes {
		ring.AddNote(id)
		if i > 0 {
			ring.Connect(notes[i-1], id)
		}
	}
	if len(notes) > 0 {
		ring.Connect(notes[len(notes)-1], notes[0])
	}
	return ring
}

// RingOrder returns the notes of gr in the order a forced layout puts them
// around the circle.
func (gr *Graph) RingOrder(order theme.NodeOrder) []string {
	notes := gr.Notes()
	switch {
	case len(order.Custom) > 0:
		var ordered []string
		for _, want := range order.Custom {
			for _, id := range notes {
				if _, pitch, ok := midiparser.SplitNoteID(id); ok && pitch == want {
					ordered = append(ordered, id)
				}
			}
		}
		return ordered
	case order.Sorted:
		slices.SortStableFunc(notes, func(a, b string) int {
			_, pa, _ := midiparser.SplitNoteID(a)
			_, pb, _ := midiparser.SplitNoteID(b)
			return pa - pb
		})
	}
	return notes
}

// MarshalDOT encodes the graph as an undirected DOT graph named G.
func (gr *Graph) MarshalDOT() ([]byte, error) {
	var mg graph.Multigraph = dotGraph{
		UndirectedGraph: gr.g,
		graph:           gr.graphAttrs,
		node:            gr.nodeAttrs,
		edge:            gr.edgeAttrs,
	}
	return dot.MarshalMulti(mg, "G", "", "\t")
}

func toAttrs(m map[string]string) attrSet {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var a attrSet
	for _, k := range keys {
		a = a.with(k, m[k])
	}
	return a
}

func quote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s
	}
	return strconv.Quote(s)
}
