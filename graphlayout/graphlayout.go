// Package graphlayout turns a note timeline into a graph and asks graphviz
// to lay it out, returning the xdot document the scene is drawn from.
package graphlayout

import (
	"context"
	"fmt"
	"os"

	"musicgraph/logger"
	"musicgraph/midiparser"
	"musicgraph/theme"
	"musicgraph/workspace"
)

// Format is the graphviz output the scene builder reads.
const Format = "xdot"

// PinnedEngine lays out the final graph when node positions are forced.
const PinnedEngine = "neato"

// Layout builds the note graph of tl and returns the xdot document for it.
// With nodes_sorted the notes are first placed around a circle in the
// requested order and then pinned there for the final layout.
func Layout(ctx context.Context, ws *workspace.Workspace, tl midiparser.Timeline, th *theme.Theme, r Runner) ([]byte, error) {
	if err := th.CheckNodeOrdering(); err != nil {
		return nil, err
	}

	gr := Build(tl, th)
	gr.SetAttrs(th.GraphvizAttrs())
	logger.Logger().Info("note graph built", "notes", gr.Len())

	order := th.NodesSorted()
	if !order.Enabled() {
		return run(ctx, ws, r, gr, "graph", th.GraphvizEngine(), Format)
	}

	ringNotes := gr.RingOrder(order)
	if len(ringNotes) == 0 {
		return nil, &theme.ConfigError{Option: "nodes_sorted", Reason: "no note of the song is in the requested order"}
	}
	plain, err := run(ctx, ws, r, gr.Ring(ringNotes), "order", th.GraphvizEngine(), "plain")
	if err != nil {
		return nil, err
	}
	pos, err := ParsePlain(plain)
	if err != nil {
		return nil, err
	}
	gr.Pin(pos)
	return run(ctx, ws, r, gr, "graph", PinnedEngine, Format)
}

// run writes gr to <name>.gv in the workspace, lays it out into
// <name>.<format> and returns the output.
func run(ctx context.Context, ws *workspace.Workspace, r Runner, gr *Graph, name, engine, format string) ([]byte, error) {
	src, err := gr.MarshalDOT()
	if err != nil {
		return nil, fmt.Errorf("encoding %s graph: %w", name, err)
	}
	input := ws.Path(name + ".gv")
	if err := os.WriteFile(input, src, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", input, err)
	}
	output := ws.Path(name + "." + format)
	if err := r.Run(ctx, engine, format, input, output); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("reading layout %s: %w", output, err)
	}
	return data, nil
}
