package theme

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document mirrors one theme YAML file. Pointer fields are nil when the
// key is absent so a value can fall back to the defaults document.
type Document struct {
	FrameRate         *int       `yaml:"frame_rate"`
	GraphvizEngine    *string    `yaml:"graphviz_engine"`
	SquashTracks      *bool      `yaml:"squash_tracks"`
	GroupNotesByTrack *bool      `yaml:"group_notes_by_track"`
	NodesSorted       *NodeOrder `yaml:"nodes_sorted"`

	Width           *int     `yaml:"width"`
	Height          *int     `yaml:"height"`
	DPI             *float64 `yaml:"dpi"`
	BackgroundImage *string  `yaml:"background_image"`
	BackgroundColor *string  `yaml:"background_color"`

	Font           *string  `yaml:"font"`
	FontSize       *float64 `yaml:"font_size"`
	ShowGraphLines *bool    `yaml:"show_graph_lines"`
	GraphLineWidth *float64 `yaml:"graph_line_width"`
	HideLetters    *bool    `yaml:"hide_letters"`

	TextLocationOffsets *TextOffsets `yaml:"text_location_offsets"`

	Node NodeStyle `yaml:"node"`

	GraphvizGraphAttrs map[string]string `yaml:"graphviz_graph_attrs"`
	GraphvizNodeAttrs  map[string]string `yaml:"graphviz_node_attrs"`
	GraphvizEdgeAttrs  map[string]string `yaml:"graphviz_edge_attrs"`

	Tracks map[string]TrackStyle `yaml:"tracks"`

	Debug DebugOptions `yaml:"debug"`
}

// NodeStyle styles the static graph nodes.
type NodeStyle struct {
	OutlineColor *string   `yaml:"outline_color"`
	FillColor    *string   `yaml:"fill_color"`
	ShadowColor  *string   `yaml:"shadow_color"`
	ShadowSize   *float64  `yaml:"shadow_size"` // percent
	Text         TextStyle `yaml:"text"`
}

type TextStyle struct {
	Color       *string  `yaml:"color"`
	StrokeColor *string  `yaml:"stroke_color"`
	StrokeWidth *float64 `yaml:"stroke_width"`
}

// Offset is a label nudge in pixels.
type Offset struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// TextOffsets holds separate nudges for one and two character labels.
type TextOffsets struct {
	Len1 Offset `yaml:"len_1"`
	Len2 Offset `yaml:"len_2"`
}

// TrackStyle is the per-track block under tracks.<id> (or tracks.default).
type TrackStyle struct {
	Skip           *bool          `yaml:"skip"`
	AllowSelfNotes *bool          `yaml:"allow_self_notes"`
	Note           NoteStyle      `yaml:"note"`
	ChordLine      ChordLineStyle `yaml:"chord_line"`
	Ball           BallStyle      `yaml:"ball"`
}

type NoteStyle struct {
	Color        *string  `yaml:"color"`
	StrokeWidth  *float64 `yaml:"stroke_width"`
	IncreaseSize *float64 `yaml:"increase_size"` // percent
	NumFrames    *int     `yaml:"num_frames"`
}

type ChordLineStyle struct {
	Width       *float64 `yaml:"width"`
	Color       *string  `yaml:"color"`
	BorderColor *string  `yaml:"border_color"`
}

type BallStyle struct {
	Radius      *float64 `yaml:"radius"`
	Color       *string  `yaml:"color"`
	StrokeColor *string  `yaml:"stroke_color"`
	StrokeWidth *float64 `yaml:"stroke_width"`
	GBlurMax    *float64 `yaml:"g_blur_max"`
}

type DebugOptions struct {
	ShowBaseImage *bool `yaml:"show_base_image"`
	MaxFrames     *int  `yaml:"max_frames"`
}

// NodeOrder is the nodes_sorted option: either a boolean (sort by pitch
// value) or an explicit list of pitch values.
type NodeOrder struct {
	Sorted bool
	Custom []int
}

// Enabled reports whether forced node ordering was requested.
func (o *NodeOrder) Enabled() bool {
	return o != nil && (o.Sorted || len(o.Custom) > 0)
}

func (o *NodeOrder) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := value.Decode(&b); err != nil {
			return fmt.Errorf("nodes_sorted: want bool or list of pitch values: %w", err)
		}
		*o = NodeOrder{Sorted: b}
		return nil
	case yaml.SequenceNode:
		var list []int
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("nodes_sorted: %w", err)
		}
		*o = NodeOrder{Custom: list}
		return nil
	}
	return fmt.Errorf("nodes_sorted: want bool or list of pitch values, line %d", value.Line)
}
