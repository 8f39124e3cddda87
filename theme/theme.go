// Package theme loads theme YAML documents and resolves every rendering
// option against an embedded defaults document.
package theme

import (
	"embed"
	"fmt"
	"image/color"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"musicgraph/workspace"
)

// DefaultTrack is the tracks.<id> key consulted when a track has no own value.
const DefaultTrack = "default"

// CircularEngine is the only layout engine forced node ordering works with.
const CircularEngine = "circo"

//go:embed assets/*.yaml
var assets embed.FS

// Base selects one of the embedded default themes.
type Base string

const (
	Light Base = "light"
	Dark  Base = "dark"
)

// Theme resolves options from a user document first and a defaults
// document second.
type Theme struct {
	doc      *Document
	defaults *Document
}

// Load reads the theme at path (optional) on top of the embedded base theme.
func Load(path string, base Base) (*Theme, error) {
	defaults, err := assets.ReadFile("assets/" + string(base) + ".yaml")
	if err != nil {
		return nil, &ConfigError{Option: "base theme", Reason: fmt.Sprintf("unknown base theme %q", base)}
	}
	var user []byte
	if path != "" {
		if err := workspace.RequireFile("theme", path); err != nil {
			return nil, err
		}
		if user, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading theme %s: %w", path, err)
		}
	}
	return Parse(user, defaults)
}

// Parse builds a Theme from raw YAML. Either document may be empty.
func Parse(user, defaults []byte) (*Theme, error) {
	doc, err := decode(user, "theme")
	if err != nil {
		return nil, err
	}
	def, err := decode(defaults, "defaults")
	if err != nil {
		return nil, err
	}
	t := &Theme{doc: doc, defaults: def}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func decode(data []byte, which string) (*Document, error) {
	var d Document
	if len(strings.TrimSpace(string(data))) == 0 {
		return &d, nil
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, &ConfigError{Option: which, Reason: err.Error()}
	}
	return &d, nil
}

func (t *Theme) docs() [2]*Document { return [2]*Document{t.doc, t.defaults} }

// global resolves a top-level option: user document, then defaults.
func global[T any](t *Theme, get func(*Document) *T) (T, bool) {
	for _, d := range t.docs() {
		if v := get(d); v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

// track resolves a per-track option: tracks.<id> then tracks.default of
// the user document, then the same two keys of the defaults document.
func track[T any](t *Theme, id string, get func(*TrackStyle) *T) (T, bool) {
	for _, d := range t.docs() {
		for _, key := range [2]string{id, DefaultTrack} {
			ts, ok := d.Tracks[key]
			if !ok {
				continue
			}
			if v := get(&ts); v != nil {
				return *v, true
			}
		}
	}
	var zero T
	return zero, false
}

func (t *Theme) FrameRate() int {
	v, _ := global(t, func(d *Document) *int { return d.FrameRate })
	return v
}

func (t *Theme) GraphvizEngine() string {
	v, _ := global(t, func(d *Document) *string { return d.GraphvizEngine })
	return v
}

func (t *Theme) SquashTracks() bool {
	v, _ := global(t, func(d *Document) *bool { return d.SquashTracks })
	return v
}

func (t *Theme) GroupNotesByTrack() bool {
	v, _ := global(t, func(d *Document) *bool { return d.GroupNotesByTrack })
	return v
}

// NodesSorted returns the forced node ordering request, zero when absent.
func (t *Theme) NodesSorted() NodeOrder {
	v, _ := global(t, func(d *Document) *NodeOrder { return d.NodesSorted })
	return v
}

func (t *Theme) Width() int {
	v, _ := global(t, func(d *Document) *int { return d.Width })
	return v
}

func (t *Theme) Height() int {
	v, _ := global(t, func(d *Document) *int { return d.Height })
	return v
}

func (t *Theme) DPI() float64 {
	v, _ := global(t, func(d *Document) *float64 { return d.DPI })
	return v
}

func (t *Theme) BackgroundImage() string {
	v, _ := global(t, func(d *Document) *string { return d.BackgroundImage })
	return v
}

// BackgroundColor falls back to white.
func (t *Theme) BackgroundColor() color.NRGBA {
	v, ok := global(t, func(d *Document) *string { return d.BackgroundColor })
	if !ok {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return mustColor(v)
}

func (t *Theme) Font() string {
	v, _ := global(t, func(d *Document) *string { return d.Font })
	return v
}

func (t *Theme) FontSize() float64 {
	v, _ := global(t, func(d *Document) *float64 { return d.FontSize })
	return v
}

func (t *Theme) ShowGraphLines() bool {
	v, _ := global(t, func(d *Document) *bool { return d.ShowGraphLines })
	return v
}

func (t *Theme) GraphLineWidth() float64 {
	v, _ := global(t, func(d *Document) *float64 { return d.GraphLineWidth })
	return v
}

func (t *Theme) HideLetters() bool {
	v, _ := global(t, func(d *Document) *bool { return d.HideLetters })
	return v
}

func (t *Theme) TextLocationOffsets() TextOffsets {
	v, _ := global(t, func(d *Document) *TextOffsets { return d.TextLocationOffsets })
	return v
}

// LabelOffset returns the nudge for a label of the given text. Two
// character labels (sharps and flats) use len_2, everything else len_1.
func (t *Theme) LabelOffset(text string) Offset {
	offsets := t.TextLocationOffsets()
	if len([]rune(text)) == 2 {
		return offsets.Len2
	}
	return offsets.Len1
}

func (t *Theme) NodeOutlineColor() (color.NRGBA, bool) {
	return optionalColor(global(t, func(d *Document) *string { return d.Node.OutlineColor }))
}

func (t *Theme) NodeFillColor() (color.NRGBA, bool) {
	return optionalColor(global(t, func(d *Document) *string { return d.Node.FillColor }))
}

func (t *Theme) NodeShadowColor() (color.NRGBA, bool) {
	return optionalColor(global(t, func(d *Document) *string { return d.Node.ShadowColor }))
}

// NodeShadowSize is the shadow enlargement as a fraction of the node size.
func (t *Theme) NodeShadowSize() float64 {
	v, _ := global(t, func(d *Document) *float64 { return d.Node.ShadowSize })
	return v / 100
}

func (t *Theme) NodeTextColor() color.NRGBA {
	v, _ := global(t, func(d *Document) *string { return d.Node.Text.Color })
	return mustColor(v)
}

func (t *Theme) NodeTextStrokeColor() (color.NRGBA, bool) {
	return optionalColor(global(t, func(d *Document) *string { return d.Node.Text.StrokeColor }))
}

func (t *Theme) NodeTextStrokeWidth() float64 {
	v, _ := global(t, func(d *Document) *float64 { return d.Node.Text.StrokeWidth })
	return v
}

// GraphvizAttrs returns the graph, node and edge attribute sets, with user
// values overriding defaults key by key.
func (t *Theme) GraphvizAttrs() (graph, node, edge map[string]string) {
	merge := func(get func(*Document) map[string]string) map[string]string {
		out := map[string]string{}
		for k, v := range get(t.defaults) {
			out[k] = v
		}
		for k, v := range get(t.doc) {
			out[k] = v
		}
		return out
	}
	graph = merge(func(d *Document) map[string]string { return d.GraphvizGraphAttrs })
	node = merge(func(d *Document) map[string]string { return d.GraphvizNodeAttrs })
	edge = merge(func(d *Document) map[string]string { return d.GraphvizEdgeAttrs })
	return graph, node, edge
}

func (t *Theme) DebugShowBaseImage() bool {
	v, _ := global(t, func(d *Document) *bool { return d.Debug.ShowBaseImage })
	return v
}

// DebugMaxFrames caps the number of composited frames; 0 means no cap.
func (t *Theme) DebugMaxFrames() int {
	v, _ := global(t, func(d *Document) *int { return d.Debug.MaxFrames })
	return max(v, 0)
}

// Tracks lists the track ids the user theme configures explicitly.
func (t *Theme) Tracks() []string {
	var ids []string
	for id := range t.doc.Tracks {
		if id != DefaultTrack {
			ids = append(ids, id)
		}
	}
	return ids
}

func (t *Theme) SkipTrack(id string) bool {
	v, _ := track(t, id, func(s *TrackStyle) *bool { return s.Skip })
	return v
}

func (t *Theme) AllowSelfNotes(id string) bool {
	v, _ := track(t, id, func(s *TrackStyle) *bool { return s.AllowSelfNotes })
	return v
}

func (t *Theme) NoteColor(id string) color.NRGBA {
	v, _ := track(t, id, func(s *TrackStyle) *string { return s.Note.Color })
	return mustColor(v)
}

func (t *Theme) NoteStrokeWidth(id string) float64 {
	v, _ := track(t, id, func(s *TrackStyle) *float64 { return s.Note.StrokeWidth })
	return v
}

// NoteIncreaseSize is the pulse growth as a fraction of the node size.
func (t *Theme) NoteIncreaseSize(id string) float64 {
	v, _ := track(t, id, func(s *TrackStyle) *float64 { return s.Note.IncreaseSize })
	return v / 100
}

func (t *Theme) NoteNumFrames(id string) int {
	v, _ := track(t, id, func(s *TrackStyle) *int { return s.Note.NumFrames })
	return v
}

func (t *Theme) ChordLineWidth(id string) float64 {
	v, _ := track(t, id, func(s *TrackStyle) *float64 { return s.ChordLine.Width })
	return v
}

func (t *Theme) ChordLineColor(id string) color.NRGBA {
	v, _ := track(t, id, func(s *TrackStyle) *string { return s.ChordLine.Color })
	return mustColor(v)
}

func (t *Theme) ChordLineBorderColor(id string) color.NRGBA {
	v, _ := track(t, id, func(s *TrackStyle) *string { return s.ChordLine.BorderColor })
	return mustColor(v)
}

func (t *Theme) BallRadius(id string) float64 {
	v, _ := track(t, id, func(s *TrackStyle) *float64 { return s.Ball.Radius })
	return v
}

func (t *Theme) BallColor(id string) color.NRGBA {
	v, _ := track(t, id, func(s *TrackStyle) *string { return s.Ball.Color })
	return mustColor(v)
}

func (t *Theme) BallStrokeColor(id string) (color.NRGBA, bool) {
	return optionalColor(track(t, id, func(s *TrackStyle) *string { return s.Ball.StrokeColor }))
}

func (t *Theme) BallStrokeWidth(id string) float64 {
	v, _ := track(t, id, func(s *TrackStyle) *float64 { return s.Ball.StrokeWidth })
	return v
}

// BallGBlurMax is the largest trailing blur radius; 0 disables the blur.
func (t *Theme) BallGBlurMax(id string) float64 {
	v, _ := track(t, id, func(s *TrackStyle) *float64 { return s.Ball.GBlurMax })
	return v
}
