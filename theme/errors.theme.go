package theme

import (
	"fmt"
	"strings"
)

// ConfigError reports an option that is missing, out of range, or
// incompatible with another option.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("theme: %s: %s", e.Option, e.Reason)
}

// Validate checks the resolved options a render cannot do without.
func (t *Theme) Validate() error {
	if t.FrameRate() <= 0 {
		return &ConfigError{Option: "frame_rate", Reason: "must be positive"}
	}
	if t.Width() <= 0 || t.Height() <= 0 {
		return &ConfigError{Option: "width/height", Reason: "must be positive"}
	}
	if t.DPI() <= 0 {
		return &ConfigError{Option: "dpi", Reason: "must be positive"}
	}
	if t.GraphvizEngine() == "" {
		return &ConfigError{Option: "graphviz_engine", Reason: "not set"}
	}
	if err := t.CheckNodeOrdering(); err != nil {
		return err
	}
	return t.validateColors()
}

// CheckNodeOrdering rejects nodes_sorted with any engine but circo.
func (t *Theme) CheckNodeOrdering() error {
	order := t.NodesSorted()
	if !order.Enabled() {
		return nil
	}
	if !strings.EqualFold(t.GraphvizEngine(), CircularEngine) {
		return &ConfigError{
			Option: "nodes_sorted",
			Reason: fmt.Sprintf("node sorting only works when graphviz_engine is %s, got %q", CircularEngine, t.GraphvizEngine()),
		}
	}
	return nil
}

func (t *Theme) validateColors() error {
	check := func(option string, v *string) error {
		if v == nil || *v == "" {
			return nil
		}
		if _, err := ParseColor(*v); err != nil {
			return &ConfigError{Option: option, Reason: err.Error()}
		}
		return nil
	}
	for _, d := range t.docs() {
		globals := map[string]*string{
			"background_color":       d.BackgroundColor,
			"node.outline_color":     d.Node.OutlineColor,
			"node.fill_color":        d.Node.FillColor,
			"node.shadow_color":      d.Node.ShadowColor,
			"node.text.color":        d.Node.Text.Color,
			"node.text.stroke_color": d.Node.Text.StrokeColor,
		}
		for option, v := range globals {
			if err := check(option, v); err != nil {
				return err
			}
		}
		for id, ts := range d.Tracks {
			prefix := "tracks." + id + "."
			perTrack := map[string]*string{
				"note.color":              ts.Note.Color,
				"chord_line.color":        ts.ChordLine.Color,
				"chord_line.border_color": ts.ChordLine.BorderColor,
				"ball.color":              ts.Ball.Color,
				"ball.stroke_color":       ts.Ball.StrokeColor,
			}
			for option, v := range perTrack {
				if err := check(prefix+option, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
