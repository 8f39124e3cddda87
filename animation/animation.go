// Package animation schedules the per-track note timeline into a layered
// store of deferred draw actions: pulses on sounding notes, fading lines
// between the notes of a chord and balls travelling from each step to the
// next.
package animation

import (
	"slices"

	"musicgraph/logger"
	"musicgraph/midiparser"
	"musicgraph/xdot"
)

// RestSeconds is the longest silence a travelling ball bridges.
const RestSeconds = 10

// Geometry is the laid out graph the actions are drawn on.
type Geometry interface {
	Node(id string) (xdot.Ellipse, bool)
	Lookup(a, b string) ([]xdot.Point, bool)
}

// Policy holds the per-track switches the scheduler honours.
type Policy interface {
	SkipTrack(track string) bool
	AllowSelfNotes(track string) bool
}

// Schedule builds the frame store for tl. Tracks are scheduled
// independently in sorted order.
func Schedule(tl midiparser.Timeline, geo Geometry, policy Policy, frameRate int) *Frames {
	f := NewFrames()
	for _, track := range tl.Tracks() {
		if policy.SkipTrack(track) {
			continue
		}
		s := trackScheduler{
			frames:    f,
			geo:       geo,
			track:     track,
			allowSelf: policy.AllowSelfNotes(track),
			frameRate: frameRate,
		}
		s.run(tl[track])
	}
	logger.Logger().Info("animation scheduled", "layers", f.LayerCount(), "frames", f.Len())
	return f
}

type trackScheduler struct {
	frames    *Frames
	geo       Geometry
	track     string
	allowSelf bool
	frameRate int
}

// run walks the occupied frames in order. Every step pulses its notes,
// joins its chord and sends balls from the previous step.
func (s *trackScheduler) run(frames midiparser.TrackFrames) {
	var prev []midiparser.NoteEvent
	prevFrame := 0
	for _, frame := range frames.Frames() {
		cur := frames[frame]
		s.pulses(frame, cur)
		s.chord(frame, cur)
		if len(prev) > 0 {
			s.balls(prevFrame, frame, prev, cur)
		}
		prev, prevFrame = cur, frame
	}
}

func (s *trackScheduler) pulses(frame int, cur []midiparser.NoteEvent) {
	for _, ev := range cur {
		e, ok := s.geo.Node(ev.NoteID)
		if !ok {
			continue
		}
		actions := make([]Action, ev.DurationFrames)
		for i := range actions {
			actions[i] = Action{
				Kind:     Pulse,
				Frame:    i,
				Length:   ev.DurationFrames,
				Velocity: ev.Velocity,
				Track:    s.track,
				Ellipse:  e,
			}
		}
		s.frames.Add(LayerKey{Tier: TierPulse, Track: s.track, From: ev.NoteID}, frame, actions)
	}
}

// chord connects the sorted notes of a chord in a cycle. Each line fades
// over the duration of the first note of its pair.
func (s *trackScheduler) chord(frame int, cur []midiparser.NoteEvent) {
	for _, p := range midiparser.ChordPairs(cur) {
		a, b := p[0], p[1]
		if a.NoteID == b.NoteID {
			continue
		}
		curve, ok := s.geo.Lookup(a.NoteID, b.NoteID)
		if !ok {
			continue
		}
		actions := make([]Action, a.DurationFrames)
		for i := range actions {
			actions[i] = Action{
				Kind:   ChordLine,
				Frame:  i,
				Length: a.DurationFrames,
				Track:  s.track,
				Curve:  curve,
			}
		}
		s.frames.Add(LayerKey{Tier: TierChordLine, Track: s.track, From: a.NoteID, To: b.NoteID}, frame, actions)
	}
}

// balls sends at most one ball into every note of cur. A note of prev
// sends one ball, or two when the step widens.
func (s *trackScheduler) balls(prevFrame, frame int, prev, cur []midiparser.NoteEvent) {
	gap := frame - prevFrame
	if gap <= 0 || float64(gap)/float64(s.frameRate) > RestSeconds {
		return
	}
	maxOut := 1
	if len(cur) > len(prev) {
		maxOut = 2
	}
	sent := map[string]int{}
	served := map[string]bool{}
	for _, a := range prev {
		for _, b := range cur {
			if served[b.NoteID] || sent[a.NoteID] >= maxOut {
				continue
			}
			if a.NoteID == b.NoteID && !s.allowSelf {
				continue
			}
			curve, ok := s.geo.Lookup(a.NoteID, b.NoteID)
			if !ok {
				continue
			}
			curve = s.orient(curve, a.NoteID)
			actions := make([]Action, gap)
			for i := range actions {
				actions[i] = Action{
					Kind:   TravelBall,
					Frame:  i,
					Length: gap,
					Track:  s.track,
					Curve:  curve,
				}
			}
			s.frames.Add(LayerKey{Tier: TierBall, Track: s.track, From: a.NoteID, To: b.NoteID}, prevFrame, actions)
			served[b.NoteID] = true
			sent[a.NoteID]++
		}
	}
}

// orient returns curve running away from note from. Edge curves are
// stored once for both directions.
func (s *trackScheduler) orient(curve []xdot.Point, from string) []xdot.Point {
	e, ok := s.geo.Node(from)
	if !ok || len(curve) < 2 {
		return curve
	}
	first, last := curve[0], curve[len(curve)-1]
	if dist2(last, e) < dist2(first, e) {
		curve = slices.Clone(curve)
		slices.Reverse(curve)
	}
	return curve
}

func dist2(p xdot.Point, e xdot.Ellipse) float64 {
	dx, dy := p.X-e.X, p.Y-e.Y
	return dx*dx + dy*dy
}
