package animation

import (
	"cmp"
	"fmt"
	"slices"

	"musicgraph/xdot"
)

// Tier orders layers bottom to top.
type Tier int

const (
	TierChordLine Tier = iota
	TierPulse
	TierBall
)

func (t Tier) String() string {
	switch t {
	case TierChordLine:
		return "chord_line"
	case TierPulse:
		return "pulse"
	case TierBall:
		return "ball"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Kind selects how an action is drawn.
type Kind int

const (
	// KindNone marks an empty slot.
	KindNone Kind = iota
	Pulse
	ChordLine
	TravelBall
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case Pulse:
		return "pulse"
	case ChordLine:
		return "chord_line"
	case TravelBall:
		return "travel_ball"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// LayerKey identifies one layer. From and To are note ids; To is empty
// for pulses.
type LayerKey struct {
	Tier  Tier
	Track string
	From  string
	To    string
}

// Compare orders keys by tier, track, from, to.
func (k LayerKey) Compare(o LayerKey) int {
	return cmp.Or(
		cmp.Compare(k.Tier, o.Tier),
		cmp.Compare(k.Track, o.Track),
		cmp.Compare(k.From, o.From),
		cmp.Compare(k.To, o.To),
	)
}

func (k LayerKey) String() string {
	if k.To == "" {
		return fmt.Sprintf("%s/%s/%s", k.Tier, k.Track, k.From)
	}
	return fmt.Sprintf("%s/%s/%s-%s", k.Tier, k.Track, k.From, k.To)
}

// Action is one deferred draw call. The zero value is an empty slot.
type Action struct {
	Kind Kind
	// Frame is the position of this action within its animation of
	// Length frames.
	Frame    int
	Length   int
	Velocity uint8
	Track    string
	// Ellipse is the node a pulse grows from.
	Ellipse xdot.Ellipse
	// Curve is the edge a chord line or ball follows.
	Curve []xdot.Point
}

// Empty reports whether the slot holds nothing to draw.
func (a Action) Empty() bool { return a.Kind == KindNone }

// Progress returns Frame/Length, 0 for an empty action.
func (a Action) Progress() float64 {
	if a.Length <= 0 {
		return 0
	}
	return float64(a.Frame) / float64(a.Length)
}

// Layer is a sequence of action slots indexed by frame.
type Layer struct {
	Key   LayerKey
	slots []Action
}

// At returns the slot for frame i, empty when out of range.
func (l *Layer) At(i int) Action {
	if i < 0 || i >= len(l.slots) {
		return Action{}
	}
	return l.slots[i]
}

// Len returns the number of slots, which is the same for every layer of
// a Frames store.
func (l *Layer) Len() int { return len(l.slots) }

// Extent returns one past the last non-empty slot.
func (l *Layer) Extent() int {
	for i := len(l.slots) - 1; i >= 0; i-- {
		if !l.slots[i].Empty() {
			return i + 1
		}
	}
	return 0
}

// Frames is the layered store the compositor reads. All layers share one
// length; extending any layer extends all of them.
type Frames struct {
	layers []*Layer
	index  map[LayerKey]int
	length int
}

// NewFrames returns an empty store.
func NewFrames() *Frames {
	return &Frames{index: map[LayerKey]int{}}
}

// Add writes actions into the layer for key starting at frame start,
// creating the layer and growing the store as needed. A negative start is
// a programming error.
func (f *Frames) Add(key LayerKey, start int, actions []Action) {
	if start < 0 {
		panic(fmt.Sprintf("animation: negative start frame %d for layer %s", start, key))
	}
	id, ok := f.index[key]
	if !ok {
		id = len(f.layers)
		f.layers = append(f.layers, &Layer{Key: key, slots: make([]Action, f.length)})
		f.index[key] = id
	}
	if end := start + len(actions); end > f.length {
		f.resize(end)
	}
	copy(f.layers[id].slots[start:], actions)
}

func (f *Frames) resize(n int) {
	for _, l := range f.layers {
		l.slots = append(l.slots, make([]Action, n-len(l.slots))...)
	}
	f.length = n
}

// Len returns the common layer length.
func (f *Frames) Len() int { return f.length }

// LayerCount returns the number of layers.
func (f *Frames) LayerCount() int { return len(f.layers) }

// Layer returns the layer for key.
func (f *Frames) Layer(key LayerKey) (*Layer, bool) {
	id, ok := f.index[key]
	if !ok {
		return nil, false
	}
	return f.layers[id], true
}

// Keys returns every layer key in stacking order.
func (f *Frames) Keys() []LayerKey {
	keys := make([]LayerKey, 0, len(f.layers))
	for _, l := range f.layers {
		keys = append(keys, l.Key)
	}
	slices.SortFunc(keys, LayerKey.Compare)
	return keys
}

// Layers returns the layers in stacking order.
func (f *Frames) Layers() []*Layer {
	keys := f.Keys()
	out := make([]*Layer, len(keys))
	for i, k := range keys {
		out[i] = f.layers[f.index[k]]
	}
	return out
}
