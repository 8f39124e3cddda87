package videogenerator

import (
	"context"
	"time"

	"musicgraph/graphlayout"
	"musicgraph/theme"
)

// Options configures one render.
type Options struct {
	MidiPath  string
	ThemePath string
	Base      theme.Base
	// Output is a file path, a directory, or empty for the working directory.
	Output    string
	SoundFont string
	Synth     Synth
	// Workers bounds the frames rendered in parallel. Zero uses one per CPU.
	Workers  int
	CacheDir string
	// Runner runs graphviz. Nil uses the dot binary on PATH.
	Runner   graphlayout.Runner
	Progress ProgressFunc
	// Now stamps the output name. Nil uses time.Now.
	Now func() time.Time
}

// ProgressFunc is told how many of total frames are written and the
// average time spent per frame so far.
type ProgressFunc func(done, total int, avg time.Duration)

// Synth renders a MIDI file to WAV.
type Synth interface {
	Render(ctx context.Context, midiPath, soundFont, wavPath string) error
}
