package videogenerator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"golang.org/x/image/draw"

	"musicgraph/animation"
	"musicgraph/scene"
	"musicgraph/theme"
	"musicgraph/workspace"
	"musicgraph/xdot"
)

func loadTheme(t *testing.T, doc string) *theme.Theme {
	t.Helper()
	path := ""
	if doc != "" {
		path = filepath.Join(t.TempDir(), "theme.yaml")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	th, err := theme.Load(path, theme.Light)
	if err != nil {
		t.Fatalf("theme.Load() error = %v", err)
	}
	return th
}

func whiteScene(w, h int) *scene.Scene {
	base := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(base, base.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return &scene.Scene{Base: base, Nodes: map[string]xdot.Ellipse{}, Edges: map[string]map[string][]xdot.Point{}}
}

func repeat(n int, a animation.Action) []animation.Action {
	out := make([]animation.Action, n)
	for i := range out {
		out[i] = a
		out[i].Frame = i
		out[i].Length = n
	}
	return out
}

func TestCurveAlpha(t *testing.T) {
	tests := []struct {
		frame, total int
		want         uint8
	}{
		{0, 100, 0},
		{5, 100, 127},
		{10, 100, 255},
		{50, 100, 255},
		{75, 100, 127},
		{100, 100, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := CurveAlpha(tt.frame, tt.total); got != tt.want {
			t.Errorf("CurveAlpha(%d, %d) = %d, want %d", tt.frame, tt.total, got, tt.want)
		}
	}
}

func TestRenderIndependentOfInsertionOrder(t *testing.T) {
	th := loadTheme(t, "")
	sc := whiteScene(200, 200)
	curve := []xdot.Point{{X: 50, Y: 100}, {X: 100, Y: 60}, {X: 150, Y: 100}}

	chord := animation.LayerKey{Tier: animation.TierChordLine, Track: "track_2", From: "A", To: "B"}
	pulse := animation.LayerKey{Tier: animation.TierPulse, Track: "track_2", From: "A"}
	ball := animation.LayerKey{Tier: animation.TierBall, Track: "track_2", From: "A", To: "B"}
	actions := map[animation.LayerKey][]animation.Action{
		chord: repeat(10, animation.Action{Kind: animation.ChordLine, Track: "track_2", Curve: curve}),
		pulse: repeat(10, animation.Action{Kind: animation.Pulse, Track: "track_2", Velocity: 100, Ellipse: xdot.Ellipse{X: 50, Y: 100, W: 20, H: 20}}),
		ball:  repeat(10, animation.Action{Kind: animation.TravelBall, Track: "track_2", Curve: curve}),
	}

	render := func(order ...animation.LayerKey) []byte {
		f := animation.NewFrames()
		for _, k := range order {
			f.Add(k, 0, actions[k])
		}
		return NewCompositor(sc, th, f).Render(4).Pix
	}
	a := render(chord, pulse, ball)
	b := render(ball, chord, pulse)
	if !bytes.Equal(a, b) {
		t.Error("frame differs with the insertion order of its layers")
	}
	if bytes.Equal(a, sc.Base.Pix) {
		t.Error("frame is identical to the base canvas")
	}
}

func TestRenderLeavesBaseUntouched(t *testing.T) {
	th := loadTheme(t, "")
	sc := whiteScene(64, 64)
	before := bytes.Clone(sc.Base.Pix)
	f := animation.NewFrames()
	f.Add(animation.LayerKey{Tier: animation.TierPulse, Track: "track_2", From: "A"}, 0,
		repeat(4, animation.Action{Kind: animation.Pulse, Track: "track_2", Velocity: 90, Ellipse: xdot.Ellipse{X: 32, Y: 32, W: 10, H: 10}}))
	NewCompositor(sc, th, f).Render(2)
	if !bytes.Equal(before, sc.Base.Pix) {
		t.Error("Render() modified the base canvas")
	}
}

func TestPulseStaysInsideEllipse(t *testing.T) {
	th := loadTheme(t, `
tracks:
  default:
    note:
      stroke_width: 0
      increase_size: 0
`)
	canvas := whiteScene(100, 100).Base
	r := NewRenderer(th, image.Point{})
	r.Apply(canvas, animation.Action{
		Kind: animation.Pulse, Frame: 0, Length: 10, Velocity: 127, Track: "track_2",
		Ellipse: xdot.Ellipse{X: 50, Y: 50, W: 10, H: 10},
	})

	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			dx, dy := x-50, y-50
			if dx*dx+dy*dy <= 12*12 {
				continue
			}
			if got := canvas.RGBAAt(x, y); got != white {
				t.Fatalf("pixel (%d, %d) = %v outside the ellipse, want white", x, y, got)
			}
		}
	}
	// #ff8000 barely blurred at the first frame.
	if c := canvas.RGBAAt(50, 50); c.B > 32 {
		t.Errorf("centre pixel = %v, want the note colour", c)
	}
}

func TestWriteFramesMaxFrames(t *testing.T) {
	th := loadTheme(t, "debug:\n  max_frames: 10\n")
	f := animation.NewFrames()
	f.Add(animation.LayerKey{Tier: animation.TierPulse, Track: "track_2", From: "A"}, 0,
		repeat(50, animation.Action{Kind: animation.Pulse, Track: "track_2", Velocity: 64, Ellipse: xdot.Ellipse{X: 16, Y: 16, W: 4, H: 4}}))

	var mu sync.Mutex
	var reports [][2]int
	c := NewCompositor(whiteScene(32, 32), th, f)
	c.Workers = 3
	c.Progress = func(done, total int, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		reports = append(reports, [2]int{done, total})
	}
	if c.Count() != 10 {
		t.Fatalf("Count() = %d, want 10", c.Count())
	}

	dir := t.TempDir()
	if err := c.WriteFrames(context.Background(), dir); err != nil {
		t.Fatalf("WriteFrames() error = %v", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "fr*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 10 {
		t.Errorf("wrote %d frames, want 10", len(files))
	}
	for _, name := range []string{"fr00000.png", "fr00009.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if len(reports) != 1 || reports[0] != [2]int{10, 10} {
		t.Errorf("progress reports = %v, want one final report of 10/10", reports)
	}
}

func TestWriteFramesCancelled(t *testing.T) {
	th := loadTheme(t, "")
	f := animation.NewFrames()
	f.Add(animation.LayerKey{Tier: animation.TierPulse, Track: "track_2", From: "A"}, 0,
		repeat(20, animation.Action{Kind: animation.Pulse, Track: "track_2", Ellipse: xdot.Ellipse{X: 8, Y: 8, W: 4, H: 4}}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	err := NewCompositor(whiteScene(16, 16), th, f).WriteFrames(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WriteFrames() error = %v, want context.Canceled", err)
	}
	if files, _ := filepath.Glob(filepath.Join(dir, "*.png")); len(files) != 0 {
		t.Errorf("wrote %d frames after cancellation", len(files))
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Unix(1700000000, 0)
	dir := t.TempDir()
	tests := []struct {
		output string
		want   string
	}{
		{"", "song_1700000000.mp4"},
		{filepath.Join("out", "clip.mp4"), filepath.Join("out", "clip_1700000000.mp4")},
		{dir, filepath.Join(dir, "song_1700000000.mp4")},
		{"videos" + string(os.PathSeparator), filepath.Join("videos", "song_1700000000.mp4")},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.output, "song", now); got != tt.want {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
	if got := BaseImagePath("", "song"); got != "song_base.png" {
		t.Errorf("BaseImagePath() = %q, want song_base.png", got)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "video.mp4")
	dst := filepath.Join(dir, "nested", "out.mp4")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := moveFile(src, dst); err != nil {
		t.Fatalf("moveFile() error = %v", err)
	}
	if data, err := os.ReadFile(dst); err != nil || string(data) != "data" {
		t.Errorf("moved file = %q, %v", data, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still present: %v", err)
	}
}

func TestTruncateAudio(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "audio.wav")
	dst := filepath.Join(dir, "audio_trimmed.wav")
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}

	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.Encode(f, beep.Silence(format.SampleRate.N(2*time.Second)), format); err != nil {
		t.Fatalf("wav.Encode() error = %v", err)
	}
	f.Close()

	if err := truncateAudio(src, dst, 500*time.Millisecond); err != nil {
		t.Fatalf("truncateAudio() error = %v", err)
	}
	in, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	stream, got, err := wav.Decode(in)
	if err != nil {
		t.Fatalf("wav.Decode() error = %v", err)
	}
	defer stream.Close()
	if got.SampleRate != format.SampleRate {
		t.Errorf("sample rate = %d, want %d", got.SampleRate, format.SampleRate)
	}
	if stream.Len() != 4000 {
		t.Errorf("trimmed length = %d samples, want 4000", stream.Len())
	}
}

func TestSynthByName(t *testing.T) {
	for name, want := range map[string]Synth{"": Timidity{}, "timidity": Timidity{}, "fluidsynth": FluidSynth{}} {
		got, err := SynthByName(name)
		if err != nil || got != want {
			t.Errorf("SynthByName(%q) = %T, %v", name, got, err)
		}
	}
	if _, err := SynthByName("sox"); err == nil {
		t.Error("SynthByName(sox) succeeded")
	}
}

func TestFluidSynthNeedsSoundFont(t *testing.T) {
	err := FluidSynth{}.Render(context.Background(), "song.mid", "", filepath.Join(t.TempDir(), "a.wav"))
	var re *workspace.ResourceError
	if !errors.As(err, &re) || re.Kind != "soundfont" {
		t.Errorf("Render() error = %v, want a soundfont ResourceError", err)
	}
}

// writeSingleTrackSong writes a format 0 style file: tempo and notes on one track.
func writeSingleTrackSong(t *testing.T) string {
	t.Helper()
	s := smf.New()
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(960, midi.NoteOff(0, 60))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "single.mid")
	if err := s.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	return path
}

type layoutRunner struct {
	calls int
}

func (r *layoutRunner) Run(context.Context, string, string, string, string) error {
	r.calls++
	return errors.New("graphviz unavailable")
}

func TestPrepareSingleTrackSong(t *testing.T) {
	runner := &layoutRunner{}
	_, err := Prepare(context.Background(), Options{
		MidiPath: writeSingleTrackSong(t),
		CacheDir: t.TempDir(),
		Runner:   runner,
	})
	if errors.Is(err, ErrNoNotes) {
		t.Fatalf("Prepare() error = %v, notes of a single track song were dropped", err)
	}
	if runner.calls == 0 {
		t.Errorf("Prepare() error = %v before reaching the layout", err)
	}
}

func TestPrepareNoRenderedNotes(t *testing.T) {
	themePath := filepath.Join(t.TempDir(), "theme.yaml")
	if err := os.WriteFile(themePath, []byte("tracks:\n  track_2:\n    skip: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := t.TempDir()
	runner := &layoutRunner{}
	_, err := Prepare(context.Background(), Options{
		MidiPath:  writeSingleTrackSong(t),
		ThemePath: themePath,
		CacheDir:  cache,
		Runner:    runner,
	})
	if !errors.Is(err, ErrNoNotes) {
		t.Fatalf("Prepare() error = %v, want ErrNoNotes", err)
	}
	if runner.calls != 0 {
		t.Errorf("layout ran %d times for a song with nothing to draw", runner.calls)
	}
	if entries, _ := os.ReadDir(cache); len(entries) != 0 {
		t.Errorf("workspace left behind: %v", entries)
	}
}
