// Package videogenerator draws the scheduled animation frame by frame and
// assembles the frames and the synthesized audio into a video.
package videogenerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fogleman/gg"

	"musicgraph/animation"
	"musicgraph/graphlayout"
	"musicgraph/logger"
	"musicgraph/midiparser"
	"musicgraph/scene"
	"musicgraph/theme"
	"musicgraph/workspace"
)

// ErrNoNotes reports a song with no notes on any track the theme renders.
var ErrNoNotes = errors.New("no notes on any rendered track")

// Render is a prepared render: the song is quantized, laid out, drawn and
// scheduled, and the workspace holds the layout files.
type Render struct {
	Theme    *theme.Theme
	Timeline midiparser.Timeline
	Scene    *scene.Scene
	Frames   *animation.Frames

	opts Options
	ws   *workspace.Workspace
}

// Prepare runs every step up to the frame store. The caller must Close
// the returned render.
func Prepare(ctx context.Context, opts Options) (*Render, error) {
	if opts.Base == "" {
		opts.Base = theme.Light
	}
	th, err := theme.Load(opts.ThemePath, opts.Base)
	if err != nil {
		return nil, err
	}
	ws, err := workspace.New(opts.CacheDir)
	if err != nil {
		return nil, err
	}
	r := &Render{Theme: th, opts: opts, ws: ws}
	if err := r.prepare(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Render) prepare(ctx context.Context) error {
	th := r.Theme
	tl, err := midiparser.ParseFile(r.opts.MidiPath, midiparser.Options{
		FrameRate:         th.FrameRate(),
		SquashTracks:      th.SquashTracks(),
		GroupNotesByTrack: th.GroupNotesByTrack(),
		MinFrames:         th.NoteNumFrames,
	})
	if err != nil {
		return err
	}
	if !hasRenderedNotes(tl, th) {
		return fmt.Errorf("%s: %w (tracks %v)", r.opts.MidiPath, ErrNoNotes, tl.Tracks())
	}
	r.Timeline = tl

	runner := r.opts.Runner
	if runner == nil {
		runner = graphlayout.Graphviz{}
	}
	doc, err := graphlayout.Layout(ctx, r.ws, tl, th, runner)
	if err != nil {
		return err
	}
	if r.Scene, err = scene.Build(doc, th); err != nil {
		return err
	}
	r.Frames = animation.Schedule(tl, r.Scene, th, th.FrameRate())
	return nil
}

func hasRenderedNotes(tl midiparser.Timeline, th *theme.Theme) bool {
	for track, frames := range tl {
		if !th.SkipTrack(track) && len(frames) > 0 {
			return true
		}
	}
	return false
}

// Compositor returns a compositor for the prepared frames.
func (r *Render) Compositor() *Compositor {
	c := NewCompositor(r.Scene, r.Theme, r.Frames)
	c.Workers = r.opts.Workers
	c.Progress = r.opts.Progress
	return c
}

// Encode writes the frames, synthesizes and trims the audio, muxes both
// and moves the video to its output path, which it returns.
func (r *Render) Encode(ctx context.Context) (string, error) {
	c := r.Compositor()
	if c.Count() == 0 {
		return "", fmt.Errorf("%s: %w", r.opts.MidiPath, ErrNoNotes)
	}
	framesDir, err := r.ws.Dir(framesDirName)
	if err != nil {
		return "", err
	}
	logger.Logger().Info("writing frames", "frames", c.Count(), "workers", c.workers())
	if err := c.WriteFrames(ctx, framesDir); err != nil {
		return "", err
	}

	fps := r.Theme.FrameRate()
	duration := float64(c.Count()) / float64(fps)

	synth := r.opts.Synth
	if synth == nil {
		synth = Timidity{}
	}
	audio := r.ws.Path(audioFileName)
	logger.Logger().Info("synthesizing audio", "synth", fmt.Sprintf("%T", synth))
	if err := synth.Render(ctx, r.opts.MidiPath, r.opts.SoundFont, audio); err != nil {
		return "", err
	}
	trimmed := r.ws.Path(trimmedFileName)
	if err := truncateAudio(audio, trimmed, time.Duration(duration*float64(time.Second))); err != nil {
		return "", err
	}

	video := r.ws.Path(videoFileName)
	logger.Logger().Info("encoding video", "duration", duration)
	if err := createVideoFromFrames(ctx, framesDir, trimmed, video, fps, duration); err != nil {
		return "", err
	}

	out := OutputPath(r.opts.Output, workspace.FileStem(r.opts.MidiPath), r.now())
	if err := moveFile(video, out); err != nil {
		return "", fmt.Errorf("moving video to %s: %w", out, err)
	}
	return out, nil
}

// SaveBase writes the base canvas next to where the video would go and
// returns its path.
func (r *Render) SaveBase() (string, error) {
	out := BaseImagePath(r.opts.Output, workspace.FileStem(r.opts.MidiPath))
	if err := gg.SavePNG(out, r.Scene.Base); err != nil {
		return "", fmt.Errorf("saving base image: %w", err)
	}
	return out, nil
}

func (r *Render) now() time.Time {
	if r.opts.Now != nil {
		return r.opts.Now()
	}
	return time.Now()
}

// Close removes the workspace.
func (r *Render) Close() error {
	return r.ws.Close()
}

// Generate renders the video described by opts and returns its path. With
// debug.show_base_image it saves the base canvas instead and returns that.
func Generate(ctx context.Context, opts Options) (string, error) {
	executionStartTime := time.Now()
	r, err := Prepare(ctx, opts)
	if err != nil {
		return "", err
	}
	defer r.Close()

	if r.Theme.DebugShowBaseImage() {
		return r.SaveBase()
	}
	out, err := r.Encode(ctx)
	if err != nil {
		return "", err
	}
	logger.Logger().Info("video generated", "path", out, "seconds", time.Since(executionStartTime).Seconds())
	return out, nil
}
