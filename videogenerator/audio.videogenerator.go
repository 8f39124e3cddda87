package videogenerator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"musicgraph/logger"
	"musicgraph/workspace"
)

// Timidity renders MIDI with the timidity command line player.
type Timidity struct {
	Binary string
}

func (t Timidity) Render(ctx context.Context, midiPath, soundFont, wavPath string) error {
	bin := t.Binary
	if bin == "" {
		bin = "timidity"
	}
	var args []string
	if soundFont != "" {
		if err := workspace.RequireFile("soundfont", soundFont); err != nil {
			return err
		}
		args = append(args, "-x", "soundfont "+soundFont)
	}
	args = append(args,
		midiPath, "-Ow",
		"--preserve-silence",
		"-o", wavPath,
	)
	return runTool(ctx, bin, args)
}

// FluidSynth renders MIDI with fluidsynth, which needs a soundfont.
type FluidSynth struct {
	Binary string
}

func (f FluidSynth) Render(ctx context.Context, midiPath, soundFont, wavPath string) error {
	bin := f.Binary
	if bin == "" {
		bin = "fluidsynth"
	}
	if err := workspace.RequireFile("soundfont", soundFont); err != nil {
		return err
	}
	args := []string{
		"-ni",
		"-F", wavPath,
		"-r", "44100",
		soundFont, midiPath,
	}
	return runTool(ctx, bin, args)
}

// SynthByName returns the synthesizer called name.
func SynthByName(name string) (Synth, error) {
	switch name {
	case "", "timidity":
		return Timidity{}, nil
	case "fluidsynth":
		return FluidSynth{}, nil
	}
	return nil, fmt.Errorf("unknown synthesizer %q", name)
}

func runTool(ctx context.Context, bin string, args []string) error {
	path, err := workspace.RequireTool(bin)
	if err != nil {
		return err
	}
	logger.Logger().Debug("running", "cmd", bin+" "+strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("error executing %s command: %s %s; %w: %s", bin, bin, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// truncateAudio copies at most d of the WAV at src into dst.
func truncateAudio(src, dst string, d time.Duration) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening audio: %w", err)
	}
	defer in.Close()

	stream, format, err := wav.Decode(in)
	if err != nil {
		return fmt.Errorf("decoding audio %s: %w", src, err)
	}
	defer stream.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating audio: %w", err)
	}
	if err := wav.Encode(out, beep.Take(format.SampleRate.N(d), stream), format); err != nil {
		out.Close()
		return fmt.Errorf("encoding audio %s: %w", dst, err)
	}
	return out.Close()
}
