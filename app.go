package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"

	"musicgraph/apiserver"
	"musicgraph/logger"
	"musicgraph/theme"
	"musicgraph/videogenerator"
	"musicgraph/workspace"
	"musicgraph/xdot"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff8000"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff3b30"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#33cc33"))
)

func main() {
	midiPath := flag.String("midi", "", "MIDI file to render (required)")
	themePath := flag.String("theme", "", "theme YAML file")
	dark := flag.Bool("dark", false, "use the dark default theme")
	output := flag.String("output", "", "output file or directory (default: <midi name>_<timestamp>.mp4)")
	soundFont := flag.String("soundfont", "", "soundfont for the synthesizer")
	synthName := flag.String("synth", "timidity", "synthesizer: timidity or fluidsynth")
	workers := flag.Int("workers", 0, "frames rendered in parallel (default: one per CPU)")
	serve := flag.String("serve", "", "serve a preview on this address instead of rendering")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *midiPath == "" {
		fmt.Fprintln(os.Stderr, "usage: musicgraph -midi song.mid [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	synth, err := videogenerator.SynthByName(*synthName)
	if err != nil {
		fail(err)
	}
	base := theme.Light
	if *dark {
		base = theme.Dark
	}
	opts := videogenerator.Options{
		MidiPath:  *midiPath,
		ThemePath: *themePath,
		Base:      base,
		Output:    *output,
		SoundFont: *soundFont,
		Synth:     synth,
		Workers:   *workers,
		Progress:  printProgress,
	}

	if *serve != "" {
		if err := preview(ctx, *serve, opts); err != nil {
			fail(err)
		}
		return
	}

	fmt.Println(headerStyle.Render("musicgraph") + " " + dimStyle.Render(*midiPath))
	executionStartTime := time.Now()
	out, err := videogenerator.Generate(ctx, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("%s\n%s %s\n",
		dimStyle.Render(fmt.Sprintf("Execution time: %f seconds", time.Since(executionStartTime).Seconds())),
		doneStyle.Render("Video Generated:"), out)
}

func preview(ctx context.Context, addr string, opts videogenerator.Options) error {
	r, err := videogenerator.Prepare(ctx, opts)
	if err != nil {
		return err
	}
	defer r.Close()
	fmt.Println(headerStyle.Render("preview") + " " + dimStyle.Render("http://"+addr+"/layers"))
	return apiserver.Run(ctx, addr, r.Compositor())
}

func printProgress(done, total int, avg time.Duration) {
	fmt.Println(dimStyle.Render(fmt.Sprintf("Finished frames: %d/%d\tavg time per frame: %.4f", done, total, avg.Seconds())))
}

func fail(err error) {
	kind := "error"
	var (
		cfgErr   *theme.ConfigError
		resErr   *workspace.ResourceError
		parseErr *xdot.ParseError
	)
	switch {
	case errors.As(err, &cfgErr):
		kind = "theme error"
	case errors.As(err, &resErr):
		kind = "missing resource"
	case errors.As(err, &parseErr):
		kind = "layout error"
	case errors.Is(err, context.Canceled):
		kind = "interrupted"
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render(kind+":"), err)
	os.Exit(1)
}
