package videogenerator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OutputPath returns <stem>_<unix>.mp4 for the output option. An empty
// output uses the MIDI file stem in the working directory; an output
// ending in a path separator or naming a directory puts the default name there.
func OutputPath(output, midiStem string, now time.Time) string {
	dir, stem := outputStem(output, midiStem)
	return filepath.Join(dir, fmt.Sprintf("%s_%d.mp4", stem, now.Unix()))
}

// BaseImagePath returns where the debug base image of a render is saved.
func BaseImagePath(output, midiStem string) string {
	dir, stem := outputStem(output, midiStem)
	return filepath.Join(dir, stem+"_base.png")
}

func outputStem(output, midiStem string) (string, string) {
	switch {
	case output == "":
		return "", midiStem
	case strings.HasSuffix(output, string(os.PathSeparator)) || isDir(output):
		return output, midiStem
	}
	base := filepath.Base(output)
	return filepath.Dir(output), strings.TrimSuffix(base, filepath.Ext(base))
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
