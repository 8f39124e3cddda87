// Package workspace owns the scratch directory of one render session and
// the checks for the files and tools a render depends on.
package workspace

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"musicgraph/logger"
)

// DefaultRoot is where session directories are created unless told otherwise.
const DefaultRoot = ".cache"

// Workspace is a per-render scratch directory. Every intermediate file
// (layout input/output, frames, audio, the unmuxed video) lives under it.
type Workspace struct {
	dir string
}

// New creates a fresh session directory below root.
func New(root string) (*Workspace, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root %s: %w", root, err)
	}
	dir, err := os.MkdirTemp(root, "render-")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	logger.Logger().Debug("workspace created", "dir", dir)
	return &Workspace{dir: dir}, nil
}

// Root returns the session directory.
func (w *Workspace) Root() string { return w.dir }

// Path returns the path of name inside the session directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Dir creates (if needed) and returns a subdirectory of the session.
func (w *Workspace) Dir(name string) (string, error) {
	p := w.Path(name)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", fmt.Errorf("creating workspace dir %s: %w", p, err)
	}
	return p, nil
}

// Close removes the session directory and everything in it. It is safe to
// call more than once.
func (w *Workspace) Close() error {
	if w == nil || w.dir == "" {
		return nil
	}
	dir := w.dir
	w.dir = ""
	logger.Logger().Debug("workspace removed", "dir", dir)
	return os.RemoveAll(dir)
}

// ResourceError reports a missing input file, font or external tool.
type ResourceError struct {
	Kind string // "midi", "theme", "font", "background image", "soundfont", "tool"
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing %s %q: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("missing %s %q", e.Kind, e.Path)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// RequireFile returns a *ResourceError unless path names a regular file.
func RequireFile(kind, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ResourceError{Kind: kind, Path: path, Err: err}
	}
	if info.IsDir() {
		return &ResourceError{Kind: kind, Path: path, Err: fmt.Errorf("is a directory")}
	}
	return nil
}

// RequireTool resolves an executable on PATH.
func RequireTool(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", &ResourceError{Kind: "tool", Path: name, Err: err}
	}
	return p, nil
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	fileName := filepath.Base(path)
	return fileName[:len(fileName)-len(filepath.Ext(fileName))]
}
