package graphlayout

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"musicgraph/logger"
	"musicgraph/workspace"
)

// Runner lays out the DOT file input with engine and writes format to output.
type Runner interface {
	Run(ctx context.Context, engine, format, input, output string) error
}

// Graphviz runs the graphviz command line tool.
type Graphviz struct {
	// Binary defaults to "dot".
	Binary string
}

func (g Graphviz) Run(ctx context.Context, engine, format, input, output string) error {
	bin := g.Binary
	if bin == "" {
		bin = "dot"
	}
	path, err := workspace.RequireTool(bin)
	if err != nil {
		return err
	}

	cmdArgs := []string{
		"-K" + engine,
		"-T" + format,
		"-o", output,
		input,
	}
	logger.Logger().Debug("running graphviz", "engine", engine, "format", format, "input", input)

	cmd := exec.CommandContext(ctx, path, cmdArgs...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("error executing graphviz command: %s %s; %v: %s",
			bin, strings.Join(cmdArgs, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
