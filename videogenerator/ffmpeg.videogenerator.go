package videogenerator

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"musicgraph/logger"
	"musicgraph/workspace"
)

func createVideoFromFrames(ctx context.Context, framesFolder, audioFilePath, outputPath string, fps int, duration float64) error {
	ffmpeg, err := workspace.RequireTool("ffmpeg")
	if err != nil {
		return err
	}

	cmdArgs := []string{
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", filepath.Join(framesFolder, FramePattern),
		"-i", audioFilePath,
		"-map", "0:v", "-map", "1:a",
		"-preset", videoPreset,
		"-c:v", videoCodec,
		"-pix_fmt", pixelFormat,
		"-vcodec", videoCodec,
		"-tune", videoTune,
		"-y",
		"-t", fmt.Sprintf("%f", duration),
		outputPath,
	}
	logger.Logger().Debug("running", "cmd", "ffmpeg "+strings.Join(cmdArgs, " "))

	cmd := exec.CommandContext(ctx, ffmpeg, cmdArgs...)
	if out, err := cmd.CombinedOutput(); err != nil {
		fullCmd := "ffmpeg " + strings.Join(cmdArgs, " ")
		logger.Logger().Warn("ffmpeg failed", "output", strings.TrimSpace(string(out)))
		return fmt.Errorf("error executing FFmpeg command: %s; %w", fullCmd, err)
	}
	return nil
}
