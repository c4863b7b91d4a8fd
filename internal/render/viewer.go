package render

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Viewer displays a saved image.
type Viewer interface {
	Show(ctx context.Context, path string) error
}

// ExecViewer runs Command with the image path appended. Command is split
// on whitespace, so "feh --scale-down" works.
type ExecViewer struct {
	Command string
}

func (v ExecViewer) Show(ctx context.Context, path string) error {
	args := strings.Fields(v.Command)
	if len(args) == 0 {
		return errors.New("empty viewer command")
	}
	bin, err := exec.LookPath(args[0])
	if err != nil {
		return err
	}
	return exec.CommandContext(ctx, bin, append(args[1:], path)...).Run()
}

// Available reports whether the viewer binary is on PATH.
func (v ExecViewer) Available() bool {
	args := strings.Fields(v.Command)
	if len(args) == 0 {
		return false
	}
	_, err := exec.LookPath(args[0])
	return err == nil
}
