package ingest

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Capture wraps the external radio-capture subprocess (rtl_433 emitting
// JSON per line). Demodulation is entirely its concern; we only read its
// stdout.
type Capture struct {
	cmd *exec.Cmd
}

// StartCapture launches the capture command and returns its stdout stream.
func StartCapture(ctx context.Context, command string, args ...string) (*Capture, io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("capture stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", command, err)
	}
	return &Capture{cmd: cmd}, stdout, nil
}

// Wait blocks until the capture process exits.
func (c *Capture) Wait() error { return c.cmd.Wait() }
