package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// ExecResult captures a finished subprocess: combined output, exit code,
// and whether the deadline fired before the process exited.
type ExecResult struct {
	Output   string
	ExitCode int
	TimedOut bool
}

// runCommand executes argv with a timeout, killing the whole process group
// on expiry so grandchildren do not outlive the tool call.
func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (*ExecResult, error) {
	return runCommandIn(ctx, "", timeout, name, args...)
}

// runCommandIn is runCommand with an explicit working directory.
func runCommandIn(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (*ExecResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	res := &ExecResult{Output: buf.String()}

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return res, nil
}

// FormatResult renders an ExecResult the way tool output is fed back to
// the model: raw output, annotated with exit status when it is abnormal.
func FormatResult(res *ExecResult) string {
	out := strings.TrimRight(res.Output, "\n")
	switch {
	case res.TimedOut:
		if out == "" {
			return "[command timed out]"
		}
		return out + "\n[command timed out]"
	case res.ExitCode != 0:
		if out == "" {
			return fmt.Sprintf("[exit code: %d]", res.ExitCode)
		}
		return fmt.Sprintf("%s\n[exit code: %d]", out, res.ExitCode)
	case out == "":
		return "[no output]"
	default:
		return out
	}
}
