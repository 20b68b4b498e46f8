package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	debuggerMarker      = "===NK-CMD-DONE==="
	debuggerCmdTimeout  = 30 * time.Second
	debuggerInitTimeout = 15 * time.Second
)

// Debugger owns a live gdb session attached to the target binary. The
// session persists across tool calls so breakpoints and program state
// survive between iterations; Close must run on every terminal path.
//
// A single goroutine owns the session's stdout for its whole lifetime and
// feeds lines to Exec through a channel. A command that times out leaves
// its output still owed on that channel, so the session is marked broken
// and every later Exec fails instead of reading another command's text.
type Debugger struct {
	mu      sync.Mutex
	binary  string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan string
	timeout time.Duration
	seq     int
	started bool
	broken  bool
}

// NewDebugger prepares a session for the given binary without starting it.
func NewDebugger(binary string) *Debugger {
	return &Debugger{binary: binary, timeout: debuggerCmdTimeout}
}

// Start launches gdb against the binary and applies baseline settings.
// When mainFunction is non-empty a breakpoint is set there.
func (d *Debugger) Start(ctx context.Context, mainFunction string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}

	cmd := exec.Command("gdb", "-q", "--nx", d.binary)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("debugger stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("debugger stdout: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start gdb: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.lines = make(chan string, 256)
	d.started = true

	// Sole reader of the session's stdout; closes the channel on EOF.
	go func(out io.Reader, lines chan<- string) {
		r := bufio.NewReader(out)
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				lines <- line
			}
			if err != nil {
				close(lines)
				return
			}
		}
	}(stdout, d.lines)

	setup := []string{
		"set pagination off",
		"set confirm off",
		"set disassembly-flavor intel",
	}
	if mainFunction != "" {
		setup = append(setup, "break "+mainFunction)
	}
	for _, c := range setup {
		if _, err := d.execLocked(ctx, c, debuggerInitTimeout); err != nil {
			d.closeLocked()
			return fmt.Errorf("debugger setup %q: %w", c, err)
		}
	}
	return nil
}

// Exec runs one gdb command and returns its output. The session must have
// been started; a crashed or timed-out session is an error, not a restart.
func (d *Debugger) Exec(ctx context.Context, command string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return "", fmt.Errorf("debugger session not started")
	}
	return d.execLocked(ctx, command, d.timeout)
}

func (d *Debugger) execLocked(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if d.broken {
		return "", fmt.Errorf("debugger session corrupted by an earlier timeout; command not sent: %s", command)
	}

	// Per-command marker: a stale marker from an earlier command can never
	// satisfy the current wait.
	d.seq++
	marker := fmt.Sprintf("%s%d===", debuggerMarker, d.seq)

	// The echo lands after the command's output, so reading up to the
	// marker yields exactly one command's worth of text.
	if _, err := fmt.Fprintf(d.stdin, "%s\necho %s\\n\n", command, marker); err != nil {
		d.broken = true
		return "", fmt.Errorf("write to gdb: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var sb strings.Builder
	for {
		select {
		case line, ok := <-d.lines:
			if !ok {
				d.broken = true
				return "", fmt.Errorf("gdb session ended unexpectedly")
			}
			if strings.Contains(line, marker) {
				return cleanPrompt(sb.String()), nil
			}
			if strings.Contains(line, debuggerMarker) {
				// Marker of an earlier command; not this command's output.
				continue
			}
			sb.WriteString(line)
		case <-timer.C:
			d.broken = true
			return "", fmt.Errorf("gdb command timed out after %s: %s", timeout, command)
		case <-ctx.Done():
			d.broken = true
			return "", ctx.Err()
		}
	}
}

func cleanPrompt(s string) string {
	s = strings.ReplaceAll(s, "(gdb) ", "")
	return strings.TrimSpace(s)
}

// Close tears the session down, killing the gdb process group. It is
// idempotent and safe on a never-started session.
func (d *Debugger) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *Debugger) closeLocked() error {
	if !d.started {
		return nil
	}
	d.started = false

	// Polite quit first; the kill below covers a wedged session.
	fmt.Fprintln(d.stdin, "quit")
	d.stdin.Close()

	// Unblock the reader goroutine so it can reach EOF and exit.
	go func(lines <-chan string) {
		for range lines {
		}
	}(d.lines)

	done := make(chan struct{})
	go func() {
		d.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		syscall.Kill(-d.cmd.Process.Pid, syscall.SIGKILL)
		<-done
	}
	return nil
}
