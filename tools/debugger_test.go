package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Minimal gdb stand-in: answers marker echoes, responds to print, and
// stalls on demand so timeout handling can be exercised quickly.
const fakeGdbScript = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    "echo "*)
      m="${line#echo }"
      m="${m%\\n}"
      printf '%s\n' "$m"
      ;;
    quit)
      exit 0
      ;;
    stall*)
      sleep 2
      ;;
    print*)
      printf '(gdb) $1 = %s\n' "${line#print }"
      ;;
  esac
done
`

func installFakeGdb(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gdb"), []byte(fakeGdbScript), 0o755); err != nil {
		t.Fatalf("write fake gdb: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestDebuggerLifecycle(t *testing.T) {
	installFakeGdb(t)
	ctx := context.Background()

	d := NewDebugger("target.bin")
	if err := d.Start(ctx, "main"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	out, err := d.Exec(ctx, "print 7")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !strings.Contains(out, "$1 = 7") {
		t.Errorf("Exec output = %q, want it to contain %q", out, "$1 = 7")
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDebuggerExecBeforeStart(t *testing.T) {
	d := NewDebugger("target.bin")
	_, err := d.Exec(context.Background(), "info registers")
	if err == nil || !strings.Contains(err.Error(), "not started") {
		t.Fatalf("Exec on unstarted session: err = %v, want not-started error", err)
	}
}

func TestDebuggerCloseWithoutStart(t *testing.T) {
	d := NewDebugger("target.bin")
	if err := d.Close(); err != nil {
		t.Fatalf("Close on unstarted session: %v", err)
	}
}

// A timed-out command leaves its output owed on the session's stdout.
// Later commands must fail loudly rather than return another command's
// text, or nothing at all, with a nil error.
func TestDebuggerTimeoutPoisonsSession(t *testing.T) {
	installFakeGdb(t)
	ctx := context.Background()

	d := NewDebugger("target.bin")
	if err := d.Start(ctx, "main"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Close()

	d.timeout = 100 * time.Millisecond
	if _, err := d.Exec(ctx, "stall for a while"); err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("stalled Exec: err = %v, want timeout error", err)
	}

	out, err := d.Exec(ctx, "print 1")
	if err == nil {
		t.Fatalf("Exec after timeout returned %q with nil error, want corrupted-session error", out)
	}
	if !strings.Contains(err.Error(), "corrupted") {
		t.Errorf("Exec after timeout: err = %v, want corrupted-session error", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close after timeout: %v", err)
	}
}
