package tools

import (
	"context"
	"strings"
	"testing"
)

func TestSanitizeCommandBlocksDangerous(t *testing.T) {
	blocked := []string{
		"rm -rf /",
		"sudo rm -rf /*",
		"mkfs.ext4 /dev/sda1",
		"dd if=/dev/zero of=/dev/sda",
		":(){ :|:& };:",
		"shutdown -h now",
		"REBOOT",
	}
	for _, cmd := range blocked {
		if err := SanitizeCommand(cmd); err == nil {
			t.Errorf("%q was not blocked", cmd)
		}
	}
}

func TestSanitizeCommandAllowsAnalysis(t *testing.T) {
	allowed := []string{
		"file ./target.bin",
		"objdump -d target.bin | head -50",
		"strings target.bin | grep flag",
		"checksec --file=target.bin",
		"xxd -l 64 target.bin",
		"ls -la",
	}
	for _, cmd := range allowed {
		if err := SanitizeCommand(cmd); err != nil {
			t.Errorf("%q was blocked: %v", cmd, err)
		}
	}
}

func TestShellRunsCommand(t *testing.T) {
	sh := NewShell(t.TempDir())
	out, err := sh.Run(context.Background(), "echo analysis")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "analysis") {
		t.Errorf("out = %q", out)
	}
}

func TestShellReportsNonzeroExit(t *testing.T) {
	sh := NewShell(t.TempDir())
	out, err := sh.Run(context.Background(), "exit 3")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "exit code: 3") {
		t.Errorf("out = %q", out)
	}
}

func TestShellRejectsDangerous(t *testing.T) {
	sh := NewShell(t.TempDir())
	if _, err := sh.Run(context.Background(), "rm -rf / --no-preserve-root"); err == nil {
		t.Fatal("dangerous command must error before execution")
	}
}
