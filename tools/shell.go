package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const shellTimeout = 30 * time.Second

// dangerousPatterns are substrings that disqualify a shell command
// outright. The agent probes a local binary; nothing it legitimately does
// needs to touch these.
var dangerousPatterns = []string{
	"rm -rf /",
	"rm -rf /*",
	"mkfs",
	"dd if=/dev/zero",
	"dd if=/dev/random",
	":(){ :|:& };:",
	"> /dev/sda",
	"chmod -r 777 /",
	"chown -r",
	"shutdown",
	"reboot",
	"init 0",
	"halt",
	"poweroff",
	"wget http",
	"curl http",
}

// SanitizeCommand rejects commands matching the dangerous-pattern list.
// Matching is case-insensitive and substring-based; over-blocking is
// acceptable, under-blocking is not.
func SanitizeCommand(command string) error {
	lower := strings.ToLower(command)
	for _, p := range dangerousPatterns {
		if strings.Contains(lower, p) {
			return fmt.Errorf("command rejected: contains dangerous pattern %q", p)
		}
	}
	return nil
}

// Shell runs sanitized commands via bash in a fixed working directory.
type Shell struct {
	workDir string
}

func NewShell(workDir string) *Shell {
	return &Shell{workDir: workDir}
}

// Run sanitizes and executes one command. Nonzero exits and timeouts flow
// back as output text, not errors; only a rejected or unstartable command
// errors.
func (s *Shell) Run(ctx context.Context, command string) (string, error) {
	if err := SanitizeCommand(command); err != nil {
		return "", err
	}
	res, err := runCommandIn(ctx, s.workDir, shellTimeout, "bash", "-c", command)
	if err != nil {
		return "", err
	}
	return FormatResult(res), nil
}
