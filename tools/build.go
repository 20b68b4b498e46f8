package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const buildTimeout = 60 * time.Second

// BuildTarget compiles a source file into a debuggable binary with exploit
// mitigations disabled, so the analysis exercises the program's own flaws
// rather than the platform hardening. The binary lands next to the source.
// Files that are already binaries are returned as-is.
func BuildTarget(ctx context.Context, sourcePath string) (string, error) {
	if IsBinaryFile(sourcePath) {
		return sourcePath, nil
	}

	contents, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	lang := DetectLanguage(sourcePath, string(contents))

	dir := filepath.Dir(sourcePath)
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	binary := filepath.Join(dir, base+".bin")

	var name string
	var args []string
	switch lang {
	case "c":
		name = "gcc"
		args = []string{"-g", "-O0", "-fno-stack-protector", "-no-pie", "-z", "execstack", "-o", binary, sourcePath}
	case "cpp":
		name = "g++"
		args = []string{"-g", "-O0", "-std=c++17", "-fno-stack-protector", "-no-pie", "-z", "execstack", "-o", binary, sourcePath}
	case "go":
		name = "go"
		args = []string{"build", "-gcflags", "all=-N -l", "-o", binary, sourcePath}
	case "rust":
		name = "rustc"
		args = []string{"-g", "-C", "opt-level=0", "-o", binary, sourcePath}
	case "python":
		// Interpreted; the script itself is the target.
		return sourcePath, nil
	default:
		return "", fmt.Errorf("no build rule for language %q", lang)
	}

	res, err := runCommand(ctx, buildTimeout, name, args...)
	if err != nil {
		return "", err
	}
	if res.TimedOut {
		return "", fmt.Errorf("build timed out after %s", buildTimeout)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("build failed (exit %d):\n%s", res.ExitCode, res.Output)
	}
	return binary, nil
}
