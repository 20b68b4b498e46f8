package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const scriptTimeout = 60 * time.Second

// ScriptRunner executes model-authored Python scripts against the target.
// Scripts land in a scratch directory and run with the target's directory
// as working directory so relative paths to the binary resolve.
type ScriptRunner struct {
	workDir string
}

func NewScriptRunner(workDir string) *ScriptRunner {
	return &ScriptRunner{workDir: workDir}
}

// Run writes body to a temp script and executes it with python3. A nonzero
// exit is not an error of the tool itself; it is reported in the output so
// the model sees assertion failures and tracebacks verbatim.
func (r *ScriptRunner) Run(ctx context.Context, body string) (string, error) {
	f, err := os.CreateTemp(r.workDir, "probe_*.py")
	if err != nil {
		return "", fmt.Errorf("create script: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", fmt.Errorf("write script: %w", err)
	}
	f.Close()

	res, err := runCommandIn(ctx, r.workDir, scriptTimeout, "python3", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 && !res.TimedOut {
		return fmt.Sprintf("script exited nonzero (code %d) with output:\n%s", res.ExitCode, res.Output), nil
	}
	return FormatResult(res), nil
}
