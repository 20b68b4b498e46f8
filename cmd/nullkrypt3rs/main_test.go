package main

import (
	"os"
	"path/filepath"
	"testing"
)

// The debugger only sets its initial breakpoint when a function name is
// given, so analysis must default to breaking on main.
func TestAnalyzeBreaksOnMainByDefault(t *testing.T) {
	f := analyzeCmd().Flags().Lookup("main-function")
	if f == nil {
		t.Fatal("main-function flag not registered")
	}
	if f.DefValue != "main" {
		t.Errorf("main-function default = %q, want %q", f.DefValue, "main")
	}
}

func TestCollectTargetsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vuln.c")
	if err := os.WriteFile(path, []byte("int main(void) { return 0; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := collectTargets(path, "")
	if err != nil {
		t.Fatalf("collectTargets: %v", err)
	}
	if len(targets) != 1 || targets[0] != path {
		t.Errorf("collectTargets = %v, want [%s]", targets, path)
	}
}
