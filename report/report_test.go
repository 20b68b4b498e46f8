package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/krhitesh7/nullkrypt3rs/agent"
)

func TestRenderCompletedRun(t *testing.T) {
	res := &agent.Result{
		State:      agent.StateCompleted,
		Iterations: 7,
		Summary:    "Stack buffer overflow in vulnerable(): 64-byte buffer, unbounded strcpy.",
		Turns: []agent.Turn{
			agent.UserTurn("Begin your analysis of vuln.c."),
			agent.AssistantTurn("Reading vulnerable() first."),
			agent.ToolResultTurn("debugger", "Program received signal SIGSEGV, 0x41414141 in ?? ()"),
		},
	}

	md := Render("/tmp/vuln.c", res)
	if !strings.Contains(md, "Vulnerability demonstrated") {
		t.Error("missing verdict")
	}
	if !strings.Contains(md, "unbounded strcpy") {
		t.Error("missing finding summary")
	}
	if !strings.Contains(md, "## Evidence") || !strings.Contains(md, "0x41414141") {
		t.Error("crash output not surfaced as evidence")
	}
}

func TestRenderCarriesAssertionFailureIntoReport(t *testing.T) {
	// A probe script that dies on an assertion must show up verbatim.
	scriptOutput := "script exited nonzero (code 1) with output:\nTraceback (most recent call last):\nAssertionError: canary unchanged"
	res := &agent.Result{
		State:      agent.StateBudgetExhausted,
		Iterations: 25,
		Turns: []agent.Turn{
			agent.AssistantTurn("Trying to overwrite the return address."),
			agent.ToolResultTurn("run_script", scriptOutput),
		},
	}

	md := Render("/tmp/vuln.c", res)
	if !strings.Contains(md, "AssertionError: canary unchanged") {
		t.Fatal("assertion output missing from report")
	}
	if !strings.Contains(md, "iteration budget") {
		t.Error("missing budget-exhausted explanation")
	}
}

func TestRenderFailedRunKeepsPartialProgress(t *testing.T) {
	res := &agent.Result{
		State:      agent.StateFailed,
		Iterations: 3,
		Err:        os.ErrDeadlineExceeded,
		Turns: []agent.Turn{
			agent.AssistantTurn("Found a suspicious memcpy."),
		},
	}

	md := Render("/tmp/vuln.c", res)
	if !strings.Contains(md, "Analysis Failed") {
		t.Error("missing failure section")
	}
	if !strings.Contains(md, "suspicious memcpy") {
		t.Error("partial transcript dropped")
	}
}

func TestWriteCreatesReportFile(t *testing.T) {
	dir := t.TempDir()
	r := NewReporter(filepath.Join(dir, "results"))

	res := &agent.Result{State: agent.StateCompleted, Iterations: 1, Summary: "x"}
	path, err := r.Write("/src/vuln.c", res)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "vuln.md" {
		t.Errorf("path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
