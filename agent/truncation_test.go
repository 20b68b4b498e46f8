package agent

import (
	"strings"
	"testing"
)

func TestTruncateShortOutputUnchanged(t *testing.T) {
	out := "Program received signal SIGSEGV"
	if got := TruncateToolOutput(ToolDebugger, out); got != out {
		t.Errorf("short output changed: %q", got)
	}
}

func TestTruncateTailKeepsEnd(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("line\n")
	}
	sb.WriteString("Segmentation fault at 0x41414141")

	got := TruncateToolOutput(ToolDebugger, sb.String())
	if !strings.Contains(got, "Segmentation fault at 0x41414141") {
		t.Error("tail strategy dropped the final line")
	}
	if !strings.Contains(got, "elided") {
		t.Error("no elision marker")
	}
	if len(got) > toolTruncation[ToolDebugger].maxChars+200 {
		t.Errorf("output still %d chars", len(got))
	}
}

func TestTruncateHeadTailKeepsBothEnds(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("int vulnerable(char *input) {\n")
	for i := 0; i < 2000; i++ {
		sb.WriteString("    // body\n")
	}
	sb.WriteString("}")

	got := TruncateToolOutput(ToolCodeBrowser, sb.String())
	if !strings.Contains(got, "int vulnerable(char *input)") {
		t.Error("head dropped")
	}
	if !strings.HasSuffix(got, "}") {
		t.Error("tail dropped")
	}
}

func TestTruncateUnknownToolUsesDefault(t *testing.T) {
	long := strings.Repeat("z", 50000)
	got := TruncateToolOutput("someday_tool", long)
	if len(got) > defaultTruncation.maxChars+200 {
		t.Errorf("output still %d chars", len(got))
	}
}
