package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/krhitesh7/nullkrypt3rs/llm"
)

func TestDispatchUnknownTool(t *testing.T) {
	c := NewCaller()
	c.Register("probe", func(ctx context.Context, args map[string]any) (string, error) {
		return "ok", nil
	})

	res := c.Dispatch(context.Background(), ToolCall{Tool: "nonexistent"})
	if !res.IsError {
		t.Fatal("unknown tool must produce an error result")
	}
	if !strings.Contains(res.Output, "probe") {
		t.Errorf("error should list available tools, got %q", res.Output)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	c := NewCaller()
	c.Register("probe", func(ctx context.Context, args map[string]any) (string, error) {
		return "", errors.New("session not started")
	})

	res := c.Dispatch(context.Background(), ToolCall{Tool: "probe"})
	if !res.IsError {
		t.Fatal("handler error must produce an error result")
	}
	if !strings.Contains(res.Output, "session not started") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestDispatchTruncatesOutput(t *testing.T) {
	c := NewCaller()
	c.Register(ToolBashShell, func(ctx context.Context, args map[string]any) (string, error) {
		return strings.Repeat("x", 100000), nil
	})

	res := c.Dispatch(context.Background(), ToolCall{Tool: ToolBashShell})
	if res.IsError {
		t.Fatal(res.Output)
	}
	if len(res.Output) >= 100000 {
		t.Errorf("output not truncated: %d chars", len(res.Output))
	}
}

func TestNamesSorted(t *testing.T) {
	c := NewCaller()
	c.Register("zeta", nil)
	c.Register("alpha", nil)
	c.Register("mid", nil)

	names := c.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestExtractToolCall(t *testing.T) {
	cases := []struct {
		name     string
		response string
		wantTool string
		wantErr  bool
	}{
		{"plain json", `{"tool": "debugger", "args": {"command": "run"}}`, "debugger", false},
		{"fenced json", "```json\n{\"tool\": \"debugger\", \"args\": {\"command\": \"run\"}}\n```", "debugger", false},
		{"no args", `{"tool": "debugger"}`, "debugger", false},
		{"not json", "I think the debugger is the way to go", "", true},
		{"missing tool", `{"args": {}}`, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(func(req llm.Request) (string, error) {
				return tc.response, nil
			})
			call, err := ExtractToolCall(context.Background(), client, "m", "ACTION: whatever", []string{"debugger"})
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if call.Tool != tc.wantTool {
				t.Errorf("tool = %q, want %q", call.Tool, tc.wantTool)
			}
			if call.Args == nil {
				t.Error("args must never be nil")
			}
		})
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]any{"command": "run", "count": 3}

	if v, err := stringArg(args, "command"); err != nil || v != "run" {
		t.Errorf("got %q, %v", v, err)
	}
	if _, err := stringArg(args, "missing"); err == nil {
		t.Error("missing key must error")
	}
	if _, err := stringArg(args, "count"); err == nil {
		t.Error("non-string value must error")
	}
}
