package agent

import (
	"strings"
	"testing"

	"github.com/krhitesh7/nullkrypt3rs/llm"
)

func TestTranscriptMessages(t *testing.T) {
	tr := NewTranscript()
	tr.Append(UserTurn("begin"))
	tr.Append(AssistantTurn("looking at main"))
	tr.Append(ToolResultTurn(ToolDebugger, "Breakpoint 1 at 0x401136"))
	tr.Append(SummaryTurn("earlier: found the overflow"))

	msgs := tr.Messages("you are an analyst")
	if len(msgs) != 5 {
		t.Fatalf("len = %d, want 5", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %s", msgs[0].Role)
	}
	if msgs[2].Role != llm.RoleAssistant {
		t.Errorf("assistant turn role = %s", msgs[2].Role)
	}
	if msgs[3].Role != llm.RoleUser || !strings.Contains(msgs[3].Content, ToolDebugger) {
		t.Errorf("tool result should be a labeled user message, got %+v", msgs[3])
	}
	if !strings.Contains(msgs[4].Content, "Summary") {
		t.Errorf("summary turn not labeled: %q", msgs[4].Content)
	}
}

func TestTranscriptTurnsIsACopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(UserTurn("begin"))

	got := tr.Turns()
	got[0].Content = "mutated"

	if tr.Turns()[0].Content != "begin" {
		t.Fatal("external mutation leaked into the transcript")
	}
}

func TestTurnIDsUnique(t *testing.T) {
	a := UserTurn("x")
	b := UserTurn("x")
	if a.ID == b.ID {
		t.Fatal("turn IDs must be unique")
	}
}
