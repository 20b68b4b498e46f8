// Package agent drives the vulnerability analysis loop: a transcript of
// turns, a tool caller, a summarizer that compacts old history, and the
// state machine that binds them to an LLM.
package agent

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/krhitesh7/nullkrypt3rs/llm"
)

// TurnKind discriminates transcript entries.
type TurnKind string

const (
	TurnUser       TurnKind = "user"
	TurnAssistant  TurnKind = "assistant"
	TurnToolResult TurnKind = "tool_result"
	TurnSummary    TurnKind = "summary"
)

// Turn is one transcript entry. ToolName is set only for tool results.
type Turn struct {
	ID        string
	Kind      TurnKind
	Content   string
	ToolName  string
	Timestamp time.Time
}

func newTurn(kind TurnKind, content string) Turn {
	return Turn{
		ID:        "turn_" + uuid.NewString(),
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func UserTurn(content string) Turn      { return newTurn(TurnUser, content) }
func AssistantTurn(content string) Turn { return newTurn(TurnAssistant, content) }
func SummaryTurn(content string) Turn   { return newTurn(TurnSummary, content) }

func ToolResultTurn(toolName, content string) Turn {
	t := newTurn(TurnToolResult, content)
	t.ToolName = toolName
	return t
}

// Transcript is the ordered conversation history. It grows by appending;
// the only structural mutation is compaction, which replaces a run of old
// turns with a single summary turn.
type Transcript struct {
	turns []Turn
}

func NewTranscript() *Transcript { return &Transcript{} }

func (t *Transcript) Append(turn Turn) { t.turns = append(t.turns, turn) }

func (t *Transcript) Len() int { return len(t.turns) }

// Turns returns a copy; callers cannot mutate the transcript through it.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// replace swaps the entire turn list during compaction.
func (t *Transcript) replace(turns []Turn) { t.turns = turns }

// Messages renders the transcript for a completion request. Tool results
// and summaries travel as user messages, labeled so the model can tell
// them apart from analyst input.
func (t *Transcript) Messages(systemPrompt string) []llm.Message {
	msgs := make([]llm.Message, 0, len(t.turns)+1)
	if systemPrompt != "" {
		msgs = append(msgs, llm.SystemMessage(systemPrompt))
	}
	for _, turn := range t.turns {
		switch turn.Kind {
		case TurnAssistant:
			msgs = append(msgs, llm.AssistantMessage(turn.Content))
		case TurnToolResult:
			msgs = append(msgs, llm.UserMessage(fmt.Sprintf("Tool result (%s):\n%s", turn.ToolName, turn.Content)))
		case TurnSummary:
			msgs = append(msgs, llm.UserMessage("[Summary of earlier analysis]\n"+turn.Content))
		default:
			msgs = append(msgs, llm.UserMessage(turn.Content))
		}
	}
	return msgs
}

// EstimateTokens sums the rough token cost of every turn.
func (t *Transcript) EstimateTokens() int {
	total := 0
	for _, turn := range t.turns {
		total += llm.EstimateTextTokens(turn.Content)
	}
	return total
}
