package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/krhitesh7/nullkrypt3rs/llm"
)

// keepBeginning turns stay verbatim at the front of a compacted
// transcript: the system context and the opening exchange anchor
// everything the model does later.
const keepBeginning = 4

// DefaultKeepHistory is the compaction threshold when none is configured.
const DefaultKeepHistory = 14

// MinKeepHistory bounds the threshold from below; anything smaller leaves
// too little verbatim context after the summary.
const MinKeepHistory = 11

// Summarizer compacts transcripts that outgrow the history budget.
type Summarizer struct {
	client *llm.Client
	model  string
	keep   int
}

func NewSummarizer(client *llm.Client, model string, keepHistory int) (*Summarizer, error) {
	if keepHistory < MinKeepHistory {
		return nil, fmt.Errorf("keep-history must be at least %d, got %d", MinKeepHistory, keepHistory)
	}
	return &Summarizer{client: client, model: model, keep: keepHistory}, nil
}

// Compact rewrites the transcript in place when it exceeds the budget:
// the first keepBeginning turns stay, the middle collapses into a single
// summary turn, and the last keep-keepBeginning turns stay. The result
// has exactly keep+1 turns. Transcripts at or under budget are untouched,
// so repeated calls are stable.
func (s *Summarizer) Compact(ctx context.Context, t *Transcript) (bool, error) {
	turns := t.Turns()
	if len(turns) <= s.keep {
		return false, nil
	}
	// A freshly compacted transcript has keep+1 turns with the synopsis in
	// position keepBeginning; compacting again before new turns arrive
	// would only summarize the synopsis.
	if len(turns) == s.keep+1 && turns[keepBeginning].Kind == TurnSummary {
		return false, nil
	}

	tailLen := s.keep - keepBeginning
	head := turns[:keepBeginning]
	middle := turns[keepBeginning : len(turns)-tailLen]
	tail := turns[len(turns)-tailLen:]

	synopsis, err := s.client.Prompt(ctx, s.model, summaryPrompt(renderTurns(middle)), 0.2)
	if err != nil {
		return false, fmt.Errorf("summarize transcript: %w", err)
	}

	compacted := make([]Turn, 0, s.keep+1)
	compacted = append(compacted, head...)
	compacted = append(compacted, SummaryTurn(strings.TrimSpace(synopsis)))
	compacted = append(compacted, tail...)
	t.replace(compacted)
	return true, nil
}

// renderTurns flattens turns into labeled plain text for the summary
// request.
func renderTurns(turns []Turn) string {
	var sb strings.Builder
	for _, turn := range turns {
		switch turn.Kind {
		case TurnToolResult:
			fmt.Fprintf(&sb, "[tool %s]\n%s\n\n", turn.ToolName, turn.Content)
		case TurnSummary:
			fmt.Fprintf(&sb, "[earlier summary]\n%s\n\n", turn.Content)
		default:
			fmt.Fprintf(&sb, "[%s]\n%s\n\n", turn.Kind, turn.Content)
		}
	}
	return sb.String()
}
