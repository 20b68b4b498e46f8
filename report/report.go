// Package report renders analysis outcomes as markdown files. A report is
// always produced, even for failed or budget-exhausted runs; partial
// evidence is worth keeping.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/krhitesh7/nullkrypt3rs/agent"
)

// Reporter writes one markdown file per analyzed target under Dir.
type Reporter struct {
	Dir string
}

func NewReporter(dir string) *Reporter { return &Reporter{Dir: dir} }

// Write renders the result for targetPath and stores it as
// <dir>/<target base>.md, returning the report path.
func (r *Reporter) Write(targetPath string, res *agent.Result) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(targetPath), filepath.Ext(targetPath))
	path := filepath.Join(r.Dir, base+".md")
	if err := os.WriteFile(path, []byte(Render(targetPath, res)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Render produces the markdown body for a result.
func Render(targetPath string, res *agent.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Vulnerability Analysis: %s\n\n", filepath.Base(targetPath))
	fmt.Fprintf(&sb, "- **Target:** `%s`\n", targetPath)
	fmt.Fprintf(&sb, "- **Outcome:** %s\n", verdict(res.State))
	fmt.Fprintf(&sb, "- **Iterations:** %d\n", res.Iterations)
	fmt.Fprintf(&sb, "- **Tokens:** %d in / %d out\n", res.Usage.InputTokens, res.Usage.OutputTokens)
	fmt.Fprintf(&sb, "- **Generated:** %s\n\n", time.Now().UTC().Format(time.RFC3339))

	switch res.State {
	case agent.StateCompleted:
		sb.WriteString("## Finding\n\n")
		if res.Summary != "" {
			sb.WriteString(res.Summary + "\n\n")
		} else {
			sb.WriteString("The analysis reported a confirmed exploit but gave no summary; see the session log below.\n\n")
		}
	case agent.StateBudgetExhausted:
		sb.WriteString("## Partial Findings\n\n")
		sb.WriteString("The iteration budget ran out before a full exploit was demonstrated. The session log below records everything that was established.\n\n")
	case agent.StateFailed:
		sb.WriteString("## Analysis Failed\n\n")
		if res.Err != nil {
			fmt.Fprintf(&sb, "Failure cause: %v\n\n", res.Err)
		}
		sb.WriteString("Partial progress, if any, is preserved in the session log below.\n\n")
	}

	if evidence := collectEvidence(res.Turns); evidence != "" {
		sb.WriteString("## Evidence\n\n")
		sb.WriteString(evidence)
	}

	sb.WriteString("## Session Log\n\n")
	for _, t := range res.Turns {
		switch t.Kind {
		case agent.TurnAssistant:
			sb.WriteString("### Analyst\n\n" + t.Content + "\n\n")
		case agent.TurnToolResult:
			fmt.Fprintf(&sb, "### Tool: %s\n\n```\n%s\n```\n\n", t.ToolName, t.Content)
		case agent.TurnSummary:
			sb.WriteString("### Earlier Session (summarized)\n\n" + t.Content + "\n\n")
		default:
			sb.WriteString("### Operator\n\n" + t.Content + "\n\n")
		}
	}
	return sb.String()
}

func verdict(s agent.State) string {
	switch s {
	case agent.StateCompleted:
		return "Vulnerability demonstrated"
	case agent.StateBudgetExhausted:
		return "Inconclusive (iteration budget exhausted)"
	case agent.StateFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// collectEvidence pulls crash and assertion traces out of the transcript
// so they surface ahead of the full log.
func collectEvidence(turns []agent.Turn) string {
	markers := []string{
		"Segmentation fault",
		"SIGSEGV",
		"SIGABRT",
		"stack smashing detected",
		"AssertionError",
		"exited nonzero",
		"Program received signal",
	}
	var sb strings.Builder
	for _, t := range turns {
		if t.Kind != agent.TurnToolResult {
			continue
		}
		for _, m := range markers {
			if strings.Contains(t.Content, m) {
				fmt.Fprintf(&sb, "From `%s`:\n\n```\n%s\n```\n\n", t.ToolName, t.Content)
				break
			}
		}
	}
	return sb.String()
}
