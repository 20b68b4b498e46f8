package agent

import (
	"fmt"
	"strings"
)

type truncateStrategy string

const (
	truncateHeadTail truncateStrategy = "head_tail"
	truncateTail     truncateStrategy = "tail"
)

type truncateLimits struct {
	maxChars int
	maxLines int
	strategy truncateStrategy
}

// Per-tool output limits. Execution tools keep the tail, where crashes and
// assertion messages land; source listings keep both ends so signatures
// and the function close both survive.
var toolTruncation = map[string]truncateLimits{
	ToolCodeBrowser: {maxChars: 16000, maxLines: 500, strategy: truncateHeadTail},
	ToolDebugger:    {maxChars: 10000, maxLines: 300, strategy: truncateTail},
	ToolRunScript:   {maxChars: 10000, maxLines: 300, strategy: truncateTail},
	ToolBashShell:   {maxChars: 8000, maxLines: 250, strategy: truncateTail},
}

var defaultTruncation = truncateLimits{maxChars: 8000, maxLines: 250, strategy: truncateTail}

// TruncateToolOutput bounds a tool result before it enters the transcript.
// Replaced text is noted inline so the model knows output was elided.
func TruncateToolOutput(toolName, output string) string {
	lim, ok := toolTruncation[toolName]
	if !ok {
		lim = defaultTruncation
	}

	lines := strings.Split(output, "\n")
	if len(lines) > lim.maxLines {
		dropped := len(lines) - lim.maxLines
		switch lim.strategy {
		case truncateHeadTail:
			head := lines[:lim.maxLines/2]
			tail := lines[len(lines)-lim.maxLines/2:]
			lines = append(append(head, fmt.Sprintf("... [%d lines elided] ...", dropped)), tail...)
		default:
			lines = append([]string{fmt.Sprintf("... [%d earlier lines elided] ...", dropped)}, lines[dropped:]...)
		}
		output = strings.Join(lines, "\n")
	}

	if len(output) > lim.maxChars {
		over := len(output) - lim.maxChars
		switch lim.strategy {
		case truncateHeadTail:
			half := lim.maxChars / 2
			output = output[:half] + fmt.Sprintf("\n... [%d characters elided] ...\n", over) + output[len(output)-half:]
		default:
			output = fmt.Sprintf("... [%d earlier characters elided] ...\n", over) + output[len(output)-lim.maxChars:]
		}
	}
	return output
}
