package agent

import (
	"fmt"
	"strings"

	"github.com/krhitesh7/nullkrypt3rs/tools"
)

// toolDocs is what the model is told about each tool, keyed by name.
var toolDocs = map[string]string{
	ToolCodeBrowser: `code_browser_source: read source code.
  args: {"filename": "<path relative to the target>", "function": "<function name, optional>"}
  Returns the function body with line numbers, or the whole file for headers.`,
	ToolDebugger: `debugger: run one gdb command in the live session attached to the target.
  args: {"command": "<gdb command>"}
  The session persists across calls: breakpoints, watchpoints and program state survive.`,
	ToolRunScript: `run_script: execute a Python 3 script in the target's directory.
  args: {"script": "<full script text>"}
  Use this to craft inputs, drive the binary, and assert on its behavior.`,
	ToolBashShell: `bash_shell: run one shell command in the target's directory.
  args: {"command": "<command>"}
  Destructive commands are rejected.`,
	ToolExploitSuccessful: `exploit_successful: call this ONLY once you have demonstrated the
  vulnerability end to end, with the evidence in hand.
  args: {"summary": "<what the vulnerability is and how you triggered it>"}`,
}

func languageExpertise(lang string) string {
	switch lang {
	case "c", "cpp":
		return "memory corruption: buffer overflows, use-after-free, format strings, integer overflows, off-by-one errors"
	case "python":
		return "injection flaws, unsafe deserialization, path traversal, command execution via user input"
	case "go":
		return "race conditions, unchecked errors, integer conversion bugs, unsafe pointer misuse"
	case "rust":
		return "unsafe block misuse, integer overflows, logic errors in bounds handling"
	case "java":
		return "deserialization gadgets, injection flaws, path traversal"
	default:
		return "memory corruption and input handling flaws"
	}
}

// SystemPrompt builds the analysis system prompt for one target.
func SystemPrompt(targetPath, binaryPath, lang string, toolNames []string) string {
	var docs []string
	for _, n := range toolNames {
		if d, ok := toolDocs[n]; ok {
			docs = append(docs, d)
		}
	}
	docs = append(docs, toolDocs[ToolExploitSuccessful])

	return fmt.Sprintf(`You are an expert %s security researcher analyzing a program for exploitable vulnerabilities. Your specialty is %s.

Target source: %s
Target binary: %s (compiled with protections disabled: no stack canary, no PIE, executable stack)

Available tools:

%s

Rules:
- Work iteratively: inspect code, form a hypothesis, test it with the debugger or a script.
- Each response must contain exactly ONE tool call, described after an ACTION: line.
- Before the ACTION: line, explain your current reasoning briefly.
- When you have proven the vulnerability with concrete evidence (a crash you control, corrupted state you chose, hijacked control flow), call exploit_successful with a summary.
- Do not call exploit_successful on a hypothesis. Evidence first.`,
		tools.LanguageName(lang), languageExpertise(lang), targetPath, binaryPath, strings.Join(docs, "\n\n"))
}

// toolExtractionPrompt asks for the structured form of a free-text action.
func toolExtractionPrompt(actionText string, available []string) string {
	names := append(append([]string{}, available...), ToolExploitSuccessful)
	return fmt.Sprintf(`Extract the single tool call from the analyst response below.

Valid tool names: %s

Respond with ONE JSON object and nothing else, in this exact shape:
{"tool": "<name>", "args": {...}}

Analyst response:
%s`, strings.Join(names, ", "), actionText)
}

// summaryPrompt asks for a compact synopsis of elided transcript turns.
func summaryPrompt(rendered string) string {
	return fmt.Sprintf(`Summarize the following portion of a vulnerability analysis session. Preserve, in order of importance:
1. Confirmed findings (addresses, offsets, crash signatures, working inputs).
2. Hypotheses that were tested and ruled out.
3. The current line of investigation.

Be dense. Omit pleasantries and tool mechanics. Plain text only.

Session excerpt:
%s`, rendered)
}
