package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/krhitesh7/nullkrypt3rs/llm"
	"github.com/krhitesh7/nullkrypt3rs/tools"
)

// Tool names as the model invokes them.
const (
	ToolCodeBrowser = "code_browser_source"
	ToolDebugger    = "debugger"
	ToolRunScript   = "run_script"
	ToolBashShell   = "bash_shell"

	// ToolExploitSuccessful is the completion sentinel. It is intercepted
	// before dispatch and never has a registered handler.
	ToolExploitSuccessful = "exploit_successful"
)

// ToolCall is one parsed instruction from the model.
type ToolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// ToolResult is what flows back into the transcript. IsError marks
// handler failures and malformed calls; the loop continues either way.
type ToolResult struct {
	Tool    string
	Output  string
	IsError bool
}

// ToolHandler executes one tool invocation.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// Caller maps tool names to handlers and dispatches parsed calls.
type Caller struct {
	mu       sync.RWMutex
	handlers map[string]ToolHandler
}

func NewCaller() *Caller {
	return &Caller{handlers: make(map[string]ToolHandler)}
}

func (c *Caller) Register(name string, h ToolHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

// Names lists registered tools in stable order.
func (c *Caller) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.handlers))
	for n := range c.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one call. Unknown tools and handler errors come back as
// error results, never as Go errors: the model gets to see its mistake
// and correct course.
func (c *Caller) Dispatch(ctx context.Context, call ToolCall) ToolResult {
	c.mu.RLock()
	h, ok := c.handlers[call.Tool]
	c.mu.RUnlock()
	if !ok {
		return ToolResult{
			Tool:    call.Tool,
			Output:  fmt.Sprintf("unknown tool %q; available tools: %s", call.Tool, strings.Join(c.Names(), ", ")),
			IsError: true,
		}
	}

	out, err := h(ctx, call.Args)
	if err != nil {
		return ToolResult{Tool: call.Tool, Output: "tool error: " + err.Error(), IsError: true}
	}
	return ToolResult{Tool: call.Tool, Output: TruncateToolOutput(call.Tool, out)}
}

// NewAnalysisCaller wires the standard tool set against one target.
func NewAnalysisCaller(browser *tools.CodeBrowser, dbg *tools.Debugger, scripts *tools.ScriptRunner, shell *tools.Shell) *Caller {
	c := NewCaller()
	c.Register(ToolCodeBrowser, func(ctx context.Context, args map[string]any) (string, error) {
		filename, err := stringArg(args, "filename")
		if err != nil {
			return "", err
		}
		function, _ := optionalStringArg(args, "function")
		return browser.FunctionSource(filename, function)
	})
	c.Register(ToolDebugger, func(ctx context.Context, args map[string]any) (string, error) {
		command, err := stringArg(args, "command")
		if err != nil {
			return "", err
		}
		return dbg.Exec(ctx, command)
	})
	c.Register(ToolRunScript, func(ctx context.Context, args map[string]any) (string, error) {
		script, err := stringArg(args, "script")
		if err != nil {
			return "", err
		}
		return scripts.Run(ctx, script)
	})
	c.Register(ToolBashShell, func(ctx context.Context, args map[string]any) (string, error) {
		command, err := stringArg(args, "command")
		if err != nil {
			return "", err
		}
		return shell.Run(ctx, command)
	})
	return c
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ExtractToolCall turns the model's free-text action into a structured
// call via a second, cheap completion that emits one JSON object. The
// free-text pass keeps reasoning quality; the extraction pass keeps
// parsing deterministic.
func ExtractToolCall(ctx context.Context, client *llm.Client, model, actionText string, available []string) (*ToolCall, error) {
	prompt := toolExtractionPrompt(actionText, available)
	text, err := client.Prompt(ctx, model, prompt, 0.0)
	if err != nil {
		return nil, err
	}

	raw := llm.TrimFence(text)
	var call ToolCall
	if err := json.Unmarshal([]byte(raw), &call); err != nil {
		return nil, fmt.Errorf("malformed tool call %q: %w", raw, err)
	}
	if call.Tool == "" {
		return nil, fmt.Errorf("tool call missing tool name: %q", raw)
	}
	if call.Args == nil {
		call.Args = map[string]any{}
	}
	return &call, nil
}
