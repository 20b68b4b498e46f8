package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/krhitesh7/nullkrypt3rs/llm"
	"github.com/krhitesh7/nullkrypt3rs/tools"
)

// State is the agent's lifecycle position. Terminal states are
// StateCompleted, StateBudgetExhausted and StateFailed; everything the
// agent holds (the debugger session above all) is released on each.
type State string

const (
	StateRunning            State = "RUNNING"
	StateToolCallPending    State = "TOOL_CALL_PENDING"
	StateToolResultAppended State = "TOOL_RESULT_APPENDED"
	StateCompleted          State = "COMPLETED"
	StateBudgetExhausted    State = "BUDGET_EXHAUSTED"
	StateFailed             State = "FAILED"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateBudgetExhausted || s == StateFailed
}

// Options configures one analysis run.
type Options struct {
	TargetPath    string
	MainFunction  string
	MaxIterations int
	KeepHistory   int
	Model         string
	Provider      string
	RetryPolicy   *llm.RetryPolicy
}

func (o *Options) applyDefaults() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 25
	}
	if o.KeepHistory == 0 {
		o.KeepHistory = DefaultKeepHistory
	}
	if o.RetryPolicy == nil {
		p := llm.DefaultRetryPolicy()
		o.RetryPolicy = &p
	}
}

// Result is the outcome of a run, terminal state included. Err carries
// the cause when State is StateFailed.
type Result struct {
	State      State
	Iterations int
	Summary    string
	Turns      []Turn
	Usage      llm.Usage
	Err        error
}

// Agent runs the iterative analysis loop over one target.
type Agent struct {
	client     *llm.Client
	opts       Options
	emitter    *EventEmitter
	transcript *Transcript
	state      State
	usage      llm.Usage
}

func New(client *llm.Client, opts Options) (*Agent, error) {
	if opts.TargetPath == "" {
		return nil, fmt.Errorf("target path is required")
	}
	opts.applyDefaults()
	if opts.KeepHistory < MinKeepHistory {
		return nil, fmt.Errorf("keep-history must be at least %d, got %d", MinKeepHistory, opts.KeepHistory)
	}
	return &Agent{
		client:     client,
		opts:       opts,
		emitter:    NewEventEmitter(128),
		transcript: NewTranscript(),
		state:      StateRunning,
	}, nil
}

// Events exposes run progress. Consume before or during Run; the channel
// closes when the run ends.
func (a *Agent) Events() <-chan Event { return a.emitter.Events() }

func (a *Agent) setState(s State, iteration int) {
	if a.state == s {
		return
	}
	a.state = s
	a.emitter.Emit(EventStateChange, iteration, string(s))
}

// Run executes the loop until the model proves the vulnerability, the
// iteration budget runs out, or the provider fails past retries. The
// debugger session and the event channel are released on every exit.
func (a *Agent) Run(ctx context.Context) *Result {
	defer a.emitter.Close()

	caller, system, cleanup, err := a.setup(ctx)
	if err != nil {
		return a.fail(0, err)
	}
	defer cleanup()

	summarizer, err := NewSummarizer(a.client, a.opts.Model, a.opts.KeepHistory)
	if err != nil {
		return a.fail(0, err)
	}

	a.transcript.Append(UserTurn(fmt.Sprintf("Begin your analysis of %s.", filepath.Base(a.opts.TargetPath))))
	return a.loop(ctx, caller, summarizer, system)
}

// setup builds the target, attaches the debugger and wires the tool set.
// The returned cleanup releases the debugger session.
func (a *Agent) setup(ctx context.Context) (*Caller, string, func(), error) {
	contents, err := os.ReadFile(a.opts.TargetPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("read target: %w", err)
	}
	lang := tools.DetectLanguage(a.opts.TargetPath, string(contents))

	binary, err := tools.BuildTarget(ctx, a.opts.TargetPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("build target: %w", err)
	}

	workDir := filepath.Dir(a.opts.TargetPath)
	dbg := tools.NewDebugger(binary)
	if err := dbg.Start(ctx, a.opts.MainFunction); err != nil {
		return nil, "", nil, fmt.Errorf("start debugger: %w", err)
	}

	caller := NewAnalysisCaller(
		tools.NewCodeBrowser(workDir),
		dbg,
		tools.NewScriptRunner(workDir),
		tools.NewShell(workDir),
	)
	system := SystemPrompt(a.opts.TargetPath, binary, lang, caller.Names())
	return caller, system, func() { dbg.Close() }, nil
}

// loop is the iteration engine, separated from setup so the state machine
// is exercised without a real target.
func (a *Agent) loop(ctx context.Context, caller *Caller, summarizer *Summarizer, system string) *Result {
	detector := newLoopDetector()

	for iter := 1; iter <= a.opts.MaxIterations; iter++ {
		a.emitter.Emit(EventIteration, iter, fmt.Sprintf("iteration %d/%d", iter, a.opts.MaxIterations))

		if compacted, err := summarizer.Compact(ctx, a.transcript); err != nil {
			// Compaction failure is not fatal; the next completion may
			// still fit. Trouble surfaces as a context length error there.
			a.emitter.Emit(EventError, iter, "compaction failed: "+err.Error())
		} else if compacted {
			a.emitter.Emit(EventSummary, iter, "transcript compacted")
		}

		resp, err := a.complete(ctx, iter, system)
		if err != nil {
			return a.fail(iter, fmt.Errorf("completion: %w", err))
		}
		a.usage = a.usage.Add(resp.Usage)
		a.transcript.Append(AssistantTurn(resp.Text))

		call, err := ExtractToolCall(ctx, a.client, a.opts.Model, resp.Text, caller.Names())
		if err != nil {
			if !llm.IsRetryable(err) && isProviderFailure(err) {
				return a.fail(iter, fmt.Errorf("tool extraction: %w", err))
			}
			a.appendResult(iter, ToolResult{
				Tool:    "unknown",
				Output:  "could not parse a tool call from your response: " + err.Error() + "\nRespond with exactly one tool call after an ACTION: line.",
				IsError: true,
			})
			continue
		}
		a.setState(StateToolCallPending, iter)
		a.emitter.Emit(EventToolCall, iter, call.Tool)

		if call.Tool == ToolExploitSuccessful {
			summary, _ := optionalStringArg(call.Args, "summary")
			a.setState(StateCompleted, iter)
			return a.result(iter, summary, nil)
		}

		detector.record(*call)
		if detector.looping() {
			a.appendResult(iter, ToolResult{
				Tool:    call.Tool,
				Output:  "you are repeating the same tool call without progress; change your approach",
				IsError: true,
			})
			a.setState(StateRunning, iter)
			continue
		}

		res := caller.Dispatch(ctx, *call)
		a.appendResult(iter, res)
		a.setState(StateRunning, iter)
	}

	a.setState(StateBudgetExhausted, a.opts.MaxIterations)
	return a.result(a.opts.MaxIterations, "", nil)
}

// complete issues the next-turn completion under the retry policy.
func (a *Agent) complete(ctx context.Context, iteration int, system string) (*llm.Response, error) {
	policy := *a.opts.RetryPolicy
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		a.emitter.Emit(EventRetry, iteration, fmt.Sprintf("attempt %d failed, retrying in %s: %v", attempt, delay, err))
	}
	return llm.Retry(ctx, policy, func(ctx context.Context) (*llm.Response, error) {
		return a.client.Complete(ctx, llm.Request{
			Model:    a.opts.Model,
			Provider: a.opts.Provider,
			Messages: a.transcript.Messages(system),
		})
	})
}

func (a *Agent) appendResult(iteration int, res ToolResult) {
	content := res.Output
	if res.IsError {
		content = "ERROR: " + content
	}
	a.transcript.Append(ToolResultTurn(res.Tool, content))
	a.setState(StateToolResultAppended, iteration)
	a.emitter.Emit(EventToolResult, iteration, res.Tool)
}

func (a *Agent) fail(iteration int, err error) *Result {
	a.setState(StateFailed, iteration)
	return a.result(iteration, "", err)
}

func (a *Agent) result(iteration int, summary string, err error) *Result {
	return &Result{
		State:      a.state,
		Iterations: iteration,
		Summary:    summary,
		Turns:      a.transcript.Turns(),
		Usage:      a.usage,
		Err:        err,
	}
}

// isProviderFailure distinguishes hard provider errors from a model that
// simply wrote unparseable JSON.
func isProviderFailure(err error) bool {
	switch err.(type) {
	case *llm.AuthenticationError, *llm.ConfigurationError, *llm.ContextLengthError:
		return true
	}
	return false
}
