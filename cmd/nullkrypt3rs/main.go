// Command nullkrypt3rs analyzes programs for exploitable vulnerabilities
// with an LLM-driven agent, reviews GitHub pull requests, and serves the
// webhook endpoint that triggers reviews automatically.
package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/krhitesh7/nullkrypt3rs/agent"
	"github.com/krhitesh7/nullkrypt3rs/config"
	"github.com/krhitesh7/nullkrypt3rs/llm"
	"github.com/krhitesh7/nullkrypt3rs/prreview"
	"github.com/krhitesh7/nullkrypt3rs/report"
	"github.com/krhitesh7/nullkrypt3rs/webhook"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nullkrypt3rs",
		Short:         "LLM-driven vulnerability analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(analyzeCmd(), reviewCmd(), serveCmd())
	return root
}

func analyzeCmd() *cobra.Command {
	var (
		codeFile      string
		codeDirectory string
		mainFunction  string
		model         string
		provider      string
		maxIterations int
		keepHistory   int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the analysis agent against a source file or directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (codeFile == "") == (codeDirectory == "") {
				return fmt.Errorf("exactly one of --code-file or --code-directory is required")
			}
			if keepHistory < agent.MinKeepHistory {
				return fmt.Errorf("--keep-history must be at least %d", agent.MinKeepHistory)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client, defProvider, err := buildClient(cfg, provider)
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Model
			}

			targets, err := collectTargets(codeFile, codeDirectory)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return fmt.Errorf("no source files found under %s", codeDirectory)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reporter := report.NewReporter(cfg.ResultsDir)
			var failed int
			for _, target := range targets {
				log.Printf("analyzing %s", target)
				a, err := agent.New(client, agent.Options{
					TargetPath:    target,
					MainFunction:  mainFunction,
					MaxIterations: maxIterations,
					KeepHistory:   keepHistory,
					Model:         model,
					Provider:      defProvider,
				})
				if err != nil {
					return err
				}

				go logEvents(a.Events())
				res := a.Run(ctx)

				path, werr := reporter.Write(target, res)
				if werr != nil {
					return werr
				}
				log.Printf("%s: %s (report: %s)", target, res.State, path)
				if res.State == agent.StateFailed {
					failed++
					if res.Err != nil {
						log.Printf("%s: %v", target, res.Err)
					}
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d analyses failed", failed, len(targets))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&codeFile, "code-file", "", "source file or binary to analyze")
	cmd.Flags().StringVar(&codeDirectory, "code-directory", "", "analyze every source file in this directory")
	cmd.Flags().StringVar(&mainFunction, "main-function", "main", "function to break on when the debugger starts")
	cmd.Flags().StringVar(&model, "llm-model", "", "model to use (defaults to LLM_MODEL)")
	cmd.Flags().StringVar(&provider, "provider", "", "llm provider: openai or anthropic (defaults to LLM_PROVIDER)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 25, "iteration budget per target")
	cmd.Flags().IntVar(&keepHistory, "keep-history", agent.DefaultKeepHistory, "transcript turns kept verbatim before compaction")
	return cmd
}

func reviewCmd() *cobra.Command {
	var (
		model       string
		provider    string
		postComment bool
	)

	cmd := &cobra.Command{
		Use:   "review <pull-request-url>",
		Short: "Review a GitHub pull request for security issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client, _, err := buildClient(cfg, provider)
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Model
			}

			analyzer := prreview.NewAnalyzer(
				prreview.NewGitHubClient(cfg.GitHubToken), client, model, cfg.ResultsDir)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			an, path, err := analyzer.AnalyzeURL(ctx, args[0])
			if err != nil {
				return err
			}
			log.Printf("review written to %s", path)
			if postComment {
				if err := analyzer.Comment(ctx, an); err != nil {
					return fmt.Errorf("post comment: %w", err)
				}
				log.Printf("comment posted to %s/%s#%d", an.Owner, an.Repo, an.Number)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "llm-model", "", "model to use (defaults to LLM_MODEL)")
	cmd.Flags().StringVar(&provider, "provider", "", "llm provider (defaults to LLM_PROVIDER)")
	cmd.Flags().BoolVar(&postComment, "comment", false, "post the review as a PR comment")
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		host        string
		port        int
		model       string
		postComment bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the GitHub webhook endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client, _, err := buildClient(cfg, "")
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.Model
			}
			if host == "" {
				host = cfg.Host
			}
			if port == 0 {
				port = cfg.Port
			}
			if cfg.WebhookSecret == "" {
				log.Printf("warning: GITHUB_WEBHOOK_SECRET is unset; signature checking disabled")
			}

			analyzer := prreview.NewAnalyzer(
				prreview.NewGitHubClient(cfg.GitHubToken), client, model, cfg.ResultsDir)
			srv := webhook.NewServer(cfg.WebhookSecret, analyzer, postComment)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			log.Printf("listening on %s", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind address (defaults to HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "bind port (defaults to PORT)")
	cmd.Flags().StringVar(&model, "llm-model", "", "model to use (defaults to LLM_MODEL)")
	cmd.Flags().BoolVar(&postComment, "comment", false, "post reviews as PR comments")
	return cmd
}

// buildClient registers the configured provider adapters. An explicit
// provider flag overrides the environment's default.
func buildClient(cfg *config.Config, provider string) (*llm.Client, string, error) {
	if provider == "" {
		provider = cfg.Provider
	}
	name, key, err := cfg.APIKey(provider)
	if err != nil {
		return nil, "", err
	}
	adapter, err := llm.NewGollmAdapter(name, llm.WithAPIKey(key), llm.WithModel(cfg.Model))
	if err != nil {
		return nil, "", err
	}
	client := llm.NewClient(llm.WithProvider(name, adapter), llm.WithDefaultProvider(name))
	return client, name, nil
}

// collectTargets resolves the analyze flags to a file list. Directories
// contribute their source files, non-recursively, binaries excluded.
func collectTargets(codeFile, codeDirectory string) ([]string, error) {
	if codeFile != "" {
		if _, err := os.Stat(codeFile); err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
		return []string{codeFile}, nil
	}

	entries, err := os.ReadDir(codeDirectory)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var targets []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		switch ext {
		case ".c", ".cpp", ".cxx", ".cc", ".py", ".rs", ".go", ".java":
			targets = append(targets, filepath.Join(codeDirectory, e.Name()))
		}
	}
	return targets, nil
}

// logEvents drains an agent's progress channel to the process log.
func logEvents(events <-chan agent.Event) {
	for ev := range events {
		log.Printf("[%s] iter=%d %s", ev.Type, ev.Iteration, ev.Message)
	}
}
