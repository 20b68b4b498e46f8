package prreview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/krhitesh7/nullkrypt3rs/llm"
	"github.com/krhitesh7/nullkrypt3rs/tools"
)

// Analysis is the output of reviewing one pull request.
type Analysis struct {
	Owner          string
	Repo           string
	Number         int
	Title          string
	HeadSHA        string
	FileNotes      []FileNote
	SecurityReview string
	Usage          llm.Usage
	StartedAt      time.Time
	FinishedAt     time.Time
}

// FileNote is the line-by-line review of one changed file.
type FileNote struct {
	Path   string
	Review string
}

// Analyzer reviews pull requests in two stages: a per-file line review,
// then a whole-diff security pass that reads the first stage's notes.
type Analyzer struct {
	github  *GitHubClient
	client  *llm.Client
	model   string
	results string
}

func NewAnalyzer(github *GitHubClient, client *llm.Client, model, resultsDir string) *Analyzer {
	return &Analyzer{github: github, client: client, model: model, results: resultsDir}
}

// AnalyzeURL reviews the PR at url and writes the markdown result under
// the results directory, returning the analysis and the report path.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url string) (*Analysis, string, error) {
	owner, repo, number, err := ParsePRURL(url)
	if err != nil {
		return nil, "", err
	}
	return a.Analyze(ctx, owner, repo, number)
}

// Analyze reviews one PR by coordinates.
func (a *Analyzer) Analyze(ctx context.Context, owner, repo string, number int) (*Analysis, string, error) {
	an := &Analysis{Owner: owner, Repo: repo, Number: number, StartedAt: time.Now().UTC()}

	pr, err := a.github.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, "", err
	}
	an.Title = pr.Title
	an.HeadSHA = pr.Head.SHA

	rawDiff, err := a.github.GetDiff(ctx, owner, repo, number)
	if err != nil {
		return nil, "", err
	}
	files, err := ParseDiff(rawDiff)
	if err != nil {
		return nil, "", fmt.Errorf("parse diff: %w", err)
	}

	policy := llm.DefaultRetryPolicy()
	for _, f := range files {
		added := f.AddedLines()
		if len(added) == 0 {
			continue
		}
		prompt := lineReviewPrompt(pr, f, added)
		review, err := llm.Retry(ctx, policy, func(ctx context.Context) (string, error) {
			return a.client.Prompt(ctx, a.model, prompt, 0.2)
		})
		if err != nil {
			return nil, "", fmt.Errorf("review %s: %w", f.Path, err)
		}
		an.FileNotes = append(an.FileNotes, FileNote{Path: f.Path, Review: strings.TrimSpace(review)})
	}

	secPrompt := securityReviewPrompt(pr, rawDiff, an.FileNotes)
	secReview, err := llm.Retry(ctx, policy, func(ctx context.Context) (string, error) {
		return a.client.Prompt(ctx, a.model, secPrompt, 0.2)
	})
	if err != nil {
		return nil, "", fmt.Errorf("security review: %w", err)
	}
	an.SecurityReview = strings.TrimSpace(secReview)
	an.FinishedAt = time.Now().UTC()

	path, err := a.writeResult(an)
	if err != nil {
		return nil, "", err
	}
	return an, path, nil
}

// Comment posts the analysis summary back to the PR conversation.
func (a *Analyzer) Comment(ctx context.Context, an *Analysis) error {
	return a.github.PostComment(ctx, an.Owner, an.Repo, an.Number, renderComment(an))
}

func (a *Analyzer) writeResult(an *Analysis) (string, error) {
	if err := os.MkdirAll(a.results, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_pr%d.md", an.Owner, an.Repo, an.Number)
	path := filepath.Join(a.results, name)
	if err := os.WriteFile(path, []byte(renderAnalysis(an)), 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}

func lineReviewPrompt(pr *PullRequest, f FileDiff, added []DiffLine) string {
	var sb strings.Builder
	for _, l := range added {
		fmt.Fprintf(&sb, "%d: %s\n", l.NewNumber, l.Content)
	}
	lang := tools.LanguageName(tools.DetectLanguage(f.Path, ""))
	return fmt.Sprintf(`You are reviewing a pull request titled %q.
Review the following added lines from %s (%s). For each line that has a
bug, a security weakness, or a correctness risk, output "line <n>: <issue>".
If nothing is wrong, output "no issues".

%s`, pr.Title, f.Path, lang, sb.String())
}

func securityReviewPrompt(pr *PullRequest, rawDiff string, notes []FileNote) string {
	var sb strings.Builder
	for _, n := range notes {
		fmt.Fprintf(&sb, "### %s\n%s\n\n", n.Path, n.Review)
	}
	// Dominant cost is the diff itself; keep it bounded.
	if len(rawDiff) > 40000 {
		rawDiff = rawDiff[:40000] + "\n... [diff truncated] ..."
	}
	return fmt.Sprintf(`You are a security engineer reviewing pull request %q.

First-pass line notes:
%s
Full diff:
%s

Assess the change for exploitable issues: injection, memory safety,
authentication and authorization gaps, secrets in code, unsafe
deserialization, path traversal. Rank findings by severity. If the change
is safe, say so and why.`, pr.Title, sb.String(), rawDiff)
}

func renderAnalysis(an *Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# PR Security Review: %s/%s#%d\n\n", an.Owner, an.Repo, an.Number)
	fmt.Fprintf(&sb, "- **Title:** %s\n", an.Title)
	fmt.Fprintf(&sb, "- **Head:** `%s`\n", an.HeadSHA)
	fmt.Fprintf(&sb, "- **Reviewed:** %s\n\n", an.FinishedAt.Format(time.RFC3339))

	sb.WriteString("## Security Assessment\n\n")
	sb.WriteString(an.SecurityReview + "\n\n")

	if len(an.FileNotes) > 0 {
		sb.WriteString("## Line Notes\n\n")
		for _, n := range an.FileNotes {
			fmt.Fprintf(&sb, "### `%s`\n\n%s\n\n", n.Path, n.Review)
		}
	}
	return sb.String()
}

func renderComment(an *Analysis) string {
	var sb strings.Builder
	sb.WriteString("## Automated Security Review\n\n")
	sb.WriteString(an.SecurityReview)
	sb.WriteString("\n\n<sub>Generated by nullkrypt3rs</sub>\n")
	return sb.String()
}
