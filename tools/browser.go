package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// CodeBrowser serves source listings to the model. It never executes
// anything; it only reads files under its root.
type CodeBrowser struct {
	root string
}

// NewCodeBrowser returns a browser rooted at dir. Requests are resolved
// relative to dir and may not escape it.
func NewCodeBrowser(dir string) *CodeBrowser {
	return &CodeBrowser{root: dir}
}

func (b *CodeBrowser) resolve(name string) (string, error) {
	p := filepath.Join(b.root, filepath.Clean("/"+name))
	rel, err := filepath.Rel(b.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes the source root", name)
	}
	return p, nil
}

// FunctionSource extracts the body of the named function from the given
// file and returns it with line numbers. Header files are returned whole,
// since declarations there are short and context matters. An empty
// function name also returns the whole file.
func (b *CodeBrowser) FunctionSource(filename, function string) (string, error) {
	path, err := b.resolve(filename)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	lines := strings.Split(string(data), "\n")

	ext := strings.ToLower(filepath.Ext(filename))
	if function == "" || ext == ".h" || ext == ".hpp" || ext == ".hxx" {
		return numberLines(lines, 1), nil
	}

	lang := DetectLanguage(filename, string(data))
	start := findFunctionStart(lines, function, lang)
	if start < 0 {
		return "", fmt.Errorf("function %q not found in %s", function, filename)
	}

	var end int
	if lang == "python" {
		end = pythonBlockEnd(lines, start)
	} else {
		end = braceBlockEnd(lines, start)
	}
	if end < 0 {
		end = len(lines) - 1
	}
	return numberLines(lines[start:end+1], start+1), nil
}

func numberLines(lines []string, first int) string {
	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%4d: %s\n", first+i, line)
	}
	return sb.String()
}

// findFunctionStart returns the index of the line where the function's
// definition begins, or -1. Matches definitions, not call sites: the name
// must be followed by an argument list and not preceded by a call context.
func findFunctionStart(lines []string, function, lang string) int {
	name := regexp.QuoteMeta(function)
	var patterns []*regexp.Regexp
	switch lang {
	case "python":
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:async\s+)?def\s+` + name + `\s*\(`),
		}
	case "go":
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^func\s+(?:\([^)]+\)\s+)?` + name + `\s*\(`),
		}
	case "rust":
		patterns = []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:pub\s+)?(?:async\s+)?fn\s+` + name + `\s*[(<]`),
		}
	default: // c, cpp, java
		patterns = []*regexp.Regexp{
			// return type on the same line
			regexp.MustCompile(`^[\w\*&\s:<>,]+[\s\*&]` + name + `\s*\(`),
			// return type on the previous line
			regexp.MustCompile(`^` + name + `\s*\(`),
		}
	}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(line) && !strings.Contains(line, ";") {
				return i
			}
		}
	}
	return -1
}

// braceBlockEnd scans forward from start counting braces and returns the
// index of the line that closes the function body.
func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
	}
	return -1
}

// pythonBlockEnd returns the last line of an indentation-delimited block.
func pythonBlockEnd(lines []string, start int) int {
	baseIndent := indentOf(lines[start])
	last := start
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if indentOf(lines[i]) <= baseIndent {
			return last
		}
		last = i
	}
	return last
}

func indentOf(line string) int {
	n := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			n++
		case '\t':
			n += 8
		default:
			return n
		}
	}
	return n
}
