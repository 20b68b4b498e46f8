// Package tools implements the analysis tool handlers: code browsing,
// the debugger session, script execution, and a sanitized shell. Each
// handler is a request/response operation; only the Debugger keeps state
// across calls (its live process), and it is torn down when the agent
// terminates.
package tools

import (
	"os"
	"path/filepath"
	"strings"
)

var extensionLanguages = map[string]string{
	".c":    "c",
	".cpp":  "cpp",
	".cxx":  "cpp",
	".cc":   "cpp",
	".c++":  "cpp",
	".h":    "c",
	".hpp":  "cpp",
	".hxx":  "cpp",
	".py":   "python",
	".rs":   "rust",
	".go":   "go",
	".java": "java",
	".js":   "javascript",
	".ts":   "typescript",
}

// DetectLanguage identifies the programming language of a source file from
// its extension, falling back to content sniffing for extensionless files.
func DetectLanguage(path string, contents string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}

	if contents != "" {
		head := strings.ToLower(contents)
		if len(head) > 500 {
			head = head[:500]
		}
		switch {
		case strings.Contains(head, "package main") || strings.Contains(head, "import ("):
			return "go"
		case strings.Contains(head, "fn main") || strings.Contains(head, "#![allow"):
			return "rust"
		case strings.Contains(head, "def ") || strings.Contains(head, "import "):
			return "python"
		case strings.Contains(head, "public class") || strings.Contains(head, "public static void main"):
			return "java"
		case strings.Contains(head, "#include") && strings.Contains(head, "namespace"):
			return "cpp"
		case strings.Contains(head, "#include"):
			return "c"
		}
	}

	// Default to C for binary-analysis contexts.
	return "c"
}

// LanguageName maps a language identifier to its display name for prompts.
func LanguageName(lang string) string {
	names := map[string]string{
		"c":      "C",
		"cpp":    "C++",
		"python": "Python",
		"rust":   "Rust",
		"go":     "Go",
		"java":   "Java",
	}
	if n, ok := names[lang]; ok {
		return n
	}
	return "C/C++"
}

// IsBinaryFile reports whether the file at path looks like a compiled
// binary, by checking the first KiB for NUL bytes.
func IsBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return false
	}
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
