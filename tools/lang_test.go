package tools

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectLanguageByExtension(t *testing.T) {
	cases := map[string]string{
		"vuln.c":    "c",
		"vuln.cpp":  "cpp",
		"vuln.cc":   "cpp",
		"vuln.py":   "python",
		"vuln.rs":   "rust",
		"vuln.go":   "go",
		"Vuln.java": "java",
	}
	for path, want := range cases {
		if got := DetectLanguage(path, ""); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestDetectLanguageBySniffing(t *testing.T) {
	cases := []struct {
		contents, want string
	}{
		{"package main\n\nfunc main() {}", "go"},
		{"fn main() { println!(\"hi\"); }", "rust"},
		{"def handler(event):\n    pass", "python"},
		{"#include <iostream>\nnamespace app {}", "cpp"},
		{"#include <stdio.h>\nint main() {}", "c"},
	}
	for _, tc := range cases {
		if got := DetectLanguage("target", tc.contents); got != tc.want {
			t.Errorf("sniff %q = %q, want %q", tc.contents[:20], got, tc.want)
		}
	}
}

func TestIsBinaryFile(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "a.c")
	if err := os.WriteFile(text, []byte("int main() { return 0; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if IsBinaryFile(text) {
		t.Error("plain C source flagged as binary")
	}

	bin := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(bin, []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsBinaryFile(bin) {
		t.Error("ELF header not flagged as binary")
	}

	if IsBinaryFile(filepath.Join(dir, "missing")) {
		t.Error("missing file flagged as binary")
	}
}
