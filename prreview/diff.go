package prreview

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DiffLine is one line of a hunk. NewNumber is the line's position in the
// new file, 0 for removed lines.
type DiffLine struct {
	Kind      byte // ' ', '+', '-'
	Content   string
	NewNumber int
}

// Hunk is one @@ block of a file diff.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Header             string
	Lines              []DiffLine
}

// FileDiff is the change set for a single file.
type FileDiff struct {
	Path    string
	OldPath string
	Hunks   []Hunk
}

// AddedLines returns the lines this diff introduces, with new-file line
// numbers.
func (f *FileDiff) AddedLines() []DiffLine {
	var out []DiffLine
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.Kind == '+' {
				out = append(out, l)
			}
		}
	}
	return out
}

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// ParseDiff parses a unified diff into per-file changes. Unrecognized
// lines between files (mode changes, index lines) are skipped.
func ParseDiff(diff string) ([]FileDiff, error) {
	var files []FileDiff
	var cur *FileDiff
	var hunk *Hunk
	newLine := 0

	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
			hunk = nil
		}
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			files = append(files, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flushFile()
			cur = &FileDiff{}
		case strings.HasPrefix(line, "--- "):
			if cur != nil {
				cur.OldPath = strings.TrimPrefix(strings.TrimPrefix(line, "--- "), "a/")
			}
		case strings.HasPrefix(line, "+++ "):
			if cur != nil {
				cur.Path = strings.TrimPrefix(strings.TrimPrefix(line, "+++ "), "b/")
			}
		case strings.HasPrefix(line, "@@"):
			m := hunkHeader.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("malformed hunk header: %q", line)
			}
			flushHunk()
			h := Hunk{Header: strings.TrimSpace(m[5])}
			h.OldStart, _ = strconv.Atoi(m[1])
			h.OldLines = countOrOne(m[2])
			h.NewStart, _ = strconv.Atoi(m[3])
			h.NewLines = countOrOne(m[4])
			hunk = &h
			newLine = h.NewStart
		case hunk != nil && len(line) > 0 && (line[0] == ' ' || line[0] == '+' || line[0] == '-'):
			dl := DiffLine{Kind: line[0], Content: line[1:]}
			if line[0] != '-' {
				dl.NewNumber = newLine
				newLine++
			}
			hunk.Lines = append(hunk.Lines, dl)
		case hunk != nil && line == `\ No newline at end of file`:
			// marker line, not content
		}
	}
	flushFile()
	return files, nil
}

func countOrOne(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}
