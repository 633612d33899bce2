package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Preview renders the line changes between before and after. Trailing
// spaces are shown as '·' and trailing tabs as '→' so removed whitespace
// is visible. Returns "" when the texts are equal.
func Preview(name, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", name, name)

	oldLine, newLine := 1, 1
	inHunk := false
	for _, d := range diffs {
		text := splitDiffLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldLine += len(text)
			newLine += len(text)
			inHunk = false
		case diffmatchpatch.DiffDelete:
			if !inHunk {
				fmt.Fprintf(&sb, "@@ -%d +%d @@\n", oldLine, newLine)
				inHunk = true
			}
			for _, l := range text {
				sb.WriteString("-" + showTrailing(l) + "\n")
			}
			oldLine += len(text)
		case diffmatchpatch.DiffInsert:
			if !inHunk {
				fmt.Fprintf(&sb, "@@ -%d +%d @@\n", oldLine, newLine)
				inHunk = true
			}
			for _, l := range text {
				sb.WriteString("+" + showTrailing(l) + "\n")
			}
			newLine += len(text)
		}
	}
	return sb.String()
}

// splitDiffLines splits a line-mode diff chunk into lines without their
// terminators.
func splitDiffLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r\n")
	}
	return lines
}

// showTrailing makes the trailing whitespace run of line visible.
func showTrailing(line string) string {
	body := strings.TrimRight(line, " \t")
	if body == line {
		return line
	}
	tail := line[len(body):]
	tail = strings.ReplaceAll(tail, " ", "·")
	tail = strings.ReplaceAll(tail, "\t", "→")
	return body + tail
}

// WritePreview writes patch to w, colored for a terminal when color is set.
func WritePreview(w io.Writer, patch string, color bool) error {
	if !color || patch == "" {
		_, err := io.WriteString(w, patch)
		return err
	}

	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iter, err := lexer.Tokenise(nil, patch)
	if err != nil {
		_, werr := io.WriteString(w, patch)
		return werr
	}
	return formatters.TTY8.Format(w, styles.Get("monokai"), iter)
}
