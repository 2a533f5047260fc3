package mpdl

import "strings"

// Prune strips blank lines, full-line comments and trailing comments.
// Variable declarations keep any "#" in their value. Escaped "\#" sequences
// are left for the tokenizer, so pruning an already pruned slice is a no-op.
func Prune(lines []string) []string {
	pruned := make([]string, 0, len(lines))
	for _, l := range lines {
		if s, ok := pruneLine(l); ok {
			pruned = append(pruned, s)
		}
	}
	return pruned
}

func pruneLine(l string) (string, bool) {
	l = strings.TrimSpace(l)
	if l == "" || strings.HasPrefix(l, commentPrefix) {
		return "", false
	}
	if !strings.HasPrefix(l, variableSigil) {
		l = strings.TrimSpace(stripTrailingComment(l))
	}
	return l, l != ""
}

func stripTrailingComment(l string) string {
	escaped := false
	for i := 0; i < len(l); i++ {
		switch {
		case escaped:
			escaped = false
		case l[i] == escapeChar:
			escaped = true
		case l[i] == trailingComment:
			return l[:i]
		}
	}
	return l
}

// tokenize splits a line on whitespace, turning space placeholders back
// into spaces and "\#" into "#".
func tokenize(l string) []string {
	tokens := strings.Fields(l)
	for i, t := range tokens {
		t = strings.ReplaceAll(t, spacePlaceholder, " ")
		t = strings.ReplaceAll(t, string(escapeChar)+string(trailingComment), string(trailingComment))
		tokens[i] = t
	}
	return tokens
}

// line is a pruned line together with where it came from.
type line struct {
	text   string
	origin string
	num    int
	// imports lists the sources this line was imported through, outermost first.
	imports []string
}

// pruneSource prunes raw text loaded from origin into lines.
func pruneSource(text, origin string, imports []string) []line {
	raw := strings.Split(text, "\n")
	lines := make([]line, 0, len(raw))
	for i, l := range raw {
		s, ok := pruneLine(l)
		if !ok {
			continue
		}
		lines = append(lines, line{
			text:    s,
			origin:  origin,
			num:     i + 1,
			imports: imports,
		})
	}
	return lines
}

// lineBuffer is the mutable line stream with an explicit cursor. Splicing
// at the cursor never disturbs lines that were already consumed.
type lineBuffer struct {
	lines  []line
	cursor int
}

func newLineBuffer(lines []line) *lineBuffer {
	return &lineBuffer{lines: lines}
}

// current returns the line under the cursor.
func (b *lineBuffer) current() (line, bool) {
	if b.cursor >= len(b.lines) {
		return line{}, false
	}
	return b.lines[b.cursor], true
}

func (b *lineBuffer) advance() {
	b.cursor++
}

// remove drops the line under the cursor; the cursor then points at its successor.
func (b *lineBuffer) remove() {
	b.replace(nil)
}

// replace substitutes the line under the cursor with ls. The cursor points at
// the first spliced line so spliced material is scanned next.
func (b *lineBuffer) replace(ls []line) {
	tail := b.lines[b.cursor+1:]
	spliced := make([]line, 0, len(b.lines)-1+len(ls))
	spliced = append(spliced, b.lines[:b.cursor]...)
	spliced = append(spliced, ls...)
	spliced = append(spliced, tail...)
	b.lines = spliced
}

func (b *lineBuffer) rewind() {
	b.cursor = 0
}

func (b *lineBuffer) texts() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = l.text
	}
	return out
}
