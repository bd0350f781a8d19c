package backlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	titleLine    = "# Refactoring Candidates"
	headerHigh   = "## High Priority (Impact 80+)"
	headerMedium = "## Medium Priority (Impact 50-79)"
	headerLow    = "## Low Priority (Impact <50)"
	headerNotes  = "## Notes"
)

// entryRe matches the backlog line grammar:
//
//	- [ ] <file>:<start>[-<end>] - <description> (Impact: <N>)
//
// The checkbox holds a space for pending entries and an x for completed
// ones. The line range is omitted for single-line candidates.
var entryRe = regexp.MustCompile(`^- \[([ x])\] (.+?):(\d+)(?:-(\d+))? - (.*) \(Impact: (\d+)\)$`)

// ParseEntry parses one backlog line. Lines that do not match the grammar
// (headers, blanks, prose) return ok=false and are left alone by callers.
func ParseEntry(line string) (Entry, bool) {
	m := entryRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Entry{}, false
	}

	start, err := strconv.Atoi(m[3])
	if err != nil {
		return Entry{}, false
	}
	end := start
	if m[4] != "" {
		end, err = strconv.Atoi(m[4])
		if err != nil || end < start {
			return Entry{}, false
		}
	}
	impact, err := strconv.Atoi(m[6])
	if err != nil {
		return Entry{}, false
	}

	return Entry{
		File:        m[2],
		StartLine:   start,
		EndLine:     end,
		Description: m[5],
		Impact:      impact,
		Completed:   m[1] == "x",
	}, true
}

// FormatEntry renders an entry in the backlog line grammar. A single-line
// entry renders as file:N, never file:N-N.
func FormatEntry(e Entry) string {
	check := " "
	if e.Completed {
		check = "x"
	}
	return fmt.Sprintf("- [%s] %s - %s (Impact: %d)", check, formatRef(e.File, e.StartLine, e.EndLine), e.Description, e.Impact)
}

// formatRef renders a file:line reference, with the range suffix only when
// the end line extends past the start
func formatRef(file string, start, end int) string {
	if end > start {
		return fmt.Sprintf("%s:%d-%d", file, start, end)
	}
	return fmt.Sprintf("%s:%d", file, start)
}

// Parse reads a backlog document. Entries are collected under whichever tier
// header precedes them; everything after the Notes header is kept verbatim.
// Prose outside the Notes section is dropped on the next Format.
func Parse(content string) *Document {
	doc := &Document{}
	var current *[]Entry

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case headerHigh:
			current = &doc.High
			continue
		case headerMedium:
			current = &doc.Medium
			continue
		case headerLow:
			current = &doc.Low
			continue
		case headerNotes:
			doc.Notes = strings.Join(lines[i+1:], "\n")
			return doc
		}
		if current == nil {
			continue
		}
		if entry, ok := ParseEntry(line); ok {
			*current = append(*current, entry)
		}
	}
	return doc
}

// Format renders the full document: title, the three tier sections in
// priority order, and the untouched Notes block when present.
func Format(doc *Document) string {
	var b strings.Builder
	b.WriteString(titleLine + "\n\n")
	writeSection(&b, headerHigh, doc.High)
	writeSection(&b, headerMedium, doc.Medium)
	writeSection(&b, headerLow, doc.Low)
	if doc.Notes != "" {
		b.WriteString(headerNotes + "\n")
		b.WriteString(doc.Notes)
	}
	return b.String()
}

func writeSection(b *strings.Builder, header string, entries []Entry) {
	b.WriteString(header + "\n\n")
	for _, e := range entries {
		b.WriteString(FormatEntry(e) + "\n")
	}
	if len(entries) > 0 {
		b.WriteString("\n")
	}
}
