// Package analyzer approximates per-function metrics without a language
// parser. Line-anchored signatures locate function starts; brace depth (or
// indentation for Python) bounds the body; a branch-keyword count
// approximates cyclomatic complexity. The numbers drive scoring, not
// correctness, so a close estimate is enough.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/mendtool/mend/internal/types"
)

var (
	goFuncRe = regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s+)?(\w+)\s*\(`)
	jsFuncRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`)
	jsExprRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?function\b`)
	arrowRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=.*=>\s*\{\s*$`)
	pyDefRe  = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`)
	methodRe = regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|override|get|set)\s+)*([A-Za-z_$][\w$]*)\s*\(([^)'"]*)\)\s*(?::\s*[^{;]+)?\{\s*$`)

	branchRes = []*regexp.Regexp{
		regexp.MustCompile(`\bif\b`),
		regexp.MustCompile(`\belif\b`),
		regexp.MustCompile(`\bfor\b`),
		regexp.MustCompile(`\bwhile\b`),
		regexp.MustCompile(`\bcase\b`),
		regexp.MustCompile(`\bcatch\b`),
		regexp.MustCompile(`\bexcept\b`),
		regexp.MustCompile(`&&`),
		regexp.MustCompile(`\|\|`),
		regexp.MustCompile(` \? `),
	}
)

// reservedWords are control keywords whose statements look like method
// definitions to methodRe.
var reservedWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "func": true, "new": true,
	"else": true, "do": true, "try": true, "with": true,
}

// Analyzer extracts per-function metrics from source text.
type Analyzer struct{}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze returns function metrics for one source file. Lines are
// 1-indexed; nested functions are reported separately.
func (a *Analyzer) Analyze(file types.SourceFile) *types.FileAnalysis {
	lines := strings.Split(file.Content, "\n")
	python := strings.HasSuffix(file.Path, ".py")

	analysis := &types.FileAnalysis{}
	for i := 0; i < len(lines); i++ {
		name, ok := matchFunction(lines[i], python)
		if !ok {
			continue
		}

		var end int
		if python {
			end = indentExtent(lines, i)
		} else {
			end = braceExtent(lines, i)
		}

		body := strings.Join(lines[i:end+1], "\n")
		analysis.Functions = append(analysis.Functions, types.FunctionInfo{
			Name:       name,
			Line:       i + 1,
			Complexity: complexityOf(body),
			Lines:      end - i + 1,
		})
	}
	return analysis
}

// matchFunction reports whether a line opens a function and returns its
// name. Patterns are tried most-specific first.
func matchFunction(line string, python bool) (string, bool) {
	if python {
		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
		return "", false
	}

	for _, re := range []*regexp.Regexp{goFuncRe, jsFuncRe, jsExprRe, arrowRe} {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}

	if m := methodRe.FindStringSubmatch(line); m != nil {
		name, args := m[1], m[2]
		if reservedWords[name] || strings.Contains(args, "function") || strings.Contains(args, "=>") {
			return "", false
		}
		return name, true
	}
	return "", false
}

// braceExtent returns the index of the line that closes the brace block
// opened at or shortly after start. Signatures that never open a brace
// collapse to a single line.
func braceExtent(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
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
		if !opened && i-start > 2 {
			return start
		}
	}
	return len(lines) - 1
}

// indentExtent returns the index of the last line indented deeper than the
// def at start. Blank lines inside the body do not terminate it.
func indentExtent(lines []string, start int) int {
	base := indentOf(lines[start])
	end := start
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if indentOf(lines[i]) <= base {
			break
		}
		end = i
	}
	return end
}

func indentOf(line string) int {
	count := 0
	for _, r := range line {
		switch r {
		case ' ':
			count++
		case '\t':
			count += 4
		default:
			return count
		}
	}
	return count
}

// complexityOf approximates cyclomatic complexity: one plus every branch
// point found in the body text.
func complexityOf(body string) int {
	count := 1
	for _, re := range branchRes {
		count += len(re.FindAllStringIndex(body, -1))
	}
	return count
}
