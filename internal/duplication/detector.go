// Package duplication finds exact duplicate code blocks and near-duplicate
// files across a set of source files using token-based analysis.
package duplication

import (
	"crypto/sha256"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/mendtool/mend/internal/types"
)

// Config controls window sizing and similarity thresholds.
type Config struct {
	// MinLines is the smallest block length considered for duplication (default: 5)
	MinLines int

	// MaxLines caps the sliding window length (default: 50)
	MaxLines int

	// MinContent is the character count a window must exceed after braces,
	// parens, semicolons, and whitespace are stripped (default: 20)
	MinContent int

	// SimilarityThreshold is the Jaccard score at which two files are
	// reported as near-duplicates (default: 0.8)
	SimilarityThreshold float64

	// IncludeImports keeps import/require-style lines in the window
	// stream. By default they are dropped: matching import blocks are
	// not duplication worth extracting.
	IncludeImports bool
}

// DefaultConfig returns the detector defaults.
func DefaultConfig() Config {
	return Config{
		MinLines:            5,
		MaxLines:            50,
		MinContent:          20,
		SimilarityThreshold: 0.8,
	}
}

// Detector identifies duplicate code blocks and near-duplicate files.
// It is a pure function over its input set: no file system access.
//
// The sliding window enumerates every block length in [MinLines, MaxLines],
// so nested sub-blocks of a larger duplicate are reported as separate
// entries. Downstream scoring weights duplicate density, which depends on
// that behavior; do not collapse to maximal blocks without revisiting it.
type Detector struct {
	config Config
}

// New creates a detector, filling zero config fields with defaults.
func New(config Config) *Detector {
	def := DefaultConfig()
	if config.MinLines <= 0 {
		config.MinLines = def.MinLines
	}
	if config.MaxLines <= 0 {
		config.MaxLines = def.MaxLines
	}
	if config.MinContent <= 0 {
		config.MinContent = def.MinContent
	}
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = def.SimilarityThreshold
	}
	return &Detector{config: config}
}

// Location is one place a duplicate block appears. Lines are 1-indexed
// positions in the original file, not offsets into the significant-line list.
type Location struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// Block is a duplicated run of significant lines with every location it
// appears at. Two or more locations by construction.
type Block struct {
	Hash      string     `json:"hash"`
	Lines     []string   `json:"lines"`
	Locations []Location `json:"locations"`
}

// SimilarPair is a whole-file pair whose normalized token sets overlap at or
// above the similarity threshold.
type SimilarPair struct {
	FileA      string  `json:"file_a"`
	FileB      string  `json:"file_b"`
	Similarity float64 `json:"similarity"`
}

// PairSummary accumulates duplicated lines shared between two files, keyed
// by the sorted path pair. FileA == FileB when a block repeats within one file.
type PairSummary struct {
	FileA           string `json:"file_a"`
	FileB           string `json:"file_b"`
	Blocks          int    `json:"blocks"`
	DuplicatedLines int    `json:"duplicated_lines"`
}

// FileStat is the per-file duplication rollup. DuplicatedLines is capped at
// the file's own line count since overlapping windows overcount.
type FileStat struct {
	TotalLines      int `json:"total_lines"`
	DuplicatedLines int `json:"duplicated_lines"`
	Percentage      int `json:"percentage"`
}

// Summary is the top-level duplication rollup for one detection run.
type Summary struct {
	TotalFiles           int `json:"total_files"`
	FilesWithDuplication int `json:"files_with_duplication"`
	DuplicateBlocks      int `json:"duplicate_blocks"`
}

// Report is the full result of one detection run.
type Report struct {
	Duplicates []Block             `json:"duplicates"`
	Similar    []SimilarPair       `json:"similar"`
	Pairs      []PairSummary       `json:"pairs"`
	FileStats  map[string]FileStat `json:"file_stats"`
	Summary    Summary             `json:"summary"`
}

// sigLine is a significant source line tagged with its original line number
type sigLine struct {
	Text   string
	Number int
}

// codeFile is a prepared input file
type codeFile struct {
	Path       string
	Sig        []sigLine
	TotalLines int
	Tokens     map[string]struct{}
}

// Detect runs exact and near-duplicate detection over the given files.
func (d *Detector) Detect(files []types.SourceFile) *Report {
	prepared := make([]codeFile, 0, len(files))
	for _, f := range files {
		prepared = append(prepared, d.prepare(f))
	}

	duplicates := d.findDuplicateBlocks(prepared)
	similar := d.findSimilarFiles(prepared)
	pairs := buildPairSummaries(duplicates)
	fileStats := buildFileStats(prepared, duplicates)

	filesWithDup := 0
	for _, stat := range fileStats {
		if stat.DuplicatedLines > 0 {
			filesWithDup++
		}
	}

	return &Report{
		Duplicates: duplicates,
		Similar:    similar,
		Pairs:      pairs,
		FileStats:  fileStats,
		Summary: Summary{
			TotalFiles:           len(prepared),
			FilesWithDuplication: filesWithDup,
			DuplicateBlocks:      len(duplicates),
		},
	}
}

// prepare extracts significant lines and the normalized token set for one file
func (d *Detector) prepare(f types.SourceFile) codeFile {
	rawLines := strings.Split(f.Content, "\n")

	var sig []sigLine
	for i, line := range rawLines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !d.config.IncludeImports && isImportLine(trimmed) {
			continue
		}
		sig = append(sig, sigLine{Text: trimmed, Number: i + 1})
	}

	return codeFile{
		Path:       f.Path,
		Sig:        sig,
		TotalLines: len(rawLines),
		Tokens:     tokenSet(Normalize(f.Content)),
	}
}

// isImportLine matches import/require-style lines across the languages we scan
func isImportLine(trimmed string) bool {
	if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "import(") || trimmed == "import (" {
		return true
	}
	if strings.HasPrefix(trimmed, "from ") && strings.Contains(trimmed, " import ") {
		return true
	}
	if strings.HasPrefix(trimmed, "require(") || strings.HasPrefix(trimmed, "require ") {
		return true
	}
	if strings.HasPrefix(trimmed, "const ") && strings.Contains(trimmed, "require(") {
		return true
	}
	return false
}

// findDuplicateBlocks hashes every window of significant lines with length in
// [MinLines, MaxLines] and keeps the hashes seen at 2+ locations.
func (d *Detector) findDuplicateBlocks(files []codeFile) []Block {
	blockMap := make(map[string]*Block)

	for _, file := range files {
		maxLen := d.config.MaxLines
		if maxLen > len(file.Sig) {
			maxLen = len(file.Sig)
		}

		for size := d.config.MinLines; size <= maxLen; size++ {
			for i := 0; i+size <= len(file.Sig); i++ {
				window := file.Sig[i : i+size]
				if !d.significant(window) {
					continue
				}

				hash := hashWindow(window)
				loc := Location{
					File:      file.Path,
					StartLine: window[0].Number,
					EndLine:   window[size-1].Number,
				}

				if existing, ok := blockMap[hash]; ok {
					existing.Locations = append(existing.Locations, loc)
				} else {
					lines := make([]string, size)
					for k, sl := range window {
						lines[k] = sl.Text
					}
					blockMap[hash] = &Block{
						Hash:      hash,
						Lines:     lines,
						Locations: []Location{loc},
					}
				}
			}
		}
	}

	// Keep only real duplicates (2+ locations)
	var duplicates []Block
	for _, block := range blockMap {
		if len(block.Locations) >= 2 {
			sort.Slice(block.Locations, func(i, j int) bool {
				if block.Locations[i].File != block.Locations[j].File {
					return block.Locations[i].File < block.Locations[j].File
				}
				return block.Locations[i].StartLine < block.Locations[j].StartLine
			})
			duplicates = append(duplicates, *block)
		}
	}

	// Most duplicated first, hash as tiebreak for stable output
	sort.Slice(duplicates, func(i, j int) bool {
		if len(duplicates[i].Locations) != len(duplicates[j].Locations) {
			return len(duplicates[i].Locations) > len(duplicates[j].Locations)
		}
		return duplicates[i].Hash < duplicates[j].Hash
	})

	return duplicates
}

// significant reports whether a window still exceeds MinContent characters
// once braces, parens, semicolons, and whitespace are stripped. Windows that
// fail this are structural noise (closing braces, parameter lists).
func (d *Detector) significant(window []sigLine) bool {
	count := 0
	for _, sl := range window {
		for _, r := range sl.Text {
			switch {
			case r == '{' || r == '}' || r == '(' || r == ')' || r == ';':
				continue
			case unicode.IsSpace(r):
				continue
			}
			count++
			if count > d.config.MinContent {
				return true
			}
		}
	}
	return count > d.config.MinContent
}

// hashWindow hashes the joined window text
func hashWindow(window []sigLine) string {
	var b strings.Builder
	for i, sl := range window {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(sl.Text)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum[:8])
}

// findSimilarFiles compares every file pair's normalized token sets
func (d *Detector) findSimilarFiles(files []codeFile) []SimilarPair {
	var similar []SimilarPair

	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			score := jaccard(files[i].Tokens, files[j].Tokens)
			if score >= d.config.SimilarityThreshold {
				similar = append(similar, SimilarPair{
					FileA:      files[i].Path,
					FileB:      files[j].Path,
					Similarity: score,
				})
			}
		}
	}

	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Similarity != similar[j].Similarity {
			return similar[i].Similarity > similar[j].Similarity
		}
		if similar[i].FileA != similar[j].FileA {
			return similar[i].FileA < similar[j].FileA
		}
		return similar[i].FileB < similar[j].FileB
	})

	return similar
}

// Similarity returns the Jaccard similarity of two contents' normalized
// token sets: |A∩B| / |A∪B|. Symmetric, and 1.0 when non-empty contents
// normalize identically.
func Similarity(a, b string) float64 {
	return jaccard(tokenSet(Normalize(a)), tokenSet(Normalize(b)))
}

func jaccard(setA, setB map[string]struct{}) float64 {
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

var (
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe   = regexp.MustCompile(`//[^\n]*`)
	stringLiteralRe = regexp.MustCompile("\"(?:[^\"\\\\\\n]|\\\\.)*\"|'(?:[^'\\\\\\n]|\\\\.)*'|`[^`]*`")
	numberLiteralRe = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Normalize produces the similarity-comparison form of a file: comments
// stripped, string and numeric literals replaced with placeholder tokens,
// whitespace collapsed. Two files that differ only in naming still share
// structure tokens; two files that differ in literals compare as equal.
func Normalize(content string) string {
	out := blockCommentRe.ReplaceAllString(content, " ")
	out = lineCommentRe.ReplaceAllString(out, " ")
	out = stringLiteralRe.ReplaceAllString(out, "STR")
	out = numberLiteralRe.ReplaceAllString(out, "NUM")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// tokenSet splits normalized content on whitespace into a set
func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		set[tok] = struct{}{}
	}
	return set
}

// buildPairSummaries rolls duplicate locations up into per-file-pair totals
func buildPairSummaries(duplicates []Block) []PairSummary {
	type pairKey struct {
		a, b string
	}
	totals := make(map[pairKey]*PairSummary)

	add := func(key pairKey, lines int) {
		if existing, ok := totals[key]; ok {
			existing.Blocks++
			existing.DuplicatedLines += lines
		} else {
			totals[key] = &PairSummary{
				FileA:           key.a,
				FileB:           key.b,
				Blocks:          1,
				DuplicatedLines: lines,
			}
		}
	}

	for _, block := range duplicates {
		lineCount := len(block.Lines)

		perFile := make(map[string]int)
		for _, loc := range block.Locations {
			perFile[loc.File]++
		}

		paths := make([]string, 0, len(perFile))
		for p := range perFile {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for i := 0; i < len(paths); i++ {
			if perFile[paths[i]] >= 2 {
				add(pairKey{paths[i], paths[i]}, lineCount)
			}
			for j := i + 1; j < len(paths); j++ {
				add(pairKey{paths[i], paths[j]}, lineCount)
			}
		}
	}

	pairs := make([]PairSummary, 0, len(totals))
	for _, p := range totals {
		pairs = append(pairs, *p)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].DuplicatedLines != pairs[j].DuplicatedLines {
			return pairs[i].DuplicatedLines > pairs[j].DuplicatedLines
		}
		if pairs[i].FileA != pairs[j].FileA {
			return pairs[i].FileA < pairs[j].FileA
		}
		return pairs[i].FileB < pairs[j].FileB
	})

	return pairs
}

// buildFileStats computes per-file duplicated line counts and percentages
func buildFileStats(files []codeFile, duplicates []Block) map[string]FileStat {
	dupLines := make(map[string]int)
	for _, block := range duplicates {
		for _, loc := range block.Locations {
			dupLines[loc.File] += len(block.Lines)
		}
	}

	stats := make(map[string]FileStat, len(files))
	for _, f := range files {
		duplicated := dupLines[f.Path]
		if duplicated > f.TotalLines {
			duplicated = f.TotalLines
		}

		pct := 0
		if f.TotalLines > 0 {
			pct = int(math.Round(float64(duplicated) / float64(f.TotalLines) * 100))
			if pct > 100 {
				pct = 100
			}
		}

		stats[f.Path] = FileStat{
			TotalLines:      f.TotalLines,
			DuplicatedLines: duplicated,
			Percentage:      pct,
		}
	}

	return stats
}
