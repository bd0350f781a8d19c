package duplication

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mendtool/mend/internal/types"
)

// maxListedLocations caps how many sibling locations an opportunity
// description names before switching to "and N more".
const maxListedLocations = 3

// Opportunities collapses the report's duplicate blocks into refactoring
// opportunities. The sliding window emits every duplicated sub-range, so
// blocks are reduced to maximal non-overlapping ranges per file: longest
// first, anchored at each block's first location. Output is ordered by
// file then line.
func (r *Report) Opportunities() []types.Opportunity {
	blocks := make([]Block, len(r.Duplicates))
	copy(blocks, r.Duplicates)
	sort.Slice(blocks, func(i, j int) bool {
		if len(blocks[i].Lines) != len(blocks[j].Lines) {
			return len(blocks[i].Lines) > len(blocks[j].Lines)
		}
		return blocks[i].Hash < blocks[j].Hash
	})

	claimed := make(map[string][][2]int)
	var opps []types.Opportunity
	for _, block := range blocks {
		anchor := block.Locations[0]
		if overlapsAny(claimed[anchor.File], anchor.StartLine, anchor.EndLine) {
			continue
		}
		claimed[anchor.File] = append(claimed[anchor.File], [2]int{anchor.StartLine, anchor.EndLine})

		opps = append(opps, types.Opportunity{
			Type:        types.OpportunityDuplication,
			File:        anchor.File,
			Line:        anchor.StartLine,
			EndLine:     anchor.EndLine,
			Description: describeBlock(block),
			Metrics: map[string]float64{
				"lines":       float64(len(block.Lines)),
				"occurrences": float64(len(block.Locations)),
			},
		})
	}

	sort.Slice(opps, func(i, j int) bool {
		if opps[i].File != opps[j].File {
			return opps[i].File < opps[j].File
		}
		return opps[i].Line < opps[j].Line
	})
	return opps
}

// describeBlock names the block's size and where else it appears.
func describeBlock(b Block) string {
	others := make([]string, 0, len(b.Locations)-1)
	for _, loc := range b.Locations[1:] {
		others = append(others, fmt.Sprintf("%s:%d", loc.File, loc.StartLine))
	}

	extra := 0
	if len(others) > maxListedLocations {
		extra = len(others) - maxListedLocations
		others = others[:maxListedLocations]
	}

	desc := fmt.Sprintf("%d duplicated lines, also at %s", len(b.Lines), strings.Join(others, ", "))
	if extra > 0 {
		desc += fmt.Sprintf(" and %d more", extra)
	}
	return desc
}

// overlapsAny reports whether [start, end] intersects any claimed range.
func overlapsAny(ranges [][2]int, start, end int) bool {
	for _, r := range ranges {
		if start <= r[1] && end >= r[0] {
			return true
		}
	}
	return false
}
