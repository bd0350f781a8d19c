// Package backlog maintains the durable, human-editable refactor backlog:
// a markdown document whose line grammar doubles as the storage format, so
// editors and the tool share one file.
package backlog

import (
	"math"

	"github.com/mendtool/mend/internal/types"
)

// Tier is an impact-derived priority bucket.
type Tier string

const (
	// TierHigh holds candidates with impact 80 and above
	TierHigh Tier = "high"
	// TierMedium holds candidates with impact 50-79
	TierMedium Tier = "medium"
	// TierLow holds candidates with impact below 50
	TierLow Tier = "low"
)

// TierFor classifies an impact score. Boundary-inclusive at 80 and 50.
func TierFor(impact int) Tier {
	if impact >= 80 {
		return TierHigh
	}
	if impact >= 50 {
		return TierMedium
	}
	return TierLow
}

// Entry is one backlog candidate. EndLine equals StartLine for single-line
// candidates; the file:StartLine pair is the entry's identity.
type Entry struct {
	File        string
	StartLine   int
	EndLine     int
	Description string
	Impact      int
	Completed   bool
}

// Key returns the file:startLine identity used for deduplication
func (e Entry) Key() string {
	return formatRef(e.File, e.StartLine, e.StartLine)
}

// FromScored converts a scored opportunity into a backlog entry. Impact is
// the rounded score total; a missing end line collapses to the start line.
func FromScored(s types.ScoredOpportunity) Entry {
	end := s.Opportunity.EndLine
	if end < s.Opportunity.Line {
		end = s.Opportunity.Line
	}
	return Entry{
		File:        s.Opportunity.File,
		StartLine:   s.Opportunity.Line,
		EndLine:     end,
		Description: s.Opportunity.Description,
		Impact:      int(math.Round(s.Score.Total)),
	}
}

// Document is the parsed backlog: the three tier lists plus the raw Notes
// block. The file:startLine key is unique across all tiers combined.
type Document struct {
	High   []Entry
	Medium []Entry
	Low    []Entry
	Notes  string
}

// Len returns the total entry count across all tiers.
func (d *Document) Len() int {
	return len(d.High) + len(d.Medium) + len(d.Low)
}

// TierEntries returns the entries of one tier.
func (d *Document) TierEntries(tier Tier) []Entry {
	switch tier {
	case TierHigh:
		return d.High
	case TierMedium:
		return d.Medium
	case TierLow:
		return d.Low
	}
	return nil
}

// tierSlice returns the addressable list backing a tier
func (d *Document) tierSlice(tier Tier) *[]Entry {
	switch tier {
	case TierMedium:
		return &d.Medium
	case TierLow:
		return &d.Low
	}
	return &d.High
}

// Upsert merges one entry by its file:startLine key. A match in any tier
// takes the new description, impact, and end line while keeping its
// completion state, moving tiers when the impact crosses a boundary. No
// match appends to the tier the impact selects.
func (d *Document) Upsert(e Entry) {
	target := TierFor(e.Impact)

	for _, tier := range []Tier{TierHigh, TierMedium, TierLow} {
		entries := d.tierSlice(tier)
		for i := range *entries {
			existing := (*entries)[i]
			if existing.File != e.File || existing.StartLine != e.StartLine {
				continue
			}

			e.Completed = existing.Completed
			if tier == target {
				(*entries)[i] = e
			} else {
				*entries = append((*entries)[:i], (*entries)[i+1:]...)
				updated := d.tierSlice(target)
				*updated = append(*updated, e)
			}
			return
		}
	}

	entries := d.tierSlice(target)
	*entries = append(*entries, e)
}

// MarkComplete flips the checkbox for the entry matching file:line. Nothing
// else changes. Returns false when no entry matches.
func (d *Document) MarkComplete(file string, line int) bool {
	for _, tier := range []Tier{TierHigh, TierMedium, TierLow} {
		entries := d.tierSlice(tier)
		for i := range *entries {
			if (*entries)[i].File == file && (*entries)[i].StartLine == line {
				(*entries)[i].Completed = true
				return true
			}
		}
	}
	return false
}
