// Package report renders the outcome of an analysis or execution run as
// markdown, json, or a terminal table.
package report

import (
	"fmt"
	"time"

	"github.com/mendtool/mend/internal/types"
	"github.com/mendtool/mend/internal/usage"
)

// Format selects a renderer.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatTable    Format = "table"
)

// IsValid checks if the format is one of the known variants
func (f Format) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatJSON, FormatTable:
		return true
	}
	return false
}

// Data is everything one run produced. Result is nil in analyze-only
// mode; Usage is nil when no tracker was wired in.
type Data struct {
	Mode          types.Mode                `json:"mode"`
	GeneratedAt   time.Time                 `json:"generated_at"`
	FilesAnalyzed int                       `json:"files_analyzed"`
	CacheHits     int                       `json:"cache_hits"`
	Cancelled     bool                      `json:"cancelled,omitempty"`
	Opportunities []types.ScoredOpportunity `json:"opportunities"`
	Result        *types.ExecutionResult    `json:"result,omitempty"`
	Usage         *usage.State              `json:"usage,omitempty"`
}

// Render renders the data in the requested format.
func Render(data *Data, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(data), nil
	case FormatJSON:
		return renderJSON(data)
	case FormatTable:
		return renderTable(data), nil
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}
}

// location renders file:line or file:start-end.
func location(o types.Opportunity) string {
	if o.EndLine > o.Line {
		return fmt.Sprintf("%s:%d-%d", o.File, o.Line, o.EndLine)
	}
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// groupByType buckets opportunities preserving their sorted order
// within each bucket.
func groupByType(opportunities []types.ScoredOpportunity) map[types.OpportunityType][]types.ScoredOpportunity {
	groups := make(map[types.OpportunityType][]types.ScoredOpportunity)
	for _, opp := range opportunities {
		groups[opp.Opportunity.Type] = append(groups[opp.Opportunity.Type], opp)
	}
	return groups
}

// typeOrder fixes the section order in rendered output.
var typeOrder = []types.OpportunityType{
	types.OpportunityDuplication,
	types.OpportunityComplexity,
	types.OpportunityLength,
	types.OpportunitySemantic,
}
