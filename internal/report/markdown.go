package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mendtool/mend/internal/types"
)

// sectionTitles maps opportunity types to their markdown headings.
var sectionTitles = map[types.OpportunityType]string{
	types.OpportunityDuplication: "Duplicated Code",
	types.OpportunityComplexity:  "Complex Functions",
	types.OpportunityLength:      "Oversized Functions",
	types.OpportunitySemantic:    "Semantic Issues",
}

func renderMarkdown(data *Data) string {
	var b strings.Builder

	b.WriteString("# Refactoring Report\n\n")
	fmt.Fprintf(&b, "Generated: %s | Mode: %s\n\n", data.GeneratedAt.Format("2006-01-02 15:04"), data.Mode)

	fmt.Fprintf(&b, "Analyzed %d file(s), %d served from cache.\n", data.FilesAnalyzed, data.CacheHits)
	if data.Cancelled {
		b.WriteString("Analysis was cancelled; results below are partial.\n")
	}
	b.WriteString("\n")

	if len(data.Opportunities) == 0 {
		b.WriteString("No refactoring opportunities found.\n")
	} else {
		groups := groupByType(data.Opportunities)
		for _, oppType := range typeOrder {
			opps := groups[oppType]
			if len(opps) == 0 {
				continue
			}
			fmt.Fprintf(&b, "## %s (%d)\n\n", sectionTitles[oppType], len(opps))
			for _, opp := range opps {
				fmt.Fprintf(&b, "- %s - %s (impact %.0f)\n",
					location(opp.Opportunity), opp.Opportunity.Description, opp.Score.Total)
			}
			b.WriteString("\n")
		}
	}

	if data.Result != nil {
		b.WriteString("## Execution\n\n")
		fmt.Fprintf(&b, "Applied %d, skipped %d, failed %d.\n",
			len(data.Result.Applied), len(data.Result.Skipped), len(data.Result.Failed))
		if data.Result.RolledBack {
			b.WriteString("The batch failed its test gate and was rolled back; no changes were kept.\n")
		}
		b.WriteString("\n")
		for _, item := range data.Result.Applied {
			fmt.Fprintf(&b, "- applied: %s (%s)\n", item.Refactoring.Description, item.Refactoring.Target())
		}
		for _, item := range data.Result.Failed {
			fmt.Fprintf(&b, "- failed: %s - %s\n", item.Refactoring.Description, item.Error)
		}
		if len(data.Result.Applied)+len(data.Result.Failed) > 0 {
			b.WriteString("\n")
		}
	}

	if data.Usage != nil {
		b.WriteString("## Usage\n\n")
		fmt.Fprintf(&b, "Model calls: %d | Tokens: %d in / %d out | Cost: $%.4f\n",
			data.Usage.ModelCalls, data.Usage.InputTokens, data.Usage.OutputTokens, data.Usage.Cost)
	}

	return b.String()
}

func renderJSON(data *Data) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(out) + "\n", nil
}
