package report

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
)

func renderTable(data *Data) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Analyzed %d file(s), %d served from cache.\n", data.FilesAnalyzed, data.CacheHits)
	if data.Cancelled {
		buf.WriteString("Analysis was cancelled; results below are partial.\n")
	}
	buf.WriteString("\n")

	if len(data.Opportunities) == 0 {
		buf.WriteString("No refactoring opportunities found.\n")
	} else {
		table := tablewriter.NewWriter(&buf)
		table.SetHeader([]string{"Type", "Location", "Impact", "Description"})
		table.SetBorder(false)
		table.SetCenterSeparator("")
		table.SetColumnAlignment([]int{
			tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
		})

		for _, opp := range data.Opportunities {
			table.Append([]string{
				string(opp.Opportunity.Type),
				location(opp.Opportunity),
				fmt.Sprintf("%.0f", opp.Score.Total),
				opp.Opportunity.Description,
			})
		}
		table.SetFooter([]string{"", "", "", fmt.Sprintf("%d opportunities", len(data.Opportunities))})
		table.Render()
	}

	if data.Result != nil {
		fmt.Fprintf(&buf, "\nApplied %d, skipped %d, failed %d.\n",
			len(data.Result.Applied), len(data.Result.Skipped), len(data.Result.Failed))
		if data.Result.RolledBack {
			buf.WriteString("The batch failed its test gate and was rolled back; no changes were kept.\n")
		}
	}

	if data.Usage != nil {
		fmt.Fprintf(&buf, "\nModel calls: %d | Tokens: %d in / %d out | Cost: $%.4f\n",
			data.Usage.ModelCalls, data.Usage.InputTokens, data.Usage.OutputTokens, data.Usage.Cost)
	}

	return buf.String()
}
