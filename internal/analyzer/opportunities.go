package analyzer

import (
	"fmt"

	"github.com/mendtool/mend/internal/types"
)

// Thresholds bound acceptable function branching and size.
type Thresholds struct {
	MaxComplexity int
	MaxLength     int
}

// DefaultThresholds returns the stock limits: complexity over 10 or more
// than 50 lines flags a function.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxComplexity: 10, MaxLength: 50}
}

// Opportunities flags the functions in analysis whose metrics exceed the
// thresholds. A function can emit both a complexity and a length
// opportunity.
func Opportunities(path string, analysis *types.FileAnalysis, th Thresholds) []types.Opportunity {
	var opps []types.Opportunity
	for _, fn := range analysis.Functions {
		endLine := fn.Line + fn.Lines - 1

		if fn.Complexity > th.MaxComplexity {
			opps = append(opps, types.Opportunity{
				Type:        types.OpportunityComplexity,
				File:        path,
				Line:        fn.Line,
				EndLine:     endLine,
				Description: fmt.Sprintf("Function '%s' has cyclomatic complexity %d (threshold %d)", fn.Name, fn.Complexity, th.MaxComplexity),
				Metrics:     map[string]float64{"complexity": float64(fn.Complexity)},
			})
		}

		if fn.Lines > th.MaxLength {
			opps = append(opps, types.Opportunity{
				Type:        types.OpportunityLength,
				File:        path,
				Line:        fn.Line,
				EndLine:     endLine,
				Description: fmt.Sprintf("Function '%s' is %d lines long (threshold %d)", fn.Name, fn.Lines, th.MaxLength),
				Metrics:     map[string]float64{"length": float64(fn.Lines)},
			})
		}
	}
	return opps
}
