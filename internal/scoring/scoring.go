// Package scoring ranks refactor opportunities by expected payoff. Totals
// live on a 0-100 scale so they double as backlog impact values.
package scoring

import (
	"sort"

	"github.com/mendtool/mend/internal/types"
)

// Scorer produces a score for one opportunity.
type Scorer interface {
	Score(opp types.Opportunity) types.Score
}

// typeBase reflects how mechanical each fix is: duplication extraction is
// the safest payoff, semantic suggestions need the most human judgment.
var typeBase = map[types.OpportunityType]float64{
	types.OpportunityDuplication: 60,
	types.OpportunityComplexity:  55,
	types.OpportunitySemantic:    50,
	types.OpportunityLength:      45,
}

// DefaultScorer combines a per-type base with a severity bonus for how far
// the opportunity's metrics exceed their thresholds.
type DefaultScorer struct{}

// NewScorer creates the default scorer.
func NewScorer() *DefaultScorer {
	return &DefaultScorer{}
}

// Score rates one opportunity. The total is clamped to [0, 100].
func (s *DefaultScorer) Score(opp types.Opportunity) types.Score {
	base, ok := typeBase[opp.Type]
	if !ok {
		base = 40
	}
	severity := severityOf(opp)

	total := base + severity
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	return types.Score{
		Total: total,
		Dimensions: map[string]float64{
			"base":     base,
			"severity": severity,
		},
	}
}

// severityOf converts the opportunity's metrics into a bonus. Opportunities
// without metrics score their base alone.
func severityOf(opp types.Opportunity) float64 {
	m := opp.Metrics
	switch opp.Type {
	case types.OpportunityComplexity:
		return clamp((m["complexity"]-10)*4, 0, 40)
	case types.OpportunityLength:
		return clamp((m["length"]-50)/2, 0, 40)
	case types.OpportunityDuplication:
		occurrences := clamp((m["occurrences"]-1)*10, 0, 30)
		size := clamp(m["lines"]/5, 0, 10)
		return occurrences + size
	case types.OpportunitySemantic:
		return 25
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ScoreAndSort scores every opportunity and returns them ordered by total,
// highest first. Ties fall back to file then line so output is stable.
func ScoreAndSort(scorer Scorer, opps []types.Opportunity) []types.ScoredOpportunity {
	scored := make([]types.ScoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		scored = append(scored, types.ScoredOpportunity{
			Opportunity: opp,
			Score:       scorer.Score(opp),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score.Total != scored[j].Score.Total {
			return scored[i].Score.Total > scored[j].Score.Total
		}
		if scored[i].Opportunity.File != scored[j].Opportunity.File {
			return scored[i].Opportunity.File < scored[j].Opportunity.File
		}
		return scored[i].Opportunity.Line < scored[j].Opportunity.Line
	})
	return scored
}
