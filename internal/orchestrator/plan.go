package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mendtool/mend/internal/executor"
	"github.com/mendtool/mend/internal/types"
)

// ErrNoPlan reports that an opportunity has no executable refactoring
// without model assistance. The candidate stays in the backlog.
var ErrNoPlan = errors.New("no executable plan for opportunity")

// Planner turns one scored opportunity into a refactoring the executor
// can apply. *ai.Analyzer satisfies it when model access is configured.
type Planner interface {
	ProposeRefactoring(ctx context.Context, opp types.ScoredOpportunity, file types.SourceFile) (*types.Refactoring, error)
}

// planItems plans each candidate in order. Planning failures never
// abort the run: the candidate is left in the backlog and the rest of
// the batch continues. The returned origins map executed refactorings
// back to the opportunities they came from.
func (o *Orchestrator) planItems(ctx context.Context, batch []types.ScoredOpportunity, byPath map[string]types.SourceFile) ([]executor.Item, map[string]types.Opportunity) {
	var items []executor.Item
	origins := make(map[string]types.Opportunity, len(batch))

	for _, s := range batch {
		file, ok := byPath[s.Opportunity.File]
		if !ok {
			fmt.Printf("Warning: %s not in this run's file set, skipping\n", s.Opportunity.File)
			continue
		}

		ref, err := o.planner.ProposeRefactoring(ctx, s, file)
		if err != nil {
			if errors.Is(err, ErrNoPlan) {
				fmt.Printf("No executable plan for %s; kept in backlog\n", s.Opportunity.Key())
			} else {
				fmt.Printf("Warning: planning failed for %s: %v (kept in backlog)\n", s.Opportunity.Key(), err)
			}
			continue
		}

		items = append(items, executor.Item{Refactoring: *ref, Score: s.Score.Total})
		origins[originKey(*ref)] = s.Opportunity
	}
	return items, origins
}

// originKey identifies a planned refactoring within one batch so
// results can be traced back to their opportunities.
func originKey(ref types.Refactoring) string {
	return ref.Target() + "|" + ref.Description
}

// HeuristicPlanner plans without model access: over-threshold ranges
// are extracted verbatim into sibling files and the test gate
// arbitrates whether the project tolerates it. Semantic findings have
// no mechanical translation and stay in the backlog.
type HeuristicPlanner struct{}

var quotedNameRe = regexp.MustCompile(`'([^']+)'`)

// ProposeRefactoring plans an extract for range-shaped opportunities.
func (p *HeuristicPlanner) ProposeRefactoring(_ context.Context, opp types.ScoredOpportunity, file types.SourceFile) (*types.Refactoring, error) {
	o := opp.Opportunity
	switch o.Type {
	case types.OpportunityComplexity, types.OpportunityLength, types.OpportunityDuplication:
	default:
		return nil, ErrNoPlan
	}
	if o.EndLine <= o.Line {
		return nil, ErrNoPlan
	}

	name := unitName(o)
	ref := &types.Refactoring{
		Type:        types.RefactoringExtract,
		Description: o.Description,
		Source:      o.File,
		Name:        name,
		StartLine:   o.Line,
		EndLine:     o.EndLine,
		NewFile:     extractTarget(file.Path, name),
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return ref, nil
}

// unitName names the extracted unit, preferring the function name the
// analyzer quoted in the description.
func unitName(o types.Opportunity) string {
	if m := quotedNameRe.FindStringSubmatch(o.Description); m != nil {
		return m[1]
	}
	if o.Type == types.OpportunityDuplication {
		return "sharedBlock"
	}
	return fmt.Sprintf("block%d", o.Line)
}

// extractTarget derives a sibling file for the extracted unit, keeping
// the source's extension. util.js with unit processOrder becomes
// util_processOrder.js.
func extractTarget(source, name string) string {
	dir := filepath.Dir(source)
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(filepath.Base(source), ext)
	target := fmt.Sprintf("%s_%s%s", stem, name, ext)
	if dir == "." {
		return target
	}
	return filepath.ToSlash(filepath.Join(dir, target))
}
