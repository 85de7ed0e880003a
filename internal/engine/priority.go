package engine

import (
	"sort"

	"github.com/MukeshR-prog/distributer/internal/types"
)

// PriorityStrategy treats note length as a complexity proxy: records with
// longer notes are assumed harder and are handed out first, round-robin
// across agents ranked by performance. Every agent gets roughly the same
// count; only the hard records are front-loaded onto top performers.
type PriorityStrategy struct{}

// Name returns the strategy identifier
func (s *PriorityStrategy) Name() types.Strategy { return types.StrategyPriority }

// Assign sorts records by descending note length and agents by descending
// performance, then deals records one at a time starting from the best
// performer. Ties keep input order.
func (s *PriorityStrategy) Assign(records []types.Record, agents []types.Agent) []types.AgentGroup {
	sorted := make([]types.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Notes) > len(sorted[j].Notes)
	})

	type ranked struct {
		agent types.Agent
		score float64
	}
	byScore := make([]ranked, 0, len(agents))
	for _, a := range agents {
		byScore = append(byScore, ranked{agent: a, score: performanceScore(a)})
	}
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].score > byScore[j].score
	})

	groups := make([]types.AgentGroup, 0, len(byScore))
	for _, r := range byScore {
		groups = append(groups, newGroup(r.agent))
	}

	for i, rec := range sorted {
		g := &groups[i%len(groups)]
		g.Records = append(g.Records, rec)
	}
	for i := range groups {
		groups[i].AssignedCount = len(groups[i].Records)
	}

	return groups
}
