package engine

import (
	"math"
	"sort"

	"github.com/MukeshR-prog/distributer/internal/types"
)

const (
	// neutralPerformance is the score for agents with no history, so new
	// agents are neither starved nor flooded
	neutralPerformance = 0.7

	// volumeSaturation is the assigned-task count at which the volume
	// component of the performance score maxes out
	volumeSaturation = 100

	// workloadLimit is the open-record count at which an agent's share
	// is throttled to the floor
	workloadLimit = 50

	// minWeight keeps every active agent in the rotation
	minWeight = 0.1
)

// WeightedStrategy sizes each agent's share by completion history and
// current open workload. Higher performers with free capacity get more
// records; a busy or struggling agent is throttled but never excluded.
type WeightedStrategy struct{}

// Name returns the strategy identifier
func (s *WeightedStrategy) Name() types.Strategy { return types.StrategyWeighted }

// Assign computes per-agent weights, sorts agents by weight, and hands
// each a share proportional to its fraction of the total weight. The
// rounding residue goes entirely to the top-weighted agent.
func (s *WeightedStrategy) Assign(records []types.Record, agents []types.Agent) []types.AgentGroup {
	type weighted struct {
		agent  types.Agent
		weight float64
	}

	ranked := make([]weighted, 0, len(agents))
	totalWeight := 0.0
	for _, a := range agents {
		w := math.Max(minWeight, performanceScore(a)*workloadFactor(a))
		ranked = append(ranked, weighted{agent: a, weight: w})
		totalWeight += w
	}

	// Stable keeps input order for agents with identical weights
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].weight > ranked[j].weight
	})

	groups := make([]types.AgentGroup, 0, len(ranked))
	next := 0
	for _, r := range ranked {
		share := int(math.Round(float64(len(records)) * r.weight / totalWeight))
		if remaining := len(records) - next; share > remaining {
			share = remaining
		}

		g := newGroup(r.agent)
		g.Records = append(g.Records, records[next:next+share]...)
		g.AssignedCount = len(g.Records)
		groups = append(groups, g)
		next += share
	}

	// Rounding can leave a tail of unassigned records. They all go to the
	// highest-weighted agent, so its final count can exceed its computed
	// share.
	if next < len(records) {
		groups[0].Records = append(groups[0].Records, records[next:]...)
		groups[0].AssignedCount = len(groups[0].Records)
	}

	return groups
}

// performanceScore rates an agent on completion rate and task volume.
// Agents with no assignment history get a neutral default.
func performanceScore(a types.Agent) float64 {
	if a.AssignedTasks == 0 {
		return neutralPerformance
	}
	completionRate := float64(a.CompletedTasks) / float64(a.AssignedTasks)
	volume := math.Min(1, float64(a.AssignedTasks)/volumeSaturation)
	return 0.7*completionRate + 0.3*volume
}

// workloadFactor scales an agent's share down as open records pile up
func workloadFactor(a types.Agent) float64 {
	pending := a.AssignedTasks - a.CompletedTasks
	if pending <= 0 {
		return 1.0
	}
	if pending >= workloadLimit {
		return minWeight
	}
	return math.Max(minWeight, 1-float64(pending)/workloadLimit)
}
