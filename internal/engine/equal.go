package engine

import (
	"github.com/MukeshR-prog/distributer/internal/types"
)

// EqualStrategy hands each agent a contiguous slice of the input. With r
// leftover records after even division, the first r agents in input order
// receive one extra, so per-agent counts never differ by more than one.
type EqualStrategy struct{}

// Name returns the strategy identifier
func (s *EqualStrategy) Name() types.Strategy { return types.StrategyEqual }

// Assign walks the record list front to back, cutting one slice per agent
func (s *EqualStrategy) Assign(records []types.Record, agents []types.Agent) []types.AgentGroup {
	per := len(records) / len(agents)
	extra := len(records) % len(agents)

	groups := make([]types.AgentGroup, 0, len(agents))
	next := 0
	for i, a := range agents {
		size := per
		if i < extra {
			size++
		}

		g := newGroup(a)
		g.Records = append(g.Records, records[next:next+size]...)
		g.AssignedCount = len(g.Records)
		groups = append(groups, g)
		next += size
	}

	return groups
}
