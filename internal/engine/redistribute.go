package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/MukeshR-prog/distributer/internal/types"
)

// Redistribute reassigns failed records across the distribution's own
// groups, least-loaded first. recordIDs narrows the selection; empty
// means every failed record. Each moved record is reset to pending with
// a fresh assignedAt and tagged redistributed. The distribution is
// mutated in place; callers pass the copy they intend to save.
func (e *Engine) Redistribute(dist *types.Distribution, recordIDs []string) ([]types.RecordMove, error) {
	if len(recordIDs) > 0 {
		failed := make(map[string]bool)
		for _, g := range dist.Agents {
			for _, rec := range g.Records {
				if rec.Status == types.RecordFailed {
					failed[rec.ID] = true
				}
			}
		}
		for _, id := range recordIDs {
			if !failed[id] {
				return nil, fmt.Errorf("%w: %s", types.ErrRecordNotFound, id)
			}
		}
	}

	var filter map[string]bool
	if len(recordIDs) > 0 {
		filter = make(map[string]bool, len(recordIDs))
		for _, id := range recordIDs {
			filter[id] = true
		}
	}

	// Pull the selected failed records out of their groups.
	type pulled struct {
		record types.Record
		from   string
	}
	var selected []pulled
	for gi := range dist.Agents {
		g := &dist.Agents[gi]
		kept := g.Records[:0]
		for _, rec := range g.Records {
			if rec.Status == types.RecordFailed && (filter == nil || filter[rec.ID]) {
				selected = append(selected, pulled{record: rec, from: g.AgentID})
				continue
			}
			kept = append(kept, rec)
		}
		g.Records = kept
	}

	if len(selected) == 0 {
		return nil, types.ErrEmptyInput
	}

	// Live load counts open work only. Groups are sorted once up front;
	// the dealing order does not re-sort as records land.
	loads := make([]int, len(dist.Agents))
	for i, g := range dist.Agents {
		for _, rec := range g.Records {
			if rec.Status == types.RecordPending || rec.Status == types.RecordInProgress {
				loads[i]++
			}
		}
	}
	order := make([]int, len(dist.Agents))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return loads[order[i]] < loads[order[j]]
	})

	now := time.Now().UTC()
	moves := make([]types.RecordMove, 0, len(selected))
	for i, p := range selected {
		target := &dist.Agents[order[i%len(order)]]

		rec := p.record
		rec.Status = types.RecordPending
		rec.AssignedAt = now
		rec.CompletedAt = nil
		rec.Redistributed = true
		target.Records = append(target.Records, rec)

		moves = append(moves, types.RecordMove{
			RecordID:    rec.ID,
			FromAgentID: p.from,
			ToAgentID:   target.AgentID,
		})
	}

	for i := range dist.Agents {
		dist.Agents[i].AssignedCount = len(dist.Agents[i].Records)
	}

	// Group counts changed shape; refresh the count-derived summary
	// fields but keep the original distribution timing.
	elapsed := dist.Summary.DistributionTime
	dist.Summary = buildSummary(dist.Agents, 0)
	dist.Summary.DistributionTime = elapsed

	e.logger.Info().
		Str("distribution_id", dist.ID).
		Int("moved", len(moves)).
		Msg("failed records redistributed")

	return moves, nil
}
