package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MukeshR-prog/distributer/internal/types"
	"github.com/rs/zerolog"
)

// MemoryStore keeps everything in process memory. It is the default
// backend for development and tests. All reads hand out deep copies so
// callers can never mutate stored state behind the lock.
type MemoryStore struct {
	mu            sync.RWMutex
	agents        map[string]*types.Agent
	distributions map[string]*types.Distribution
	logger        zerolog.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		agents:        make(map[string]*types.Agent),
		distributions: make(map[string]*types.Distribution),
		logger:        logger,
	}
}

func (s *MemoryStore) CreateAgent(agent types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.ID]; exists {
		return fmt.Errorf("agent %s already exists", agent.ID)
	}
	for _, existing := range s.agents {
		if strings.EqualFold(existing.Email, agent.Email) {
			return types.ErrAgentExists
		}
	}

	stored := agent
	s.agents[stored.ID] = &stored

	s.logger.Debug().Str("agent_id", stored.ID).Str("email", stored.Email).Msg("agent created")
	return nil
}

func (s *MemoryStore) GetAgent(id string) (*types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[id]
	if !ok {
		return nil, types.ErrAgentNotFound
	}
	out := *agent
	return &out, nil
}

func (s *MemoryStore) ListAgents(includeInactive bool) ([]types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]types.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if !includeInactive && !a.IsActive {
			continue
		}
		agents = append(agents, *a)
	}

	sortAgents(agents)
	return agents, nil
}

func (s *MemoryStore) UpdateAgent(agent types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.agents[agent.ID]
	if !ok {
		return types.ErrAgentNotFound
	}
	for id, other := range s.agents {
		if id != agent.ID && strings.EqualFold(other.Email, agent.Email) {
			return types.ErrAgentExists
		}
	}

	existing.Name = agent.Name
	existing.Email = agent.Email
	existing.Mobile = agent.Mobile
	existing.IsActive = agent.IsActive
	return nil
}

func (s *MemoryStore) DeleteAgent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[id]; !ok {
		return types.ErrAgentNotFound
	}
	delete(s.agents, id)

	s.logger.Debug().Str("agent_id", id).Msg("agent deleted")
	return nil
}

// CreateDistribution stores the distribution and increments each
// participating agent's assigned total in the same critical section.
func (s *MemoryStore) CreateDistribution(dist *types.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.distributions[dist.ID]; exists {
		return fmt.Errorf("distribution %s already exists", dist.ID)
	}

	stored := cloneDistribution(dist)
	if stored.Version == 0 {
		stored.Version = 1
	}
	s.distributions[stored.ID] = stored

	for _, g := range stored.Agents {
		if agent, ok := s.agents[g.AgentID]; ok {
			agent.AssignedTasks += len(g.Records)
		}
	}

	s.logger.Debug().
		Str("distribution_id", stored.ID).
		Int("records", stored.TotalRecords).
		Int("agents", len(stored.Agents)).
		Msg("distribution created")

	return nil
}

func (s *MemoryStore) GetDistribution(id string) (*types.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dist, ok := s.distributions[id]
	if !ok {
		return nil, types.ErrDistributionNotFound
	}
	return cloneDistribution(dist), nil
}

func (s *MemoryStore) ListDistributions(opts ListOptions) ([]types.Distribution, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]types.Distribution, 0, len(s.distributions))
	for _, d := range s.distributions {
		all = append(all, *cloneDistribution(d))
	}

	items, total := applyListOptions(all, opts)
	return items, total, nil
}

func (s *MemoryStore) ListDistributionsByAgent(agentID string) ([]types.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []types.Distribution
	for _, d := range s.distributions {
		for _, g := range d.Agents {
			if g.AgentID == agentID {
				result = append(result, *cloneDistribution(d))
				break
			}
		}
	}

	result, _ = applyListOptions(result, ListOptions{})
	return result, nil
}

// UpdateRecordStatus mutates one record owned by the calling agent and
// applies the matching counter change in the same critical section, so
// the record and the agent totals can never drift apart.
func (s *MemoryStore) UpdateRecordStatus(distID, agentID, recordID string, status types.RecordStatus, notes *string) (*types.Record, error) {
	if _, err := types.ParseRecordStatus(string(status)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dist, ok := s.distributions[distID]
	if !ok {
		return nil, types.ErrDistributionNotFound
	}

	var group *types.AgentGroup
	for i := range dist.Agents {
		if dist.Agents[i].AgentID == agentID {
			group = &dist.Agents[i]
			break
		}
	}
	if group == nil {
		return nil, types.ErrNotAssigned
	}

	var rec *types.Record
	for i := range group.Records {
		if group.Records[i].ID == recordID {
			rec = &group.Records[i]
			break
		}
	}
	if rec == nil {
		return nil, types.ErrRecordNotFound
	}

	prev := rec.Status
	rec.Status = status
	if notes != nil {
		rec.Notes = *notes
	}

	switch {
	case prev != types.RecordCompleted && status == types.RecordCompleted:
		now := time.Now().UTC()
		rec.CompletedAt = &now
		if agent, ok := s.agents[agentID]; ok {
			agent.CompletedTasks++
		}
	case prev == types.RecordCompleted && status != types.RecordCompleted:
		rec.CompletedAt = nil
		if agent, ok := s.agents[agentID]; ok {
			agent.CompletedTasks--
		}
	}

	dist.Version++

	s.logger.Debug().
		Str("distribution_id", distID).
		Str("agent_id", agentID).
		Str("record_id", recordID).
		Str("from", string(prev)).
		Str("to", string(status)).
		Msg("record status updated")

	out := *rec
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		out.CompletedAt = &t
	}
	return &out, nil
}

// SaveRedistribution replaces the distribution document if the caller's
// version still matches, and shifts assigned totals between the agents
// that gained or lost records.
func (s *MemoryStore) SaveRedistribution(dist *types.Distribution, moves []types.RecordMove) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.distributions[dist.ID]
	if !ok {
		return types.ErrDistributionNotFound
	}
	if stored.Version != dist.Version {
		return types.ErrConcurrentModification
	}

	next := cloneDistribution(dist)
	next.Version = dist.Version + 1
	s.distributions[next.ID] = next

	for _, m := range moves {
		if m.FromAgentID == m.ToAgentID {
			continue
		}
		if from, ok := s.agents[m.FromAgentID]; ok {
			from.AssignedTasks--
		}
		if to, ok := s.agents[m.ToAgentID]; ok {
			to.AssignedTasks++
		}
	}

	s.logger.Debug().
		Str("distribution_id", dist.ID).
		Int("moves", len(moves)).
		Int64("version", next.Version).
		Msg("redistribution saved")

	return nil
}

// DeleteDistribution removes the distribution and takes back every total
// it contributed to the agents' counters.
func (s *MemoryStore) DeleteDistribution(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dist, ok := s.distributions[id]
	if !ok {
		return types.ErrDistributionNotFound
	}

	for _, g := range dist.Agents {
		agent, ok := s.agents[g.AgentID]
		if !ok {
			continue
		}
		agent.AssignedTasks -= g.AssignedCount
		for _, rec := range g.Records {
			if rec.Status == types.RecordCompleted {
				agent.CompletedTasks--
			}
		}
	}

	delete(s.distributions, id)

	s.logger.Debug().Str("distribution_id", id).Msg("distribution deleted")
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneDistribution(d *types.Distribution) *types.Distribution {
	c := *d
	c.Agents = make([]types.AgentGroup, len(d.Agents))
	for i, g := range d.Agents {
		cg := g
		cg.Records = make([]types.Record, len(g.Records))
		copy(cg.Records, g.Records)
		for ri := range cg.Records {
			if cg.Records[ri].CompletedAt != nil {
				t := *cg.Records[ri].CompletedAt
				cg.Records[ri].CompletedAt = &t
			}
		}
		c.Agents[i] = cg
	}
	return &c
}
