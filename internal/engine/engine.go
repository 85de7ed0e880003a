package engine

import (
	"math"
	"strings"
	"time"

	"github.com/MukeshR-prog/distributer/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AssignmentStrategy partitions records across agents. Implementations
// must hand out every record exactly once and return one group per agent,
// including agents that end up with zero records.
type AssignmentStrategy interface {
	Name() types.Strategy
	Assign(records []types.Record, agents []types.Agent) []types.AgentGroup
}

// Plan is the output of distributing one upload across the agent pool
type Plan struct {
	Strategy types.Strategy     `json:"strategy"`
	Agents   []types.AgentGroup `json:"agents"`
	Summary  types.Summary      `json:"summary"`
}

// Engine computes assignment plans. It is stateless and safe for
// concurrent use.
type Engine struct {
	logger zerolog.Logger
}

// New creates a distribution engine
func New(logger zerolog.Logger) *Engine {
	return &Engine{
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// Distribute validates the upload rows, partitions them across the active
// agents using the named strategy, and returns the full assignment plan.
// It never returns a partial plan: any precondition failure aborts the
// whole call with no assignments made.
func (e *Engine) Distribute(inputs []types.RecordInput, agents []types.Agent, strategyName string) (*Plan, error) {
	if len(inputs) == 0 {
		return nil, types.ErrEmptyInput
	}
	if len(agents) == 0 {
		return nil, types.ErrNoAgents
	}

	active := make([]types.Agent, 0, len(agents))
	for _, a := range agents {
		if a.IsActive {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return nil, types.ErrNoActiveAgents
	}

	records, err := normalizeRecords(inputs, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	strategy := e.strategyFor(strategyName)

	start := time.Now()
	groups := strategy.Assign(records, active)
	elapsed := time.Since(start)

	summary := buildSummary(groups, elapsed)

	e.logger.Info().
		Str("strategy", string(strategy.Name())).
		Int("records", len(records)).
		Int("agents", len(active)).
		Int64("duration_ms", summary.DistributionTime).
		Float64("fairness", summary.FairnessScore).
		Msg("records distributed")

	return &Plan{
		Strategy: strategy.Name(),
		Agents:   groups,
		Summary:  summary,
	}, nil
}

// strategyFor resolves a strategy name. Unknown names fall back to equal
// distribution, which is the documented default rather than an error.
func (e *Engine) strategyFor(name string) AssignmentStrategy {
	s, ok := types.ParseStrategy(name)
	if !ok {
		e.logger.Warn().Str("strategy", name).Msg("unknown strategy, falling back to equal")
	}

	switch s {
	case types.StrategyWeighted:
		return &WeightedStrategy{}
	case types.StrategyPriority:
		return &PriorityStrategy{}
	default:
		return &EqualStrategy{}
	}
}

// normalizeRecords converts upload rows into records ready for
// assignment. Every row is validated before any record is created.
func normalizeRecords(inputs []types.RecordInput, now time.Time) ([]types.Record, error) {
	records := make([]types.Record, 0, len(inputs))
	for i, in := range inputs {
		if err := types.ValidateRecordInput(in, i+1); err != nil {
			return nil, err
		}
		records = append(records, types.Record{
			ID:         uuid.New().String(),
			FirstName:  strings.TrimSpace(in.FirstName),
			Phone:      in.Phone,
			Notes:      in.Notes,
			Status:     types.RecordPending,
			AssignedAt: now,
		})
	}
	return records, nil
}

// newGroup creates an empty assignment group for an agent
func newGroup(a types.Agent) types.AgentGroup {
	return types.AgentGroup{
		AgentID:    a.ID,
		AgentName:  a.Name,
		AgentEmail: a.Email,
		Records:    []types.Record{},
	}
}

// buildSummary computes aggregate stats over the per-agent counts
func buildSummary(groups []types.AgentGroup, elapsed time.Duration) types.Summary {
	total := 0
	min, max := len(groups[0].Records), len(groups[0].Records)
	for _, g := range groups {
		n := len(g.Records)
		total += n
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}

	mean := float64(total) / float64(len(groups))

	variance := 0.0
	for _, g := range groups {
		d := float64(len(g.Records)) - mean
		variance += d * d
	}
	variance /= float64(len(groups))

	fairness := 1.0
	if mean > 0 {
		fairness = math.Max(0, 1-math.Sqrt(variance)/mean)
	}

	return types.Summary{
		TotalAgentsAssigned:    len(groups),
		AverageRecordsPerAgent: round2(mean),
		DistributionTime:       elapsed.Milliseconds(),
		MinRecordsAssigned:     min,
		MaxRecordsAssigned:     max,
		DistributionVariance:   max - min,
		FairnessScore:          round2(fairness),
	}
}

// round2 rounds to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
