package engine

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/MukeshR-prog/distributer/internal/types"
	"github.com/rs/zerolog"
)

func freshAgent(id, name string) types.Agent {
	return types.Agent{ID: id, Name: name, Email: name + "@example.com", IsActive: true}
}

func makeInputs(n int) []types.RecordInput {
	inputs := make([]types.RecordInput, 0, n)
	for i := 0; i < n; i++ {
		inputs = append(inputs, types.RecordInput{
			FirstName: fmt.Sprintf("Contact%d", i+1),
			Phone:     fmt.Sprintf("49157512345%02d", i),
			Notes:     "call back",
		})
	}
	return inputs
}

func makeRecords(n int) []types.Record {
	records := make([]types.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, types.Record{
			ID:        fmt.Sprintf("rec-%d", i+1),
			FirstName: fmt.Sprintf("Contact%d", i+1),
			Phone:     "4915751234567",
			Status:    types.RecordPending,
		})
	}
	return records
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// collectIDs flattens all record IDs across groups
func collectIDs(groups []types.AgentGroup) map[string]int {
	seen := make(map[string]int)
	for _, g := range groups {
		for _, r := range g.Records {
			seen[r.ID]++
		}
	}
	return seen
}

func TestDistributePreconditions(t *testing.T) {
	e := New(zerolog.Nop())
	agents := []types.Agent{freshAgent("a1", "Anna")}

	if _, err := e.Distribute(nil, agents, "equal"); err != types.ErrEmptyInput {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	if _, err := e.Distribute(makeInputs(3), nil, "equal"); err != types.ErrNoAgents {
		t.Errorf("expected ErrNoAgents, got %v", err)
	}

	inactive := []types.Agent{{ID: "a1", Name: "Anna", IsActive: false}}
	if _, err := e.Distribute(makeInputs(3), inactive, "equal"); err != types.ErrNoActiveAgents {
		t.Errorf("expected ErrNoActiveAgents, got %v", err)
	}
}

func TestDistributeRejectsInvalidRow(t *testing.T) {
	e := New(zerolog.Nop())
	agents := []types.Agent{freshAgent("a1", "Anna")}

	inputs := makeInputs(3)
	inputs[1].Phone = "123" // too short

	_, err := e.Distribute(inputs, agents, "equal")
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("error should name the offending row, got: %v", err)
	}
}

func TestDistributeEqualEndToEnd(t *testing.T) {
	e := New(zerolog.Nop())
	agents := []types.Agent{
		freshAgent("a1", "Anna"),
		freshAgent("a2", "Ben"),
		freshAgent("a3", "Clara"),
	}

	plan, err := e.Distribute(makeInputs(10), agents, "equal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Strategy != types.StrategyEqual {
		t.Errorf("expected equal strategy, got %s", plan.Strategy)
	}
	if len(plan.Agents) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(plan.Agents))
	}

	// 10 records over 3 agents: first agent gets the extra one
	wantCounts := []int{4, 3, 3}
	for i, g := range plan.Agents {
		if len(g.Records) != wantCounts[i] {
			t.Errorf("group %d: expected %d records, got %d", i, wantCounts[i], len(g.Records))
		}
		if g.AssignedCount != len(g.Records) {
			t.Errorf("group %d: assignedCount %d != len(records) %d", i, g.AssignedCount, len(g.Records))
		}
	}

	// Contiguous slices in input order
	if plan.Agents[0].Records[0].FirstName != "Contact1" {
		t.Errorf("expected Contact1 first, got %s", plan.Agents[0].Records[0].FirstName)
	}
	if plan.Agents[1].Records[0].FirstName != "Contact5" {
		t.Errorf("expected Contact5 to open group 2, got %s", plan.Agents[1].Records[0].FirstName)
	}

	for _, g := range plan.Agents {
		for _, r := range g.Records {
			if r.ID == "" {
				t.Error("record should have an id")
			}
			if r.Status != types.RecordPending {
				t.Errorf("expected pending status, got %s", r.Status)
			}
			if r.AssignedAt.IsZero() {
				t.Error("record should have assignedAt set")
			}
		}
	}

	s := plan.Summary
	if s.TotalAgentsAssigned != 3 {
		t.Errorf("expected 3 agents assigned, got %d", s.TotalAgentsAssigned)
	}
	if !approx(s.AverageRecordsPerAgent, 3.33) {
		t.Errorf("expected average 3.33, got %v", s.AverageRecordsPerAgent)
	}
	if s.MinRecordsAssigned != 3 || s.MaxRecordsAssigned != 4 {
		t.Errorf("expected min 3 max 4, got min %d max %d", s.MinRecordsAssigned, s.MaxRecordsAssigned)
	}
	if s.DistributionVariance != 1 {
		t.Errorf("expected variance 1, got %d", s.DistributionVariance)
	}
	if !approx(s.FairnessScore, 0.86) {
		t.Errorf("expected fairness 0.86, got %v", s.FairnessScore)
	}
}

func TestDistributeUnknownStrategyFallsBackToEqual(t *testing.T) {
	e := New(zerolog.Nop())
	agents := []types.Agent{freshAgent("a1", "Anna"), freshAgent("a2", "Ben")}

	plan, err := e.Distribute(makeInputs(4), agents, "bananas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Strategy != types.StrategyEqual {
		t.Errorf("expected fallback to equal, got %s", plan.Strategy)
	}
	if len(plan.Agents[0].Records) != 2 || len(plan.Agents[1].Records) != 2 {
		t.Errorf("expected 2/2 split, got %d/%d", len(plan.Agents[0].Records), len(plan.Agents[1].Records))
	}
}

func TestDistributeSkipsInactiveAgents(t *testing.T) {
	e := New(zerolog.Nop())
	agents := []types.Agent{
		freshAgent("a1", "Anna"),
		{ID: "a2", Name: "Ben", IsActive: false},
		freshAgent("a3", "Clara"),
	}

	plan, err := e.Distribute(makeInputs(6), agents, "equal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Agents) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(plan.Agents))
	}
	for _, g := range plan.Agents {
		if g.AgentID == "a2" {
			t.Error("inactive agent should not receive records")
		}
	}
}

func TestDistributePartitionInvariant(t *testing.T) {
	e := New(zerolog.Nop())
	agents := []types.Agent{
		{ID: "a1", Name: "Anna", Email: "anna@example.com", IsActive: true, AssignedTasks: 100, CompletedTasks: 90},
		{ID: "a2", Name: "Ben", Email: "ben@example.com", IsActive: true, AssignedTasks: 40, CompletedTasks: 10},
		{ID: "a3", Name: "Clara", Email: "clara@example.com", IsActive: true},
		{ID: "a4", Name: "Dan", Email: "dan@example.com", IsActive: true, AssignedTasks: 200, CompletedTasks: 20},
	}

	inputs := makeInputs(23)
	for i := range inputs {
		inputs[i].Notes = strings.Repeat("x", (i*7)%40)
	}

	for _, strategy := range []string{"equal", "weighted", "priority"} {
		t.Run(strategy, func(t *testing.T) {
			plan, err := e.Distribute(inputs, agents, strategy)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(plan.Agents) != len(agents) {
				t.Errorf("expected one group per agent, got %d", len(plan.Agents))
			}

			seen := collectIDs(plan.Agents)
			if len(seen) != len(inputs) {
				t.Errorf("expected %d distinct records, got %d", len(inputs), len(seen))
			}
			for id, n := range seen {
				if n != 1 {
					t.Errorf("record %s assigned %d times", id, n)
				}
			}

			sum := 0
			for _, g := range plan.Agents {
				if g.AssignedCount != len(g.Records) {
					t.Errorf("group %s: assignedCount %d != len(records) %d", g.AgentID, g.AssignedCount, len(g.Records))
				}
				sum += g.AssignedCount
			}
			if sum != len(inputs) {
				t.Errorf("expected assignedCount sum %d, got %d", len(inputs), sum)
			}
		})
	}
}

func TestDistributeSingleAgentFairness(t *testing.T) {
	e := New(zerolog.Nop())

	plan, err := e.Distribute(makeInputs(7), []types.Agent{freshAgent("a1", "Anna")}, "weighted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !approx(plan.Summary.FairnessScore, 1.0) {
		t.Errorf("single agent should score fairness 1.0, got %v", plan.Summary.FairnessScore)
	}
	if plan.Summary.DistributionVariance != 0 {
		t.Errorf("expected variance 0, got %d", plan.Summary.DistributionVariance)
	}
	if len(plan.Agents[0].Records) != 7 {
		t.Errorf("expected all 7 records on the single agent, got %d", len(plan.Agents[0].Records))
	}
}

func TestEqualStrategyMoreAgentsThanRecords(t *testing.T) {
	s := &EqualStrategy{}
	agents := []types.Agent{
		freshAgent("a1", "Anna"),
		freshAgent("a2", "Ben"),
		freshAgent("a3", "Clara"),
		freshAgent("a4", "Dan"),
	}

	groups := s.Assign(makeRecords(2), agents)
	wantCounts := []int{1, 1, 0, 0}
	for i, g := range groups {
		if len(g.Records) != wantCounts[i] {
			t.Errorf("group %d: expected %d records, got %d", i, wantCounts[i], len(g.Records))
		}
		if g.Records == nil {
			t.Errorf("group %d: records should be an empty slice, not nil", i)
		}
	}
}

func TestPerformanceScore(t *testing.T) {
	tests := []struct {
		name      string
		assigned  int
		completed int
		want      float64
	}{
		{"cold start", 0, 0, 0.7},
		{"perfect veteran", 100, 100, 1.0},
		{"half rate at half volume", 50, 25, 0.5},
		{"all assigned none completed", 200, 0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := performanceScore(types.Agent{AssignedTasks: tt.assigned, CompletedTasks: tt.completed})
			if !approx(got, tt.want) {
				t.Errorf("performanceScore(%d, %d) = %v, want %v", tt.assigned, tt.completed, got, tt.want)
			}
		})
	}
}

func TestWorkloadFactor(t *testing.T) {
	tests := []struct {
		name      string
		assigned  int
		completed int
		want      float64
	}{
		{"no open work", 5, 5, 1.0},
		{"over-completed", 10, 12, 1.0},
		{"half capacity", 30, 5, 0.5},
		{"at the limit", 60, 10, 0.1},
		{"just below the limit", 50, 5, 0.1},
		{"light load", 10, 0, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workloadFactor(types.Agent{AssignedTasks: tt.assigned, CompletedTasks: tt.completed})
			if !approx(got, tt.want) {
				t.Errorf("workloadFactor(%d, %d) = %v, want %v", tt.assigned, tt.completed, got, tt.want)
			}
		})
	}
}

func TestWeightedStrategyFavorsStrongAgents(t *testing.T) {
	s := &WeightedStrategy{}
	agents := []types.Agent{
		// weight ~0.744: strong history, light load
		{ID: "strong", Name: "Strong", IsActive: true, AssignedTasks: 100, CompletedTasks: 90},
		// weight floored at 0.1: buried in open work
		{ID: "buried", Name: "Buried", IsActive: true, AssignedTasks: 100, CompletedTasks: 50},
		// weight 0.7: fresh agent at the neutral default
		{ID: "fresh", Name: "Fresh", IsActive: true},
	}

	groups := s.Assign(makeRecords(20), agents)

	if groups[0].AgentID != "strong" || groups[1].AgentID != "fresh" || groups[2].AgentID != "buried" {
		t.Fatalf("unexpected group order: %s, %s, %s", groups[0].AgentID, groups[1].AgentID, groups[2].AgentID)
	}

	wantCounts := []int{10, 9, 1}
	for i, g := range groups {
		if len(g.Records) != wantCounts[i] {
			t.Errorf("group %s: expected %d records, got %d", g.AgentID, wantCounts[i], len(g.Records))
		}
	}
}

func TestWeightedStrategyResidueGoesToTopAgent(t *testing.T) {
	s := &WeightedStrategy{}
	agents := []types.Agent{
		freshAgent("a1", "Anna"),
		freshAgent("a2", "Ben"),
		freshAgent("a3", "Clara"),
	}

	// Equal weights round to 3 each, leaving one record over; the whole
	// residue lands on the first agent.
	groups := s.Assign(makeRecords(10), agents)
	wantCounts := []int{4, 3, 3}
	for i, g := range groups {
		if len(g.Records) != wantCounts[i] {
			t.Errorf("group %d: expected %d records, got %d", i, wantCounts[i], len(g.Records))
		}
	}
}

func TestWeightedStrategyNeverOverassigns(t *testing.T) {
	s := &WeightedStrategy{}
	agents := []types.Agent{freshAgent("a1", "Anna"), freshAgent("a2", "Ben")}

	// Rounding half-up would hand each agent 3 of 5; the second share is
	// capped by what remains.
	groups := s.Assign(makeRecords(5), agents)
	if len(groups[0].Records)+len(groups[1].Records) != 5 {
		t.Errorf("expected 5 records total, got %d", len(groups[0].Records)+len(groups[1].Records))
	}
	if len(groups[0].Records) != 3 || len(groups[1].Records) != 2 {
		t.Errorf("expected 3/2 split, got %d/%d", len(groups[0].Records), len(groups[1].Records))
	}
}

func TestPriorityStrategyFrontLoadsComplexRecords(t *testing.T) {
	s := &PriorityStrategy{}
	agents := []types.Agent{
		{ID: "mid", Name: "Mid", IsActive: true},                                          // 0.7
		{ID: "top", Name: "Top", IsActive: true, AssignedTasks: 100, CompletedTasks: 100}, // ~1.0
		{ID: "low", Name: "Low", IsActive: true, AssignedTasks: 10, CompletedTasks: 0},    // 0.03
	}

	records := makeRecords(5)
	records[0].Notes = strings.Repeat("a", 5)
	records[1].Notes = strings.Repeat("a", 20)
	records[2].Notes = strings.Repeat("a", 1)
	records[3].Notes = strings.Repeat("a", 10)
	records[4].Notes = ""

	groups := s.Assign(records, agents)

	if groups[0].AgentID != "top" || groups[1].AgentID != "mid" || groups[2].AgentID != "low" {
		t.Fatalf("unexpected agent order: %s, %s, %s", groups[0].AgentID, groups[1].AgentID, groups[2].AgentID)
	}

	// Complexity order rec-2(20), rec-4(10), rec-1(5), rec-3(1), rec-5(0)
	// dealt round-robin from the top performer.
	wantByAgent := map[string][]string{
		"top": {"rec-2", "rec-3"},
		"mid": {"rec-4", "rec-5"},
		"low": {"rec-1"},
	}
	for _, g := range groups {
		want := wantByAgent[g.AgentID]
		if len(g.Records) != len(want) {
			t.Fatalf("agent %s: expected %d records, got %d", g.AgentID, len(want), len(g.Records))
		}
		for i, r := range g.Records {
			if r.ID != want[i] {
				t.Errorf("agent %s record %d: expected %s, got %s", g.AgentID, i, want[i], r.ID)
			}
		}
	}
}

func TestPriorityStrategyTiesKeepInputOrder(t *testing.T) {
	s := &PriorityStrategy{}
	agents := []types.Agent{
		freshAgent("a1", "Anna"),
		freshAgent("a2", "Ben"),
	}

	// Identical note lengths and identical scores: pure round-robin in
	// input order.
	groups := s.Assign(makeRecords(4), agents)

	if groups[0].AgentID != "a1" {
		t.Errorf("equal scores should keep input order, got %s first", groups[0].AgentID)
	}
	if groups[0].Records[0].ID != "rec-1" || groups[0].Records[1].ID != "rec-3" {
		t.Errorf("agent a1 should hold rec-1 and rec-3, got %s and %s",
			groups[0].Records[0].ID, groups[0].Records[1].ID)
	}
	if groups[1].Records[0].ID != "rec-2" || groups[1].Records[1].ID != "rec-4" {
		t.Errorf("agent a2 should hold rec-2 and rec-4, got %s and %s",
			groups[1].Records[0].ID, groups[1].Records[1].ID)
	}
}
