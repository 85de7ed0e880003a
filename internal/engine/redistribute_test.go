package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/MukeshR-prog/distributer/internal/types"
	"github.com/rs/zerolog"
)

var fixtureTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixtureRecord(id string, status types.RecordStatus) types.Record {
	return types.Record{
		ID:         id,
		FirstName:  "Contact " + id,
		Phone:      "4915751234567",
		Status:     status,
		AssignedAt: fixtureTime,
	}
}

// fixtureDistribution has live loads 5 (a1), 1 (a2), 3 (a3) and one
// failed record in a1 and a3 each.
func fixtureDistribution() *types.Distribution {
	return &types.Distribution{
		ID:           "dist-1",
		FileName:     "contacts.csv",
		TotalRecords: 11,
		Strategy:     types.StrategyEqual,
		Status:       types.DistributionCompleted,
		Agents: []types.AgentGroup{
			{
				AgentID: "a1", AgentName: "Anna", AssignedCount: 6,
				Records: []types.Record{
					fixtureRecord("p1", types.RecordPending),
					fixtureRecord("p2", types.RecordPending),
					fixtureRecord("p3", types.RecordPending),
					fixtureRecord("p4", types.RecordPending),
					fixtureRecord("p5", types.RecordPending),
					fixtureRecord("f1", types.RecordFailed),
				},
			},
			{
				AgentID: "a2", AgentName: "Ben", AssignedCount: 1,
				Records: []types.Record{
					fixtureRecord("p6", types.RecordPending),
				},
			},
			{
				AgentID: "a3", AgentName: "Clara", AssignedCount: 4,
				Records: []types.Record{
					fixtureRecord("w1", types.RecordInProgress),
					fixtureRecord("w2", types.RecordInProgress),
					fixtureRecord("w3", types.RecordInProgress),
					fixtureRecord("f2", types.RecordFailed),
				},
			},
		},
		Summary: types.Summary{
			TotalAgentsAssigned: 3,
			DistributionTime:    42,
		},
		Version: 1,
	}
}

func findRecord(dist *types.Distribution, id string) (string, *types.Record) {
	for gi := range dist.Agents {
		for ri := range dist.Agents[gi].Records {
			if dist.Agents[gi].Records[ri].ID == id {
				return dist.Agents[gi].AgentID, &dist.Agents[gi].Records[ri]
			}
		}
	}
	return "", nil
}

func TestRedistributeAllFailedLeastLoadedFirst(t *testing.T) {
	e := New(zerolog.Nop())
	dist := fixtureDistribution()

	moves, err := e.Redistribute(dist, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("expected 2 moves, got %d", len(moves))
	}

	// Loads are 5/1/3, so the first failed record goes to a2, the second
	// to a3. The order is fixed before dealing starts.
	if moves[0].RecordID != "f1" || moves[0].FromAgentID != "a1" || moves[0].ToAgentID != "a2" {
		t.Errorf("unexpected first move: %+v", moves[0])
	}
	if moves[1].RecordID != "f2" || moves[1].FromAgentID != "a3" || moves[1].ToAgentID != "a3" {
		t.Errorf("unexpected second move: %+v", moves[1])
	}

	owner, rec := findRecord(dist, "f1")
	if owner != "a2" {
		t.Errorf("f1 should now belong to a2, got %s", owner)
	}
	if rec.Status != types.RecordPending {
		t.Errorf("moved record should be pending, got %s", rec.Status)
	}
	if !rec.Redistributed {
		t.Error("moved record should be tagged redistributed")
	}
	if !rec.AssignedAt.After(fixtureTime) {
		t.Error("moved record should get a fresh assignedAt")
	}
	if rec.CompletedAt != nil {
		t.Error("moved record should not carry completedAt")
	}

	wantCounts := map[string]int{"a1": 5, "a2": 2, "a3": 4}
	for _, g := range dist.Agents {
		if g.AssignedCount != wantCounts[g.AgentID] {
			t.Errorf("group %s: expected count %d, got %d", g.AgentID, wantCounts[g.AgentID], g.AssignedCount)
		}
		if g.AssignedCount != len(g.Records) {
			t.Errorf("group %s: assignedCount %d != len(records) %d", g.AgentID, g.AssignedCount, len(g.Records))
		}
	}

	seen := collectIDs(dist.Agents)
	if len(seen) != 11 {
		t.Errorf("expected 11 distinct records after redistribution, got %d", len(seen))
	}

	s := dist.Summary
	if s.MinRecordsAssigned != 2 || s.MaxRecordsAssigned != 5 {
		t.Errorf("expected min 2 max 5, got min %d max %d", s.MinRecordsAssigned, s.MaxRecordsAssigned)
	}
	if s.DistributionVariance != 3 {
		t.Errorf("expected variance 3, got %d", s.DistributionVariance)
	}
	if !approx(s.AverageRecordsPerAgent, 3.67) {
		t.Errorf("expected average 3.67, got %v", s.AverageRecordsPerAgent)
	}
	if s.DistributionTime != 42 {
		t.Errorf("distribution timing should be preserved, got %d", s.DistributionTime)
	}
	if s.TotalAgentsAssigned != 3 {
		t.Errorf("expected 3 agents assigned, got %d", s.TotalAgentsAssigned)
	}
}

func TestRedistributeExplicitSubset(t *testing.T) {
	e := New(zerolog.Nop())
	dist := fixtureDistribution()

	moves, err := e.Redistribute(dist, []string{"f2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(moves))
	}
	if moves[0].RecordID != "f2" || moves[0].ToAgentID != "a2" {
		t.Errorf("f2 should move to the least loaded group a2, got %+v", moves[0])
	}

	// f1 was not selected and stays failed where it is.
	owner, rec := findRecord(dist, "f1")
	if owner != "a1" || rec.Status != types.RecordFailed {
		t.Errorf("f1 should remain failed in a1, got status %s in %s", rec.Status, owner)
	}
}

func TestRedistributeUnknownRecordID(t *testing.T) {
	e := New(zerolog.Nop())
	dist := fixtureDistribution()

	_, err := e.Redistribute(dist, []string{"missing"})
	if !errors.Is(err, types.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRedistributeRejectsNonFailedRecord(t *testing.T) {
	e := New(zerolog.Nop())
	dist := fixtureDistribution()

	// p1 exists but is pending; only failed records can be redistributed.
	_, err := e.Redistribute(dist, []string{"p1"})
	if !errors.Is(err, types.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for non-failed record, got %v", err)
	}
}

func TestRedistributeNothingFailed(t *testing.T) {
	e := New(zerolog.Nop())
	dist := fixtureDistribution()
	for gi := range dist.Agents {
		for ri := range dist.Agents[gi].Records {
			dist.Agents[gi].Records[ri].Status = types.RecordCompleted
		}
	}

	_, err := e.Redistribute(dist, nil)
	if !errors.Is(err, types.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}
