package types

import "errors"

// Sentinel errors shared by the engine, the store, and the API layer.
// Handlers map these to HTTP status codes; anything else is a 500.
var (
	// ErrEmptyInput is returned when a distribution is requested with zero records.
	ErrEmptyInput = errors.New("no records to distribute")

	// ErrNoAgents is returned when the agent pool is empty.
	ErrNoAgents = errors.New("no agents available")

	// ErrNoActiveAgents is returned when agents exist but none are active.
	ErrNoActiveAgents = errors.New("no active agents available")

	// ErrNotAssigned is returned when an agent has no assignment group
	// in the distribution it is trying to update.
	ErrNotAssigned = errors.New("agent is not assigned to this distribution")

	// ErrRecordNotFound is returned when a record id is absent from the
	// calling agent's own group. Records owned by other agents are
	// deliberately reported as not found.
	ErrRecordNotFound = errors.New("record not found in agent's assignments")

	ErrDistributionNotFound = errors.New("distribution not found")
	ErrAgentNotFound        = errors.New("agent not found")

	// ErrAgentExists is returned when registering an agent with an email
	// that is already taken.
	ErrAgentExists = errors.New("agent with this email already exists")

	// ErrInvalidStatus is returned for status values outside the record lifecycle.
	ErrInvalidStatus = errors.New("invalid record status")

	// ErrConcurrentModification is returned when an optimistic version
	// check fails because another writer got there first.
	ErrConcurrentModification = errors.New("distribution was modified concurrently")
)
