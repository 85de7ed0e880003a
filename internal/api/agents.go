package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MukeshR-prog/distributer/internal/storage"
	"github.com/MukeshR-prog/distributer/internal/types"
)

// AgentHandler provides REST endpoints for the agent roster
type AgentHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(store storage.Store, logger zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		store:  store,
		logger: logger.With().Str("component", "agent_handler").Logger(),
	}
}

// agentRequest covers both create and update; on update, absent fields
// keep their current value.
type agentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	IsActive *bool  `json:"isActive"`
}

// Create handles POST /api/agents
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent := types.Agent{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Mobile:    strings.TrimSpace(req.Mobile),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}

	if err := types.ValidateAgent(agent); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateAgent(agent); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("email", agent.Email).Msg("failed to create agent")
		}
		respondError(w, status, err.Error())
		return
	}

	h.logger.Info().Str("agent_id", agent.ID).Str("email", agent.Email).Msg("agent created")
	respondJSON(w, http.StatusCreated, agent)
}

// List handles GET /api/agents
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"

	agents, err := h.store.ListAgents(includeInactive)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list agents")
		respondError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}
	if agents == nil {
		agents = []types.Agent{}
	}

	respondJSON(w, http.StatusOK, agents)
}

// Get handles GET /api/agents/{agentId}
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		respondError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	agent, err := h.store.GetAgent(agentID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, agent)
}

// Update handles PATCH /api/agents/{agentId}. Only profile fields and
// the active flag are writable; the task counters are owned by the
// distribution lifecycle.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		respondError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, err := h.store.GetAgent(agentID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	if req.Name != "" {
		agent.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		agent.Email = strings.TrimSpace(req.Email)
	}
	if req.Mobile != "" {
		agent.Mobile = strings.TrimSpace(req.Mobile)
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}

	if err := types.ValidateAgent(*agent); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateAgent(*agent); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("agent_id", agentID).Msg("failed to update agent")
		}
		respondError(w, status, err.Error())
		return
	}

	h.logger.Info().Str("agent_id", agentID).Msg("agent updated")
	respondJSON(w, http.StatusOK, agent)
}

// Delete handles DELETE /api/agents/{agentId}. Existing distributions
// keep their snapshot of the agent.
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		respondError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	if err := h.store.DeleteAgent(agentID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	h.logger.Info().Str("agent_id", agentID).Msg("agent deleted")
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "agent deleted",
		"agentId": agentID,
	})
}

// agentDistributionView is one distribution reduced to the agent's slice
// of it.
type agentDistributionView struct {
	DistributionID string         `json:"distributionId"`
	FileName       string         `json:"fileName"`
	Strategy       types.Strategy `json:"strategy"`
	CreatedAt      time.Time      `json:"createdAt"`
	AssignedCount  int            `json:"assignedCount"`
	Records        []types.Record `json:"records"`
}

// Distributions returns the agent's assignments across all distributions
// GET /api/agents/{agentId}/distributions
func (h *AgentHandler) Distributions(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentId")
	if agentID == "" {
		respondError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	if _, err := h.store.GetAgent(agentID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	dists, err := h.store.ListDistributionsByAgent(agentID)
	if err != nil {
		h.logger.Error().Err(err).Str("agent_id", agentID).Msg("failed to list agent distributions")
		respondError(w, http.StatusInternalServerError, "failed to retrieve distributions")
		return
	}

	view := make([]agentDistributionView, 0, len(dists))
	for _, d := range dists {
		for _, g := range d.Agents {
			if g.AgentID != agentID {
				continue
			}
			view = append(view, agentDistributionView{
				DistributionID: d.ID,
				FileName:       d.FileName,
				Strategy:       d.Strategy,
				CreatedAt:      d.CreatedAt,
				AssignedCount:  g.AssignedCount,
				Records:        g.Records,
			})
		}
	}

	respondJSON(w, http.StatusOK, view)
}
