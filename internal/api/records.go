package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MukeshR-prog/distributer/internal/metrics"
	"github.com/MukeshR-prog/distributer/internal/types"
)

// UpdateRecord handles PATCH /api/distributions/{distributionId}/records/{recordId}.
// The caller must name the agent the record is assigned to; updating
// another agent's record is forbidden.
func (h *DistributionHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	distID := chi.URLParam(r, "distributionId")
	recordID := chi.URLParam(r, "recordId")
	if distID == "" || recordID == "" {
		respondError(w, http.StatusBadRequest, "distributionId and recordId are required")
		return
	}

	var req struct {
		AgentID string  `json:"agentId"`
		Status  string  `json:"status"`
		Notes   *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentID == "" {
		respondError(w, http.StatusBadRequest, "agentId is required")
		return
	}

	status, err := types.ParseRecordStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Notes != nil && len(*req.Notes) > types.MaxNotesLength {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("notes exceeds %d characters", types.MaxNotesLength))
		return
	}

	rec, err := h.store.UpdateRecordStatus(distID, req.AgentID, recordID, status, req.Notes)
	if err != nil {
		metrics.Get().RecordStatusUpdateError()
		respondStatus := statusForError(err)
		if respondStatus == http.StatusInternalServerError {
			h.logger.Error().Err(err).
				Str("distribution_id", distID).
				Str("record_id", recordID).
				Msg("failed to update record status")
		}
		respondError(w, respondStatus, err.Error())
		return
	}

	metrics.Get().RecordStatusUpdate()
	h.logger.Info().
		Str("distribution_id", distID).
		Str("agent_id", req.AgentID).
		Str("record_id", recordID).
		Str("status", string(status)).
		Msg("record status updated")

	respondJSON(w, http.StatusOK, rec)
}
