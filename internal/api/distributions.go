package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MukeshR-prog/distributer/internal/engine"
	"github.com/MukeshR-prog/distributer/internal/metrics"
	"github.com/MukeshR-prog/distributer/internal/storage"
	"github.com/MukeshR-prog/distributer/internal/types"
)

// redistributeRetries bounds how often a redistribution is replayed
// against a fresh read after a version conflict.
const redistributeRetries = 3

// DistributionHandler provides REST endpoints for distributions
type DistributionHandler struct {
	store      storage.Store
	engine     *engine.Engine
	maxRecords int
	logger     zerolog.Logger
}

// NewDistributionHandler creates a new DistributionHandler. maxRecords
// bounds a single upload; 0 disables the cap.
func NewDistributionHandler(store storage.Store, eng *engine.Engine, maxRecords int, logger zerolog.Logger) *DistributionHandler {
	return &DistributionHandler{
		store:      store,
		engine:     eng,
		maxRecords: maxRecords,
		logger:     logger.With().Str("component", "distribution_handler").Logger(),
	}
}

type createDistributionRequest struct {
	FileName         string              `json:"fileName"`
	OriginalFileName string              `json:"originalFileName"`
	FileSize         int64               `json:"fileSize"`
	UploadedBy       string              `json:"uploadedBy"`
	Strategy         string              `json:"strategy"`
	Records          []types.RecordInput `json:"records"`
}

// Create handles POST /api/distributions
func (h *DistributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req createDistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.maxRecords > 0 && len(req.Records) > h.maxRecords {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("too many records: %d exceeds the limit of %d", len(req.Records), h.maxRecords))
		return
	}
	for i, in := range req.Records {
		if err := types.ValidateRecordInput(in, i+1); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	agents, err := h.store.ListAgents(true)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list agents")
		respondError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}

	plan, err := h.engine.Distribute(req.Records, agents, req.Strategy)
	if err != nil {
		metrics.Get().RecordDistributionError()
		respondError(w, statusForError(err), err.Error())
		return
	}

	now := time.Now().UTC()
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = "upload-" + now.Format("20060102-150405") + ".csv"
	}
	originalName := strings.TrimSpace(req.OriginalFileName)
	if originalName == "" {
		originalName = fileName
	}

	dist := &types.Distribution{
		ID:               uuid.New().String(),
		FileName:         fileName,
		OriginalFileName: originalName,
		FileSize:         req.FileSize,
		TotalRecords:     len(req.Records),
		UploadedBy:       req.UploadedBy,
		Strategy:         plan.Strategy,
		Status:           types.DistributionCompleted,
		Agents:           plan.Agents,
		Summary:          plan.Summary,
		CreatedAt:        now,
		Version:          1,
	}

	if err := h.store.CreateDistribution(dist); err != nil {
		h.logger.Error().Err(err).Str("distribution_id", dist.ID).Msg("failed to save distribution")
		metrics.Get().RecordDistributionError()
		respondError(w, http.StatusInternalServerError, "failed to save distribution")
		return
	}

	metrics.Get().RecordDistributionCreated(dist.Strategy, dist.TotalRecords, time.Since(start))
	h.logger.Info().
		Str("distribution_id", dist.ID).
		Str("strategy", string(dist.Strategy)).
		Int("records", dist.TotalRecords).
		Int("agents", len(dist.Agents)).
		Msg("distribution created")

	respondJSON(w, http.StatusCreated, dist)
}

// List handles GET /api/distributions
func (h *DistributionHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{
		Strategy: r.URL.Query().Get("strategy"),
		Status:   r.URL.Query().Get("status"),
		Page:     1,
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			opts.Page = page
		}
	}
	if v := r.URL.Query().Get("pageSize"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			opts.PageSize = size
		}
	}

	items, total, err := h.store.ListDistributions(opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list distributions")
		respondError(w, http.StatusInternalServerError, "failed to list distributions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"total":    total,
		"page":     opts.Page,
		"pageSize": opts.PageSize,
	})
}

// Get handles GET /api/distributions/{distributionId}
func (h *DistributionHandler) Get(w http.ResponseWriter, r *http.Request) {
	distID := chi.URLParam(r, "distributionId")
	if distID == "" {
		respondError(w, http.StatusBadRequest, "distributionId is required")
		return
	}

	dist, err := h.store.GetDistribution(distID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, dist)
}

// Delete handles DELETE /api/distributions/{distributionId}
func (h *DistributionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	distID := chi.URLParam(r, "distributionId")
	if distID == "" {
		respondError(w, http.StatusBadRequest, "distributionId is required")
		return
	}

	if err := h.store.DeleteDistribution(distID); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("distribution_id", distID).Msg("failed to delete distribution")
		}
		respondError(w, status, err.Error())
		return
	}

	metrics.Get().RecordDistributionDeleted()
	h.logger.Info().Str("distribution_id", distID).Msg("distribution deleted")
	respondJSON(w, http.StatusOK, map[string]string{
		"message":        "distribution deleted",
		"distributionId": distID,
	})
}

// Redistribute handles POST /api/distributions/{distributionId}/redistribute.
// With no recordIds the whole failed set moves. The save is optimistic;
// a concurrent update triggers a replay against a fresh read.
func (h *DistributionHandler) Redistribute(w http.ResponseWriter, r *http.Request) {
	distID := chi.URLParam(r, "distributionId")
	if distID == "" {
		respondError(w, http.StatusBadRequest, "distributionId is required")
		return
	}

	var req struct {
		RecordIDs []string `json:"recordIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		dist  *types.Distribution
		moves []types.RecordMove
	)
	for attempt := 0; ; attempt++ {
		var err error
		dist, err = h.store.GetDistribution(distID)
		if err != nil {
			respondError(w, statusForError(err), err.Error())
			return
		}

		moves, err = h.engine.Redistribute(dist, req.RecordIDs)
		if err != nil {
			respondError(w, statusForError(err), err.Error())
			return
		}

		err = h.store.SaveRedistribution(dist, moves)
		if err == nil {
			break
		}
		if errors.Is(err, types.ErrConcurrentModification) && attempt < redistributeRetries-1 {
			metrics.Get().RecordVersionConflict()
			continue
		}

		status := statusForError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("distribution_id", distID).Msg("failed to save redistribution")
		}
		respondError(w, status, err.Error())
		return
	}
	dist.Version++

	metrics.Get().RecordRedistribution(len(moves))
	h.logger.Info().
		Str("distribution_id", distID).
		Int("moves", len(moves)).
		Msg("records redistributed")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"distribution": dist,
		"moves":        moves,
	})
}
