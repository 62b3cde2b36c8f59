package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linguaflow/progress-service/internal/middlewares"
	"github.com/linguaflow/progress-service/internal/models"
	"github.com/linguaflow/progress-service/internal/services"
	"go.uber.org/zap"
)

// AdvancementService is the interface that wraps methods for level advancement business logic.
type AdvancementService interface {
	// Method Summary assembles the user's full progress picture with the
	// advancement verdict and its blocking reason.
	Summary(ctx context.Context, userID int) (*models.ProgressSummary, error)
	// Method Advance moves the user to the next level when every gate is
	// satisfied. An unsatisfied gate yields a result with Advanced false
	// and the blocking reason, not an error.
	Advance(ctx context.Context, userID int) (*models.AdvancementResult, error)
	// Method History returns the user's completed levels, oldest first.
	History(ctx context.Context, userID int) ([]models.LevelHistoryEntry, error)
}

// AdvancementHandler handles level advancement HTTP requests
type AdvancementHandler struct {
	BaseHandler
	advancementService AdvancementService
}

// NewAdvancementHandler creates a new advancement handler
func NewAdvancementHandler(advancementService AdvancementService, logger *zap.Logger) *AdvancementHandler {
	return &AdvancementHandler{
		BaseHandler:        BaseHandler{Logger: logger},
		advancementService: advancementService,
	}
}

// RegisterRoutes registers all advancement handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *AdvancementHandler) RegisterRoutes(r chi.Router) {
	r.Route("/advancement", func(r chi.Router) {
		r.Get("/summary", h.Summary)
		r.Post("/", h.Advance)
		r.Get("/history", h.History)
	})
}

// Summary handles GET /advancement/summary
// @Summary Get the advancement dashboard
// @Description Returns the current level, per-module progress, conversation engagement, the advancement verdict with its blocking reason, and display aggregates.
// @Tags advancement
// @Produce json
// @Success 200 {object} models.ProgressSummary "Progress summary"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /advancement/summary [get]
func (h *AdvancementHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	summary, err := h.advancementService.Summary(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.RespondError(w, http.StatusInternalServerError, "failed to get progress summary")
		return
	}

	h.RespondJSON(w, http.StatusOK, summary)
}

// Advance handles POST /advancement
// @Summary Attempt a level advancement
// @Description Re-evaluates every gate and advances the user when all are satisfied. A failed gate returns 200 with advanced=false and the blocking reason.
// @Tags advancement
// @Produce json
// @Success 200 {object} models.AdvancementResult "Advancement outcome"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /advancement [post]
func (h *AdvancementHandler) Advance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	result, err := h.advancementService.Advance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			h.RespondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.RespondError(w, http.StatusInternalServerError, "failed to advance level")
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// History handles GET /advancement/history
// @Summary Get level history
// @Description Returns one entry per completed level with the scores and counters archived at completion, oldest first.
// @Tags advancement
// @Produce json
// @Success 200 {array} models.LevelHistoryEntry "Completed levels"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /advancement/history [get]
func (h *AdvancementHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	entries, err := h.advancementService.History(r.Context(), userID)
	if err != nil {
		h.RespondError(w, http.StatusInternalServerError, "failed to get level history")
		return
	}
	if entries == nil {
		entries = []models.LevelHistoryEntry{}
	}

	h.RespondJSON(w, http.StatusOK, entries)
}
