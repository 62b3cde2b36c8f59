package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linguaflow/progress-service/internal/middlewares"
	"github.com/linguaflow/progress-service/internal/models"
	"github.com/linguaflow/progress-service/internal/services"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for module progress business logic.
type ProgressService interface {
	// Method Record counts one practice attempt for the module. Vocabulary
	// and grammar attempts carry a correct flag, writing and phonetics a
	// 0-100 score.
	Record(ctx context.Context, userID int, module models.Module, outcome models.AttemptOutcome) error
	// Method RecordConversationMessage counts one conversation message
	// toward the engagement threshold.
	RecordConversationMessage(ctx context.Context, userID int) error
	// Method Eligibility returns all four scored modules with their
	// threshold flags.
	Eligibility(ctx context.Context, userID int) ([]models.ModuleProgress, error)
	// Method Engagement returns the conversation message count with its
	// threshold flag.
	Engagement(ctx context.Context, userID int) (*models.ConversationEngagement, error)
}

// eligibilityResponse is the body of GET /progress/eligibility
type eligibilityResponse struct {
	Modules                []models.ModuleProgress       `json:"modules"`
	ConversationEngagement models.ConversationEngagement `json:"conversationEngagement"`
}

// ProgressHandler handles module progress HTTP requests
type ProgressHandler struct {
	BaseHandler
	progressService ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progressService ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		progressService: progressService,
	}
}

// RegisterRoutes registers all progress handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Route("/progress", func(r chi.Router) {
		r.Post("/{module}/attempts", h.RecordAttempt)
		r.Get("/eligibility", h.Eligibility)
	})
	r.Post("/conversation/messages", h.RecordConversationMessage)
}

// RegisterInternalRoutes registers service-to-service routes, guarded by the
// API key middleware
func (h *ProgressHandler) RegisterInternalRoutes(r chi.Router) {
	r.Get("/users/{userID}/progress", h.UserProgress)
}

// RecordAttempt handles POST /progress/{module}/attempts
// @Summary Record a practice attempt
// @Description Counts one attempt for the module. Vocabulary and grammar take {"correct": bool}, writing and phonetics take {"score": 0-100}.
// @Tags progress
// @Accept json
// @Produce json
// @Param module path string true "Module name" Enums(vocabulary, grammar, writing, phonetics)
// @Param request body models.AttemptOutcome true "Attempt outcome"
// @Success 204 "Attempt recorded"
// @Failure 400 {object} map[string]string "Unknown module or invalid outcome"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/{module}/attempts [post]
func (h *ProgressHandler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	module := models.Module(chi.URLParam(r, "module"))

	var outcome models.AttemptOutcome
	if err := h.DecodeJSON(r, &outcome); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.progressService.Record(r.Context(), userID, module, outcome); err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownModule):
			h.RespondError(w, http.StatusBadRequest, "unknown module")
		case errors.Is(err, services.ErrMissingOutcome):
			h.RespondError(w, http.StatusBadRequest, "attempt outcome is required")
		case errors.Is(err, services.ErrInvalidScore):
			h.RespondError(w, http.StatusBadRequest, "score must be between 0 and 100")
		default:
			h.RespondError(w, http.StatusInternalServerError, "failed to record attempt")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordConversationMessage handles POST /conversation/messages
// @Summary Record a conversation message
// @Description Counts one user message toward the conversation engagement threshold at the current level.
// @Tags progress
// @Produce json
// @Success 204 "Message recorded"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /conversation/messages [post]
func (h *ProgressHandler) RecordConversationMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	if err := h.progressService.RecordConversationMessage(r.Context(), userID); err != nil {
		h.RespondError(w, http.StatusInternalServerError, "failed to record conversation message")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Eligibility handles GET /progress/eligibility
// @Summary Get per-module advancement eligibility
// @Description Returns every scored module with its score, attempt counts and threshold flags, plus the conversation engagement state.
// @Tags progress
// @Produce json
// @Success 200 {object} eligibilityResponse "Per-module eligibility"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /progress/eligibility [get]
func (h *ProgressHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	h.respondEligibility(w, r, userID)
}

// UserProgress handles GET /internal/users/{userID}/progress
// @Summary Get a user's progress (service-to-service)
// @Description Returns the same eligibility view as /progress/eligibility for an arbitrary user. Requires the X-API-Key header.
// @Tags internal
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} eligibilityResponse "Per-module eligibility"
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Failure 401 {object} map[string]string "Missing or invalid API key"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /internal/users/{userID}/progress [get]
func (h *ProgressHandler) UserProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	h.respondEligibility(w, r, userID)
}

func (h *ProgressHandler) respondEligibility(w http.ResponseWriter, r *http.Request, userID int) {
	modules, err := h.progressService.Eligibility(r.Context(), userID)
	if err != nil {
		h.RespondError(w, http.StatusInternalServerError, "failed to get module progress")
		return
	}

	engagement, err := h.progressService.Engagement(r.Context(), userID)
	if err != nil {
		h.RespondError(w, http.StatusInternalServerError, "failed to get conversation engagement")
		return
	}

	h.RespondJSON(w, http.StatusOK, eligibilityResponse{
		Modules:                modules,
		ConversationEngagement: *engagement,
	})
}
