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

// ChartsService is the interface that wraps methods for chart projection business logic.
type ChartsService interface {
	// Method Activity returns per-day per-module attempt counts over the
	// trailing window of days.
	Activity(ctx context.Context, userID, days int) ([]models.ActivityPoint, error)
	// Method ModuleScores returns the current score and attempt count per
	// module.
	ModuleScores(ctx context.Context, userID int) ([]models.ModuleScorePoint, error)
	// Method LevelProgression returns one point per completed level.
	LevelProgression(ctx context.Context, userID int) ([]models.LevelProgressionPoint, error)
}

// ChartsHandler handles chart data HTTP requests
type ChartsHandler struct {
	BaseHandler
	chartsService ChartsService
}

// NewChartsHandler creates a new charts handler
func NewChartsHandler(chartsService ChartsService, logger *zap.Logger) *ChartsHandler {
	return &ChartsHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		chartsService: chartsService,
	}
}

// RegisterRoutes registers all charts handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *ChartsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/charts", func(r chi.Router) {
		r.Get("/activity", h.Activity)
		r.Get("/modules", h.Modules)
		r.Get("/levels", h.Levels)
	})
}

// Activity handles GET /charts/activity
// @Summary Get daily activity chart data
// @Description Returns attempt counts per day per module over the trailing window. Defaults to 30 days.
// @Tags charts
// @Produce json
// @Param days query int false "Window size in days (1-365)" default(30)
// @Success 200 {array} models.ActivityPoint "Daily activity points"
// @Failure 400 {object} map[string]string "Invalid days parameter"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /charts/activity [get]
func (h *ChartsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = parsed
	}

	points, err := h.chartsService.Activity(r.Context(), userID, days)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDays) {
			h.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.RespondError(w, http.StatusInternalServerError, "failed to get activity data")
		return
	}

	h.RespondJSON(w, http.StatusOK, points)
}

// Modules handles GET /charts/modules
// @Summary Get module score chart data
// @Description Returns the current score and attempt count for every module. A null score marks a module without attempts.
// @Tags charts
// @Produce json
// @Success 200 {array} models.ModuleScorePoint "Module score points"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /charts/modules [get]
func (h *ChartsHandler) Modules(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	points, err := h.chartsService.ModuleScores(r.Context(), userID)
	if err != nil {
		h.RespondError(w, http.StatusInternalServerError, "failed to get module scores")
		return
	}

	h.RespondJSON(w, http.StatusOK, points)
}

// Levels handles GET /charts/levels
// @Summary Get level progression chart data
// @Description Returns one point per completed level with its completion date, days spent, and archived weighted score.
// @Tags charts
// @Produce json
// @Success 200 {array} models.LevelProgressionPoint "Level progression points"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /charts/levels [get]
func (h *ChartsHandler) Levels(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	points, err := h.chartsService.LevelProgression(r.Context(), userID)
	if err != nil {
		h.RespondError(w, http.StatusInternalServerError, "failed to get level progression")
		return
	}
	if points == nil {
		points = []models.LevelProgressionPoint{}
	}

	h.RespondJSON(w, http.StatusOK, points)
}
