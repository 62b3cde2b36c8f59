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

// ReviewService is the interface that wraps methods for flashcard review business logic.
type ReviewService interface {
	// Method NextCard returns the next flashcard for the user, due reviews
	// before unseen words, never repeating the card served immediately
	// before unless it is the only candidate.
	//
	// If the user has no card available, services.ErrNoCardAvailable is returned.
	NextCard(ctx context.Context, userID int) (*models.ReviewCard, error)
	// Method RecordAnswer applies an answer to the word's review schedule
	// and counts a vocabulary attempt.
	//
	// "reviewID" is optional; when set it must identify the user's own
	// record for the word.
	RecordAnswer(ctx context.Context, userID int, word string, isCorrect bool, reviewID *int) error
	// Method Stats returns the user's review queue counts.
	Stats(ctx context.Context, userID int) (*models.ReviewStats, error)
}

// answerRequest is the body of POST /reviews/answers
type answerRequest struct {
	Word      string `json:"word"`
	IsCorrect *bool  `json:"isCorrect"`
	ReviewID  *int   `json:"reviewId,omitempty"`
}

// ReviewHandler handles flashcard review HTTP requests
type ReviewHandler struct {
	BaseHandler
	reviewService ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		reviewService: reviewService,
	}
}

// RegisterRoutes registers all review handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/next", h.Next)
		r.Post("/answers", h.Answer)
		r.Get("/stats", h.Stats)
	})
}

// Next handles GET /reviews/next
// @Summary Get the next flashcard
// @Description Returns the next flashcard for the authenticated user: the most overdue review if any, otherwise a new word near the user's level. The same card is never served twice in a row.
// @Tags reviews
// @Produce json
// @Success 200 {object} models.ReviewCard "Next flashcard"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 404 {object} map[string]string "No card available"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/next [get]
func (h *ReviewHandler) Next(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	card, err := h.reviewService.NextCard(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			h.RespondError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrNoCardAvailable):
			h.RespondError(w, http.StatusNotFound, "no card available")
		default:
			h.RespondError(w, http.StatusInternalServerError, "failed to get next card")
		}
		return
	}

	h.RespondJSON(w, http.StatusOK, card)
}

// Answer handles POST /reviews/answers
// @Summary Record a flashcard answer
// @Description Applies the answer to the word's spaced-repetition schedule and counts a vocabulary attempt. A correct answer is graded quality 5, an incorrect one quality 2.
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body answerRequest true "Answer payload"
// @Success 204 "Answer recorded"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 404 {object} map[string]string "Word or review not found"
// @Failure 409 {object} map[string]string "Review does not match the word"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/answers [post]
func (h *ReviewHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req answerRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Word == "" || req.IsCorrect == nil {
		h.RespondError(w, http.StatusBadRequest, "word and isCorrect are required")
		return
	}

	err := h.reviewService.RecordAnswer(r.Context(), userID, req.Word, *req.IsCorrect, req.ReviewID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrWordNotFound),
			errors.Is(err, services.ErrReviewNotFound):
			h.RespondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrReviewMismatch):
			h.RespondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrInvalidQuality):
			h.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			h.RespondError(w, http.StatusInternalServerError, "failed to record answer")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /reviews/stats
// @Summary Get review queue statistics
// @Description Returns due, learning, mastered and total counts for the authenticated user's review queue.
// @Tags reviews
// @Produce json
// @Success 200 {object} models.ReviewStats "Review queue counts"
// @Failure 401 {object} map[string]string "Missing user identity"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /reviews/stats [get]
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.GetUserID(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	stats, err := h.reviewService.Stats(r.Context(), userID)
	if err != nil {
		h.RespondError(w, http.StatusInternalServerError, "failed to get review stats")
		return
	}

	h.RespondJSON(w, http.StatusOK, stats)
}
