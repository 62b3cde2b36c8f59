package services

import "errors"

// Contract errors surfaced to handlers. Eligibility-not-met is deliberately
// not among them: a negative advancement decision is a normal result.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUnknownModule   = errors.New("unknown module")
	ErrInvalidQuality  = errors.New("quality rating must be between 0 and 5")
	ErrInvalidScore    = errors.New("score must be between 0 and 100")
	ErrMissingOutcome  = errors.New("attempt outcome must carry a correct flag or a score")
	ErrWordNotFound    = errors.New("word not found in catalogue")
	ErrReviewNotFound  = errors.New("review not found for user")
	ErrReviewMismatch  = errors.New("review does not match the submitted word")
	ErrNoCardAvailable = errors.New("no flashcards available")
)
