package api

import (
	"errors"
	"net/http"

	"github.com/yayaysya/sixu-recall/internal/domain"
	"github.com/yayaysya/sixu-recall/internal/domain/srs"
	"github.com/yayaysya/sixu-recall/internal/generation"
	"github.com/yayaysya/sixu-recall/internal/service"
	"github.com/yayaysya/sixu-recall/internal/store"
)

// statusForError maps service and store errors onto HTTP status codes.
// Unrecognized errors map to 500 and are logged, never leaked verbatim.
func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, service.ErrNoteNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, srs.ErrInvalidRating),
		errors.Is(err, srs.ErrInvalidDays),
		errors.Is(err, domain.ErrCardQuestionEmpty),
		errors.Is(err, domain.ErrCardAnswerEmpty),
		errors.Is(err, domain.ErrDeckNameEmpty),
		errors.Is(err, service.ErrNoDecksToMerge),
		errors.Is(err, service.ErrNoFiles),
		errors.Is(err, generation.ErrEmptyText):
		return http.StatusBadRequest

	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrContentBlocked),
		errors.Is(err, generation.ErrInvalidResponse):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// messageForStatus keeps 5xx responses generic so internal details never
// reach clients; 4xx responses carry the underlying message.
func messageForStatus(status int, err error) string {
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		return "internal server error"
	}
	return err.Error()
}
