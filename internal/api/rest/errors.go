package rest

import (
	"errors"
	"net/http"

	"facade-bot/internal/domain/entity"
	"facade-bot/internal/infrastructure/segmentation"
)

func statusForError(err error) int {
	var segErr *segmentation.Error
	switch {
	case entity.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnknownMask), errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrBusy), errors.Is(err, entity.ErrNoImage), errors.Is(err, entity.ErrStale):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNoMaskFound):
		return http.StatusUnprocessableEntity
	case errors.As(err, &segErr), errors.Is(err, entity.ErrNoRemoteMask):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
