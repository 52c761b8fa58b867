package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursemart/coursemart/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Only access rejections
// carry their own detail; wrapped sentinels are answered with the sentinel text.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if ae, ok := shared.AsAccessError(err); ok {
		Reject(w, ae.Status(), ae.Message, ae.Detail)
		return
	}
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Reject(w, http.StatusNotFound, "Resource not found", "")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Reject(w, http.StatusUnauthorized, "Invalid email or password", "")
	case errors.Is(err, shared.ErrConflict):
		Reject(w, http.StatusConflict, "Resource already exists", shared.ErrConflict.Error())
	case errors.Is(err, shared.ErrValidation):
		Reject(w, http.StatusBadRequest, "Validation failed", shared.ErrValidation.Error())
	default:
		if logger != nil {
			logger.Error("unhandled error", slog.Any("error", err))
		}
		Reject(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
