package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/league-stages/internal/tournament"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

// Error answers with the status matching the kind of err. Rejections and missing entities show
// their own message, anything else is logged with msg and hidden from the client.
func Error(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, tournament.ErrValidation):
		BadRequest(w, err.Error(), err)
	case errors.Is(err, tournament.ErrNotFound):
		NotFound(w, err.Error(), err)
	default:
		InternalServerError(w, msg, err)
	}
}
