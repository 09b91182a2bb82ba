package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/jobs"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/filesystem"
)

// errorResponse is the error body shape: {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail})
}

// respondFailure maps domain errors onto HTTP statuses and logs anything
// that surfaces as a 500.
func respondFailure(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, filesystem.ErrNotFound),
		errors.Is(err, filesystem.ErrNotADirectory),
		errors.Is(err, jobs.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, filesystem.ErrIsDirectory):
		respondError(w, http.StatusMethodNotAllowed, err.Error())
	case errors.Is(err, jobs.ErrInvalidJob):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, jobs.ErrNameTaken):
		respondError(w, http.StatusConflict, "Job name must be unique")
	default:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
