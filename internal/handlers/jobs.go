package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/jobs"
)

// JobService is the job layer as the HTTP handlers see it.
type JobService interface {
	List(ctx context.Context, userID string, offset, limit int) ([]jobs.Job, error)
	Get(ctx context.Context, userID string, id int64) (jobs.Job, error)
	Create(ctx context.Context, userID, userEmail string, req jobs.CreateRequest) (jobs.Job, error)
	Delete(ctx context.Context, userID string, id int64) error
	UpdateStatus(ctx context.Context, update jobs.StatusUpdate) (jobs.Job, error)
}

// jobsHandler serves the /jobs endpoints and the internal status update.
type jobsHandler struct {
	svc    JobService
	logger *slog.Logger
}

func (h *jobsHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.svc.List(r.Context(), user.ID, offset, limit)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func jobID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
	return id, err == nil
}

func (h *jobsHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := jobID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	job, err := h.svc.Get(r.Context(), user.ID, id)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (h *jobsHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req jobs.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.svc.Create(r.Context(), user.ID, user.Email, req)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, job)
}

func (h *jobsHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := jobID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	if err := h.svc.Delete(r.Context(), user.ID, id); err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusUpdateRequest struct {
	JobID          int64  `json:"job_id"`
	Status         string `json:"status"`
	RuntimeDetails string `json:"runtime_details,omitempty"`
}

// updateStatus is the internal endpoint the worker-facing service calls
// to report job transitions.
func (h *jobsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := jobs.ParseStatus(req.Status)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}

	job, err := h.svc.UpdateStatus(r.Context(), jobs.StatusUpdate{
		JobID:          req.JobID,
		Status:         status,
		RuntimeDetails: req.RuntimeDetails,
	})
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, job.Status)
}
