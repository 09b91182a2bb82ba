package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/handlers"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/jobs"
)

// fakeJobService records calls and returns canned results.
type fakeJobService struct {
	jobs       []jobs.Job
	createErr  error
	lastUpdate jobs.StatusUpdate
}

func (f *fakeJobService) List(_ context.Context, userID string, _, _ int) ([]jobs.Job, error) {
	out := make([]jobs.Job, 0)
	for _, j := range f.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJobService) Get(_ context.Context, userID string, id int64) (jobs.Job, error) {
	for _, j := range f.jobs {
		if j.ID == id && j.UserID == userID {
			return j, nil
		}
	}
	return jobs.Job{}, jobs.ErrNotFound
}

func (f *fakeJobService) Create(_ context.Context, userID, userEmail string, req jobs.CreateRequest) (jobs.Job, error) {
	if f.createErr != nil {
		return jobs.Job{}, f.createErr
	}
	j := jobs.Job{
		ID:          int64(len(f.jobs) + 1),
		UserID:      userID,
		UserEmail:   userEmail,
		Name:        req.Name,
		Status:      jobs.StatusQueued,
		Application: req.Application,
		Attributes:  req.Attributes,
	}
	f.jobs = append(f.jobs, j)
	return j, nil
}

func (f *fakeJobService) Delete(ctx context.Context, userID string, id int64) error {
	for i, j := range f.jobs {
		if j.ID == id && j.UserID == userID {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return nil
		}
	}
	return jobs.ErrNotFound
}

func (f *fakeJobService) UpdateStatus(_ context.Context, update jobs.StatusUpdate) (jobs.Job, error) {
	for _, j := range f.jobs {
		if j.ID == update.JobID {
			f.lastUpdate = update
			j.Status = update.Status
			return j, nil
		}
	}
	return jobs.Job{}, jobs.ErrNotFound
}

const testAPIKey = "internal-test-key"

func newJobsRouter(t *testing.T) (http.Handler, *fakeJobService) {
	t.Helper()

	svc := &fakeJobService{}
	router := handlers.NewRouter(handlers.Deps{
		Jobs:           svc,
		InternalAPIKey: testAPIKey,
	})
	return router, svc
}

func TestJobs_CreateAndList(t *testing.T) {
	t.Parallel()

	router, svc := newJobsRouter(t)

	body := `{
		"job_name": "fit-1",
		"application": {"application": "decode", "version": "1.0", "entrypoint": "train"},
		"attributes": {"files_down": {"config_id": "experiment.yaml"}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	req.Header.Set("X-User-Email", "user@example.com")
	rec := doRequest(t, router, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created jobs.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "fit-1", created.Name)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, "user@example.com", created.UserEmail)

	rec = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []jobs.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Len(t, svc.jobs, 1)
}

func TestJobs_Create_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid submission", func(t *testing.T) {
		t.Parallel()

		router, svc := newJobsRouter(t)
		svc.createErr = jobs.ErrInvalidJob
		rec := doRequest(t, router, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"job_name": "x"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()

		router, svc := newJobsRouter(t)
		svc.createErr = jobs.ErrNameTaken
		rec := doRequest(t, router, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"job_name": "x"}`)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		router, _ := newJobsRouter(t)
		rec := doRequest(t, router, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader("{not json")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJobs_Get(t *testing.T) {
	t.Parallel()

	router, svc := newJobsRouter(t)
	svc.jobs = []jobs.Job{{ID: 1, UserID: "u1", Name: "fit-1"}, {ID: 2, UserID: "other", Name: "fit-2"}}

	rec := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/jobs/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Jobs of other users are indistinguishable from missing ones.
	rec = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/jobs/2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/jobs/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobs_Delete(t *testing.T) {
	t.Parallel()

	router, svc := newJobsRouter(t)
	svc.jobs = []jobs.Job{{ID: 1, UserID: "u1", Name: "fit-1"}}

	rec := doRequest(t, router, httptest.NewRequest(http.MethodDelete, "/jobs/1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.jobs)
}

func TestJobStatus_Update(t *testing.T) {
	t.Parallel()

	router, svc := newJobsRouter(t)
	svc.jobs = []jobs.Job{{ID: 7, UserID: "u1", Name: "fit-1", Status: jobs.StatusRunning}}

	body := `{"job_id": 7, "status": "finished", "runtime_details": "exit code 0"}`
	req := httptest.NewRequest(http.MethodPut, "/_job_status", strings.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobs.StatusFinished, svc.lastUpdate.Status)
	assert.Equal(t, "exit code 0", svc.lastUpdate.RuntimeDetails)
}

func TestJobStatus_Unauthorized(t *testing.T) {
	t.Parallel()

	router, _ := newJobsRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/_job_status", strings.NewReader(`{"job_id": 1, "status": "finished"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/_job_status", strings.NewReader(`{"job_id": 1, "status": "finished"}`))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJobStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	router, _ := newJobsRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/_job_status", strings.NewReader(`{"job_id": 1, "status": "paused"}`))
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
