package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/health"
)

const welcomeMessage = "Welcome to the DECODE OpenCloud User-facing API"

// Deps are the collaborators the HTTP layer is assembled from.
type Deps struct {
	Files          userFilesystems
	Jobs           JobService
	Logger         *slog.Logger
	InternalAPIKey string
	FrontendOrigin string
	// ReadinessChecks are run by the readiness probe, keyed by name.
	ReadinessChecks health.Checks
}

// NewRouter assembles the service's HTTP handler.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	files := &filesHandler{files: deps.Files, logger: log}
	jobsH := &jobsHandler{svc: deps.Jobs, logger: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(Recover(log))
	r.Use(CORS(deps.FrontendOrigin))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, welcomeMessage)
	})
	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(deps.ReadinessChecks, health.WithLogger(log)))

	r.Group(func(r chi.Router) {
		r.Use(Authenticate)

		r.Route("/files", func(r chi.Router) {
			r.Get("/*", files.get)
			r.Post("/*", files.post)
			r.Put("/*", files.rename)
			r.Delete("/*", files.delete)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobsH.list)
			r.Post("/", jobsH.create)
			r.Get("/{jobID}", jobsH.get)
			r.Delete("/{jobID}", jobsH.delete)
		})
	})

	r.With(RequireAPIKey(deps.InternalAPIKey)).Put("/_job_status", jobsH.updateStatus)

	return r
}
