package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/appconfig"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/db"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/filesystem"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/mailer"
)

const defaultListLimit = 100

// userFilesystems hands out a storage view scoped to one user.
type userFilesystems interface {
	ForUser(ctx context.Context, userID string) (filesystem.FileSystem, error)
}

// catalog provides the current application catalog.
type catalog interface {
	Get(ctx context.Context) (appconfig.Config, error)
}

// queueInserter hands a job to the queue inside the submission transaction.
type queueInserter interface {
	EnqueueTx(ctx context.Context, tx pgx.Tx, qj QueueJob) error
}

// Service wires job persistence, validation against the application
// catalog, input file checks and queue handoff.
type Service struct {
	pool    *pgxpool.Pool
	repo    *Repository
	queue   queueInserter
	files   userFilesystems
	catalog catalog
	mail    mailer.Sender
	from    string
	logger  *slog.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithMailer enables email notifications for terminal status updates.
func WithMailer(sender mailer.Sender, from string) ServiceOption {
	return func(s *Service) {
		s.mail = sender
		s.from = from
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the job service.
func NewService(pool *pgxpool.Pool, files userFilesystems, cat catalog, queue queueInserter, opts ...ServiceOption) (*Service, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	s := &Service{
		pool:    pool,
		repo:    NewRepository(),
		queue:   queue,
		files:   files,
		catalog: cat,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns the user's jobs.
func (s *Service) List(ctx context.Context, userID string, offset, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, s.pool, userID, offset, limit)
}

// Get returns one job. Jobs of other users are reported as not found.
func (s *Service) Get(ctx context.Context, userID string, id int64) (Job, error) {
	j, err := s.repo.Get(ctx, s.pool, id)
	if err != nil {
		return Job{}, err
	}
	if j.UserID != userID {
		return Job{}, ErrNotFound
	}
	return j, nil
}

// Create validates the submission, persists the job and hands it to the
// queue in one transaction.
func (s *Service) Create(ctx context.Context, userID, userEmail string, req CreateRequest) (Job, error) {
	cfg, err := s.catalog.Get(ctx)
	if err != nil {
		return Job{}, err
	}
	ep, priority, err := validateRequest(cfg, req)
	if err != nil {
		return Job{}, err
	}

	fs, err := s.files.ForUser(ctx, userID)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		UserID:      userID,
		UserEmail:   userEmail,
		Name:        req.Name,
		Status:      StatusQueued,
		PathsOut:    pathsOut(req.Name),
		Environment: req.Environment,
		Priority:    priority,
		Application: req.Application,
		Attributes:  req.Attributes,
		Hardware:    req.Hardware,
	}

	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repo.Create(ctx, tx, &job); err != nil {
			return err
		}
		qj, err := buildQueueJob(ctx, fs, ep, job)
		if err != nil {
			return err
		}
		return s.queue.EnqueueTx(ctx, tx, qj)
	})
	if err != nil {
		return Job{}, err
	}

	s.logger.InfoContext(ctx, "job submitted",
		slog.Int64("job_id", job.ID),
		slog.String("user_id", userID),
		slog.String("application", req.Application.Application))
	return job, nil
}

// Delete removes the job row and its output directories.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	job, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.pool, id); err != nil {
		return err
	}

	fs, err := s.files.ForUser(ctx, userID)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range job.PathsOut {
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		g.Go(func() error {
			if err := fs.Delete(ctx, p); err != nil && !errors.Is(err, filesystem.ErrNotFound) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// UpdateStatus records a runner-reported transition and notifies the
// user by email when the job reaches a terminal state.
func (s *Service) UpdateStatus(ctx context.Context, update StatusUpdate) (Job, error) {
	job, err := s.repo.UpdateStatus(ctx, s.pool, update)
	if err != nil {
		return Job{}, err
	}

	if update.Status.Terminal() && job.UserEmail != "" && s.mail != nil {
		if err := s.mail.Send(ctx, notificationEmail(s.from, job)); err != nil {
			// The status change is already committed. A lost email is
			// not worth failing the runner's update over.
			s.logger.WarnContext(ctx, "job notification failed",
				slog.Int64("job_id", job.ID),
				slog.String("error", err.Error()))
		}
	}
	return job, nil
}

func notificationEmail(from string, job Job) *mailer.Email {
	subject := fmt.Sprintf("Job %s (id=%d) %s", job.Name, job.ID, job.Status)
	html := fmt.Sprintf(
		"This is an update for job '%s' (id=%d).<br>Status: %s.<br><br>"+
			"Job run-time details:<br>%s<br><br>"+
			"If you would like not to receive such updates in the future, contact the developers.",
		job.Name, job.ID, job.Status, job.RuntimeDetails)
	return &mailer.Email{
		From:    from,
		To:      []string{job.UserEmail},
		Subject: subject,
		HTML:    html,
	}
}

// validateRequest checks the submission against the application catalog
// and returns the resolved entrypoint and effective priority.
func validateRequest(cfg appconfig.Config, req CreateRequest) (appconfig.Entrypoint, int, error) {
	if req.Name == "" {
		return appconfig.Entrypoint{}, 0, fmt.Errorf("%w: job name is required", ErrInvalidJob)
	}

	ep, err := cfg.Lookup(req.Application.Application, req.Application.Version, req.Application.Entrypoint)
	if err != nil {
		return appconfig.Entrypoint{}, 0, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	switch req.Environment {
	case EnvAny, EnvCloud, EnvLocal:
	default:
		return appconfig.Entrypoint{}, 0, fmt.Errorf("%w: unknown environment %q", ErrInvalidJob, req.Environment)
	}

	priority := 0
	if req.Priority != nil {
		priority = *req.Priority
		if priority < 0 || priority > 5 {
			return appconfig.Entrypoint{}, 0, fmt.Errorf("%w: priority must be between 0 and 5, not %d", ErrInvalidJob, priority)
		}
	}

	if len(req.Attributes.EnvVars) > 0 {
		allowed := make(map[string]bool, len(ep.App.Env))
		for _, name := range ep.App.Env {
			allowed[name] = true
		}
		for name := range req.Attributes.EnvVars {
			if !allowed[name] {
				return appconfig.Entrypoint{}, 0, fmt.Errorf("%w: environment variables must be in %v", ErrInvalidJob, ep.App.Env)
			}
		}
	}

	if req.Attributes.FilesDown.ConfigID == "" {
		return appconfig.Entrypoint{}, 0, fmt.Errorf("%w: config_id is required", ErrInvalidJob)
	}
	return ep, priority, nil
}

// buildQueueJob resolves the job's input files to storage URIs and
// assembles the payload a runner consumes.
func buildQueueJob(ctx context.Context, fs filesystem.FileSystem, ep appconfig.Entrypoint, job Job) (QueueJob, error) {
	in := job.Attributes.FilesDown

	configPath := "config/" + in.ConfigID
	dataPaths := make([]string, 0, len(in.DataIDs))
	for _, id := range in.DataIDs {
		dataPaths = append(dataPaths, "data/"+id)
	}
	artifactPaths := make([]string, 0, len(in.ArtifactIDs))
	for _, id := range in.ArtifactIDs {
		artifactPaths = append(artifactPaths, "artifact/"+id)
	}

	all := append([]string{configPath}, dataPaths...)
	all = append(all, artifactPaths...)
	for _, p := range all {
		ok, err := fs.Exists(ctx, p)
		if err != nil {
			return QueueJob{}, err
		}
		if !ok {
			return QueueJob{}, fmt.Errorf("%w: file %s does not exist", ErrInvalidJob, p)
		}
	}

	filesDown := make(map[string]string)
	if err := stageFiles(ctx, fs, configPath, ep.Handler.FilesDown["config_id"], filesDown); err != nil {
		return QueueJob{}, err
	}
	for _, p := range dataPaths {
		if err := stageFiles(ctx, fs, p, ep.Handler.FilesDown["data_ids"], filesDown); err != nil {
			return QueueJob{}, err
		}
	}
	for _, p := range artifactPaths {
		if err := stageFiles(ctx, fs, p, ep.Handler.FilesDown["artifact_ids"], filesDown); err != nil {
			return QueueJob{}, err
		}
	}

	return QueueJob{
		Job: JobSpecs{
			App: AppSpecs{
				Cmd: ep.App.Cmd,
				Env: job.Attributes.EnvVars,
			},
			Handler: HandlerSpecs{
				ImageURL:     ep.Handler.ImageURL,
				ImageName:    job.Application.Application,
				ImageVersion: job.Application.Version,
				Entrypoint:   job.Application.Entrypoint,
				FilesDown:    filesDown,
				FilesUp:      ep.Handler.FilesUp,
			},
			Meta: MetaSpecs{
				JobID:       job.ID,
				DateCreated: job.DateCreated,
			},
			Hardware: job.Hardware,
		},
		Environment: job.Environment,
		Priority:    job.Priority,
		PathsUpload: PathsUpload{
			Output:   fs.FullPathURI(job.PathsOut[OutputKindOutput]),
			Log:      fs.FullPathURI(job.PathsOut[OutputKindLog]),
			Artifact: fs.FullPathURI(job.PathsOut[OutputKindArtifact]),
		},
	}, nil
}

// stageFiles maps every file under rootIn (or rootIn itself when it is a
// single file) to its runner-side path under rootOut.
func stageFiles(ctx context.Context, fs filesystem.FileSystem, rootIn, rootOut string, dst map[string]string) error {
	dir := strings.TrimSuffix(rootIn, "/") + "/"
	isDir, err := fs.IsDir(ctx, dir)
	if err != nil {
		return err
	}
	if !isDir {
		dst[path.Join(rootOut, path.Base(rootIn))] = fs.FullPathURI(rootIn)
		return nil
	}

	seq, err := fs.ListDirectory(ctx, dir, filesystem.FilesOnly(), filesystem.Recursive())
	if err != nil {
		return err
	}
	for fi, err := range seq {
		if err != nil {
			return err
		}
		dst[path.Join(rootOut, strings.TrimPrefix(fi.Path, dir))] = fs.FullPathURI(fi.Path)
	}
	return nil
}
