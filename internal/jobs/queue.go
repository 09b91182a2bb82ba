package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// MigrateQueue applies River's own schema migrations so queue inserts
// have their tables in place.
func MigrateQueue(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}
	return nil
}

// AppSpecs is the container command line and environment for a queued job.
type AppSpecs struct {
	Cmd []string          `json:"cmd,omitempty"`
	Env map[string]string `json:"env,omitempty"`
}

// HandlerSpecs tells the runner which image to pull and how files move
// between the user's storage and the container.
type HandlerSpecs struct {
	ImageURL     string            `json:"image_url"`
	ImageName    string            `json:"image_name,omitempty"`
	ImageVersion string            `json:"image_version,omitempty"`
	Entrypoint   string            `json:"entrypoint,omitempty"`
	FilesDown    map[string]string `json:"files_down,omitempty"`
	FilesUp      map[string]string `json:"files_up"`
}

// MetaSpecs carries job bookkeeping into the queue payload.
type MetaSpecs struct {
	JobID       int64     `json:"job_id"`
	DateCreated time.Time `json:"date_created"`
}

// JobSpecs is the full job description a runner executes.
type JobSpecs struct {
	App      AppSpecs      `json:"app"`
	Handler  HandlerSpecs  `json:"handler"`
	Meta     MetaSpecs     `json:"meta"`
	Hardware HardwareSpecs `json:"hardware"`
}

// PathsUpload names the storage URIs a runner uploads results to.
type PathsUpload struct {
	Output   string `json:"output"`
	Log      string `json:"log"`
	Artifact string `json:"artifact"`
}

// QueueJob is the queue payload for one job.
type QueueJob struct {
	Job         JobSpecs        `json:"job"`
	Environment EnvironmentType `json:"environment,omitempty"`
	Group       string          `json:"group,omitempty"`
	Priority    int             `json:"priority"`
	PathsUpload PathsUpload     `json:"paths_upload"`
}

// queueJobArgs wraps QueueJob as River job arguments.
type queueJobArgs struct {
	QueueJob
}

func (queueJobArgs) Kind() string {
	return "decode:job"
}

// Enqueuer hands jobs to the queue. The River client runs in insert-only
// mode so this process never works jobs itself.
type Enqueuer struct {
	client *river.Client[pgx.Tx]
	logger *slog.Logger
}

// NewEnqueuer creates an enqueue-only queue client on the given pool.
func NewEnqueuer(pool *pgxpool.Pool, logger *slog.Logger) (*Enqueuer, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}
	return &Enqueuer{client: client, logger: logger}, nil
}

// EnqueueTx inserts the job into the queue within tx, so the queue entry
// becomes visible together with the job row.
func (e *Enqueuer) EnqueueTx(ctx context.Context, tx pgx.Tx, qj QueueJob) error {
	_, err := e.client.InsertTx(ctx, tx, &queueJobArgs{QueueJob: qj}, insertOpts(qj))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}
	return nil
}

// Enqueue inserts the job into the queue outside a transaction.
func (e *Enqueuer) Enqueue(ctx context.Context, qj QueueJob) error {
	_, err := e.client.Insert(ctx, &queueJobArgs{QueueJob: qj}, insertOpts(qj))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}
	return nil
}

func insertOpts(qj QueueJob) *river.InsertOpts {
	return &river.InsertOpts{
		Queue:       queueName(qj.Environment),
		Priority:    queuePriority(qj.Priority),
		MaxAttempts: 1,
	}
}

// queueName routes jobs with an environment preference to a dedicated
// queue so runners can subscribe selectively.
func queueName(env EnvironmentType) string {
	switch env {
	case EnvCloud, EnvLocal:
		return string(env)
	default:
		return river.QueueDefault
	}
}

// queuePriority maps the submission priority (0 lowest to 5 highest)
// onto River's 1..4 range, where lower runs first.
func queuePriority(p int) int {
	switch {
	case p >= 4:
		return 1
	case p >= 2:
		return 2
	case p >= 1:
		return 3
	default:
		return 4
	}
}
