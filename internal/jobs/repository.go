package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists jobs in Postgres.
type Repository struct{}

// NewRepository creates a job repository.
func NewRepository() *Repository {
	return &Repository{}
}

const jobColumns = `id, user_id, user_email, job_name, date_created, date_started,
	date_finished, status, paths_out, runtime_details, environment, priority,
	application, attributes, hardware`

func scanJob(row pgx.Row) (Job, error) {
	var (
		j         Job
		email   *string
		details *string
		env     *string
		paths   map[string]string
	)
	err := row.Scan(&j.ID, &j.UserID, &email, &j.Name, &j.DateCreated,
		&j.DateStarted, &j.DateFinished, &j.Status, &paths, &details,
		&env, &j.Priority, &j.Application, &j.Attributes, &j.Hardware)
	if err != nil {
		return Job{}, err
	}
	if email != nil {
		j.UserEmail = *email
	}
	if details != nil {
		j.RuntimeDetails = *details
	}
	if env != nil {
		j.Environment = EnvironmentType(*env)
	}
	j.PathsOut = paths
	return j, nil
}

// List returns the user's jobs ordered by creation time.
func (r *Repository) List(ctx context.Context, q querier, userID string, offset, limit int) ([]Job, error) {
	rows, err := q.Query(ctx, `SELECT `+jobColumns+` FROM jobs
		WHERE user_id = $1 ORDER BY id OFFSET $2 LIMIT $3`, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("jobs: list: %w", err)
	}
	defer rows.Close()

	list := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("jobs: list: %w", err)
		}
		list = append(list, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobs: list: %w", err)
	}
	return list, nil
}

// Get returns one job by ID.
func (r *Repository) Get(ctx context.Context, q querier, id int64) (Job, error) {
	j, err := scanJob(q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("jobs: get: %w", err)
	}
	return j, nil
}

// Create inserts the job and fills in its ID and creation time.
// A duplicate (user_id, job_name) pair maps to ErrNameTaken.
func (r *Repository) Create(ctx context.Context, q querier, j *Job) error {
	var email, details, env *string
	if j.UserEmail != "" {
		email = &j.UserEmail
	}
	if j.RuntimeDetails != "" {
		details = &j.RuntimeDetails
	}
	if j.Environment != EnvAny {
		s := string(j.Environment)
		env = &s
	}

	err := q.QueryRow(ctx, `INSERT INTO jobs (user_id, user_email, job_name,
		status, paths_out, runtime_details, environment, priority, application,
		attributes, hardware)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, date_created`,
		j.UserID, email, j.Name, j.Status, j.PathsOut, details, env,
		j.Priority, j.Application, j.Attributes, j.Hardware,
	).Scan(&j.ID, &j.DateCreated)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrNameTaken, j.Name)
		}
		return fmt.Errorf("jobs: create: %w", err)
	}
	return nil
}

// UpdateStatus transitions the job and appends any runtime details.
// The start timestamp is recorded on the first running report and the
// finish timestamp when the job reaches a terminal status.
func (r *Repository) UpdateStatus(ctx context.Context, q querier, update StatusUpdate) (Job, error) {
	now := time.Now().UTC()
	var started, finished *time.Time
	if update.Status == StatusRunning {
		started = &now
	}
	if update.Status.Terminal() {
		finished = &now
	}

	row := q.QueryRow(ctx, `UPDATE jobs SET
		status = $2,
		runtime_details = CASE WHEN $3 = ''
			THEN runtime_details
			ELSE concat_ws(E'\n', runtime_details, $3) END,
		date_started = COALESCE(date_started, $4),
		date_finished = COALESCE(date_finished, $5)
		WHERE id = $1
		RETURNING `+jobColumns,
		update.JobID, update.Status, update.RuntimeDetails, started, finished)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("jobs: update status: %w", err)
	}
	return j, nil
}

// Delete removes the job row.
func (r *Repository) Delete(ctx context.Context, q querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("jobs: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
