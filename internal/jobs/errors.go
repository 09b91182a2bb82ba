package jobs

import "errors"

// Job errors.
var (
	// ErrNotFound is returned when a job does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("jobs: job not found")

	// ErrNameTaken is returned when the user already has a job with the
	// requested name.
	ErrNameTaken = errors.New("jobs: job name already in use")

	// ErrInvalidJob is returned when a job submission fails validation,
	// for example an unknown application or a missing input file.
	ErrInvalidJob = errors.New("jobs: invalid job")

	// ErrEnqueueFailed is returned when the job could not be handed to
	// the queue.
	ErrEnqueueFailed = errors.New("jobs: enqueue failed")

	// ErrPoolRequired is returned when a component is constructed
	// without a database pool.
	ErrPoolRequired = errors.New("jobs: pool is required")
)
