// Package jobs implements compute job submission and tracking.
//
// A job references an application entrypoint from the catalog, points at
// input files in the user's storage tree and is persisted to Postgres
// before being handed to the queue for a runner to pick up. Runners
// report progress back through status updates, which append runtime
// details and trigger an email notification once the job reaches a
// terminal state.
package jobs
