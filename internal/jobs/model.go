package jobs

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusPulled         Status = "pulled"
	StatusPreprocessing  Status = "preprocessing"
	StatusRunning        Status = "running"
	StatusPostprocessing Status = "postprocessing"
	StatusFinished       Status = "finished"
	StatusError          Status = "error"
)

// ParseStatus validates a status value received from a runner.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusQueued, StatusPulled, StatusPreprocessing, StatusRunning,
		StatusPostprocessing, StatusFinished, StatusError:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidJob, s)
	}
}

// Terminal reports whether the status marks the end of a job's life.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusError
}

// EnvironmentType selects where a job may run. The empty value means the
// job has no preference and any runner may pick it up.
type EnvironmentType string

const (
	EnvAny   EnvironmentType = ""
	EnvCloud EnvironmentType = "cloud"
	EnvLocal EnvironmentType = "local"
)

// Output path kinds collected after a run.
const (
	OutputKindOutput   = "output"
	OutputKindLog      = "log"
	OutputKindArtifact = "artifact"
)

// Application identifies one entrypoint of the application catalog.
type Application struct {
	Application string `json:"application"`
	Version     string `json:"version"`
	Entrypoint  string `json:"entrypoint"`
}

// InputFiles names the files a job reads from the user's storage tree.
// Each ID is a path relative to the corresponding predefined directory,
// and may point at a single file or a directory staged recursively.
type InputFiles struct {
	ConfigID    string   `json:"config_id"`
	DataIDs     []string `json:"data_ids"`
	ArtifactIDs []string `json:"artifact_ids"`
}

// Attributes carries the per-job inputs and environment overrides.
type Attributes struct {
	FilesDown InputFiles        `json:"files_down"`
	EnvVars   map[string]string `json:"env_vars,omitempty"`
}

// HardwareSpecs describes the resources a job requests. All fields are
// optional hints for the scheduler.
type HardwareSpecs struct {
	CPUCores int    `json:"cpu_cores,omitempty"`
	Memory   int    `json:"memory,omitempty"`
	GPUModel string `json:"gpu_model,omitempty"`
	GPUArchi string `json:"gpu_archi,omitempty"`
	GPUMem   int    `json:"gpu_mem,omitempty"`
}

// Job is a persisted compute job.
type Job struct {
	ID             int64             `json:"id"`
	UserID         string            `json:"user_id"`
	UserEmail      string            `json:"user_email,omitempty"`
	Name           string            `json:"job_name"`
	DateCreated    time.Time         `json:"date_created"`
	DateStarted    *time.Time        `json:"date_started"`
	DateFinished   *time.Time        `json:"date_finished"`
	Status         Status            `json:"status"`
	PathsOut       map[string]string `json:"paths_out"`
	RuntimeDetails string            `json:"runtime_details,omitempty"`
	Environment    EnvironmentType   `json:"environment,omitempty"`
	Priority       int               `json:"priority"`
	Application    Application       `json:"application"`
	Attributes     Attributes        `json:"attributes"`
	Hardware       HardwareSpecs     `json:"hardware"`
}

// CreateRequest is a job submission.
type CreateRequest struct {
	Name        string          `json:"job_name"`
	Environment EnvironmentType `json:"environment,omitempty"`
	Priority    *int            `json:"priority,omitempty"`
	Application Application     `json:"application"`
	Attributes  Attributes      `json:"attributes"`
	Hardware    HardwareSpecs   `json:"hardware,omitempty"`
}

// StatusUpdate is a runner-reported lifecycle change.
type StatusUpdate struct {
	JobID          int64  `json:"job_id"`
	Status         Status `json:"status"`
	RuntimeDetails string `json:"runtime_details,omitempty"`
}

// pathsOut returns the per-kind output directories for a job name.
func pathsOut(name string) map[string]string {
	return map[string]string{
		OutputKindOutput:   OutputKindOutput + "/" + name,
		OutputKindLog:      OutputKindLog + "/" + name,
		OutputKindArtifact: OutputKindArtifact + "/" + name,
	}
}
