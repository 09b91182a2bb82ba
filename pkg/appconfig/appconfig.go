package appconfig

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config is the application catalog: application -> version -> entrypoint.
// It tells the job layer which container image runs an entrypoint and how
// the runner's input/output paths map onto the user's storage tree.
type Config map[string]map[string]map[string]Entrypoint

// Entrypoint describes one runnable application entrypoint.
type Entrypoint struct {
	App     AppSpec     `yaml:"app"`
	Handler HandlerSpec `yaml:"handler"`
}

// AppSpec holds the container command line and the environment variable
// names a job is allowed to set.
type AppSpec struct {
	Cmd []string `yaml:"cmd"`
	Env []string `yaml:"env"`
}

// HandlerSpec maps job files onto runner paths.
type HandlerSpec struct {
	ImageURL string `yaml:"image_url"`
	// FilesDown maps input kinds (config_id, data_ids, artifact_ids) to the
	// runner-side root each input is staged under.
	FilesDown map[string]string `yaml:"files_down"`
	// FilesUp maps output kinds (output, log, artifact) to the runner-side
	// path collected after the run.
	FilesUp map[string]string `yaml:"files_up"`
}

// Lookup resolves one entrypoint from the catalog.
func (c Config) Lookup(application, version, entrypoint string) (Entrypoint, error) {
	versions, ok := c[application]
	if !ok {
		return Entrypoint{}, fmt.Errorf("%w: application %q", ErrUnknownApplication, application)
	}
	entrypoints, ok := versions[version]
	if !ok {
		return Entrypoint{}, fmt.Errorf("%w: version %q of %q", ErrUnknownApplication, version, application)
	}
	ep, ok := entrypoints[entrypoint]
	if !ok {
		return Entrypoint{}, fmt.Errorf("%w: entrypoint %q of %q %q", ErrUnknownApplication, entrypoint, application, version)
	}
	return ep, nil
}

// Loader caches the catalog and re-reads it when the source's last-modified
// timestamp advances. The check runs on every Get, so edits to the config
// file become visible without restarting the service.
type Loader struct {
	source source

	mu       sync.Mutex
	config   Config
	fetched  bool
	modified time.Time
}

// New builds a Loader for path. Paths with an s3:// scheme read from object
// storage (client required); anything else reads from the local filesystem.
func New(path string, client *s3.Client) (*Loader, error) {
	if strings.HasPrefix(path, "s3://") {
		if client == nil {
			return nil, fmt.Errorf("%w: s3 config path requires a client", ErrInvalidSource)
		}
		src, err := newS3Source(path, client)
		if err != nil {
			return nil, err
		}
		return &Loader{source: src}, nil
	}
	return &Loader{source: localSource{path: path}}, nil
}

// Get returns the current catalog, refreshing it from the source if the
// source changed since the last fetch.
func (l *Loader) Get(ctx context.Context) (Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	modified, err := l.source.lastModified(ctx)
	if err != nil {
		return nil, err
	}
	if l.fetched && !modified.After(l.modified) {
		return l.config, nil
	}

	cfg, err := l.source.read(ctx)
	if err != nil {
		return nil, err
	}
	l.config = cfg
	l.fetched = true
	l.modified = modified
	return cfg, nil
}
