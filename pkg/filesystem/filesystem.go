package filesystem

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"
)

// Seq is a lazy, finite sequence of directory entries. Iteration is
// restartable: ranging over the same Seq twice re-issues the backend listing
// from scratch. Errors encountered mid-listing are yielded as the second
// value and terminate the sequence.
type Seq = iter.Seq2[FileInfo, error]

// FileSystem is the uniform storage contract both backends satisfy.
// All paths are logical, slash-separated, and relative to the instance root;
// trailing-slash semantics are described in the path helpers.
type FileSystem interface {
	// Init idempotently creates the root and every predefined directory.
	// It runs at construction and again whenever the root is deleted.
	Init(ctx context.Context) error

	// CreateDirectory creates an empty directory at path. Creating an
	// existing directory is not an error.
	CreateDirectory(ctx context.Context, path string) error

	// ListDirectory returns the directory's entries. It fails with
	// ErrNotADirectory if path does not resolve to a directory. Recursive
	// listings yield paths relative to the instance root, not to path.
	// Ordering is backend-defined; callers sort when they need determinism.
	ListDirectory(ctx context.Context, path string, opts ...ListOption) (Seq, error)

	// GetFileInfo stats a single existing path.
	GetFileInfo(ctx context.Context, path string) (FileInfo, error)

	// CreateFile writes r to path, creating parent directories as needed
	// and silently overwriting existing content.
	CreateFile(ctx context.Context, path string, r io.Reader) error

	// Exists reports whether path exists as either a file or a directory.
	Exists(ctx context.Context, path string) (bool, error)

	// IsDir reports whether path is a directory. The root always is.
	IsDir(ctx context.Context, path string) (bool, error)

	// Rename moves a file or empty directory to newPath, creating parent
	// directories of newPath as needed. It fails with ErrNotFound if path
	// does not exist and with ErrIsDirectory if path is a non-empty
	// directory or a predefined one.
	Rename(ctx context.Context, path, newPath string) error

	// Delete removes path and, for directories, all descendants. Deleting a
	// missing path is a no-op. The root and predefined directories self-heal
	// to empty afterwards (suppress with WithoutReinit).
	Delete(ctx context.Context, path string, opts ...DeleteOption) error

	// Download returns the file's raw bytes, or a deflate ZIP archive of all
	// descendant files when path is a directory. Fails with ErrNotFound if
	// path is absent.
	Download(ctx context.Context, path string) (*Download, error)

	// UploadRequest produces request parameters a client can use to upload
	// into the path prefix without proxying bytes through this service.
	// origin is the request being answered; urlSuffix/uploadSuffix describe
	// the route rewrite for backends that re-point at this service.
	UploadRequest(ctx context.Context, path string, origin *http.Request, urlSuffix, uploadSuffix string) (*HTTPRequest, error)

	// DownloadRequest is the symmetric presigned/redirect mechanism for
	// downloads. Fails with ErrNotFound if path is absent.
	DownloadRequest(ctx context.Context, path string, origin *http.Request, urlSuffix, downloadSuffix string) (*HTTPRequest, error)

	// FullPathURI resolves a logical path to a backend-addressable absolute
	// URI usable by external job-execution processes.
	FullPathURI(path string) string
}

// PresignExpiry bounds the validity of generated upload/download requests.
// There is no renewal mechanism; clients re-request after expiry.
const PresignExpiry = 10 * time.Minute

// HTTPRequest describes a request a client can issue directly against the
// backing store (or back at this service for the local backend).
type HTTPRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Fields  map[string]string `json:"data,omitempty"`
}

// Download is the result of a download operation. The caller owns Body.
// Archives are buffered in memory before being returned; this is an accepted
// resource ceiling for the moderate file counts the service handles.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	IsArchive   bool
}

// ListOption configures directory listings.
type ListOption func(*listConfig)

type listConfig struct {
	includeDirs bool
	recursive   bool
}

func newListConfig(opts []ListOption) listConfig {
	cfg := listConfig{includeDirs: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// FilesOnly excludes directory entries from the listing.
func FilesOnly() ListOption {
	return func(cfg *listConfig) {
		cfg.includeDirs = false
	}
}

// Recursive lists all descendants instead of immediate children only.
func Recursive() ListOption {
	return func(cfg *listConfig) {
		cfg.recursive = true
	}
}

// DeleteOption configures deletion behavior.
type DeleteOption func(*deleteConfig)

type deleteConfig struct {
	reinitRoot bool
}

func newDeleteConfig(opts []DeleteOption) deleteConfig {
	cfg := deleteConfig{reinitRoot: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithoutReinit suppresses re-initialization after deleting the root.
// Intended for teardown paths that want the tree gone for good.
func WithoutReinit() DeleteOption {
	return func(cfg *deleteConfig) {
		cfg.reinitRoot = false
	}
}

// Contract logic shared by both backends. There is no base type: each
// backend owns its root path and delegates the invariant checks here.

// initTree creates every predefined directory plus the root itself.
func initTree(ctx context.Context, fsys FileSystem, predef []string) error {
	for _, dir := range append(append([]string{}, predef...), "") {
		if err := fsys.CreateDirectory(ctx, dir+"/"); err != nil {
			return err
		}
	}
	return nil
}

// listGuard normalizes path to directory notation and verifies it resolves
// to a directory.
func listGuard(ctx context.Context, fsys FileSystem, path string) (string, error) {
	norm := normalizeDir(path)
	ok, err := fsys.IsDir(ctx, norm)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotADirectory, path)
	}
	return norm, nil
}

// renameGuard enforces the rename preconditions: the source must exist, and
// directories may only be renamed when empty and not predefined.
func renameGuard(ctx context.Context, fsys FileSystem, path string, predef []string) error {
	exists, err := fsys.Exists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	isDir, err := fsys.IsDir(ctx, path)
	if err != nil {
		return err
	}
	if !isDir {
		return nil
	}

	// Shallow listing suffices for the emptiness check; stop at the first entry.
	seq, err := fsys.ListDirectory(ctx, path)
	if err != nil {
		return err
	}
	for _, iterErr := range seq {
		if iterErr != nil {
			return iterErr
		}
		return fmt.Errorf("%w: cannot rename a non-empty directory", ErrIsDirectory)
	}
	if isPredefined(path, predef) {
		return fmt.Errorf("%w: cannot rename a predefined directory", ErrIsDirectory)
	}
	return nil
}

// healAfterDelete restores the self-healing invariants: a deleted root is
// re-initialized (unless suppressed) and a deleted predefined directory is
// recreated empty.
func healAfterDelete(ctx context.Context, fsys FileSystem, path string, predef []string, reinitRoot bool) error {
	switch {
	case isRoot(path):
		if reinitRoot {
			return fsys.Init(ctx)
		}
	case isPredefined(path, predef):
		return fsys.CreateDirectory(ctx, path)
	}
	return nil
}

// collect drains a listing sequence into a slice. Used by callers that need
// the materialized form (sorting, archiving); plain traversals should range
// over the Seq directly.
func collect(seq Seq) ([]FileInfo, error) {
	var entries []FileInfo
	for fi, err := range seq {
		if err != nil {
			return nil, err
		}
		entries = append(entries, fi)
	}
	return entries, nil
}
