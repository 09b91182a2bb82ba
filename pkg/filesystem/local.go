package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Local implements FileSystem over a tree-structured local filesystem.
// Directory semantics come for free; the only work is keeping listing output
// in the same root-relative shape the flat backend produces.
type Local struct {
	root   string
	predef []string
}

// NewLocal creates a Local rooted at the given OS directory. The instance is
// not initialized; the factory calls Init after construction.
func NewLocal(root string, predef ...string) *Local {
	return &Local{root: root, predef: predef}
}

// fullPath resolves a logical path to an OS path under the instance root.
func (l *Local) fullPath(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(p, "/")))
}

func (l *Local) Init(ctx context.Context) error {
	return initTree(ctx, l, l.predef)
}

func (l *Local) CreateDirectory(_ context.Context, p string) error {
	if err := os.MkdirAll(l.fullPath(p), 0o755); err != nil {
		return fmt.Errorf("filesystem: create directory %s: %w", p, err)
	}
	return nil
}

func (l *Local) ListDirectory(ctx context.Context, p string, opts ...ListOption) (Seq, error) {
	cfg := newListConfig(opts)
	norm, err := listGuard(ctx, l, p)
	if err != nil {
		return nil, err
	}
	return l.contents(ctx, norm, cfg), nil
}

// contents lazily yields the entries of a normalized directory path. Each
// iteration restarts the walk from scratch.
func (l *Local) contents(ctx context.Context, dir string, cfg listConfig) Seq {
	return func(yield func(FileInfo, error) bool) {
		prefix := childPrefix(dir)
		full := l.fullPath(dir)

		emit := func(logical string, isDir bool) bool {
			if isDir && !cfg.includeDirs {
				return true
			}
			fi, err := l.GetFileInfo(ctx, logical)
			if err != nil {
				yield(FileInfo{}, err)
				return false
			}
			return yield(fi, nil)
		}

		if !cfg.recursive {
			entries, err := os.ReadDir(full)
			if err != nil {
				yield(FileInfo{}, fmt.Errorf("%w: %v", ErrListFailed, err))
				return
			}
			for _, entry := range entries {
				if !emit(prefix+entry.Name(), entry.IsDir()) {
					return
				}
			}
			return
		}

		err := filepath.WalkDir(full, func(osPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if osPath == full {
				return nil
			}
			rel, err := filepath.Rel(full, osPath)
			if err != nil {
				return err
			}
			if !emit(prefix+filepath.ToSlash(rel), d.IsDir()) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(FileInfo{}, fmt.Errorf("%w: %v", ErrListFailed, err))
		}
	}
}

func (l *Local) GetFileInfo(ctx context.Context, p string) (FileInfo, error) {
	st, err := os.Stat(l.fullPath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return FileInfo{}, fmt.Errorf("filesystem: stat %s: %w", p, err)
	}
	if st.IsDir() {
		return FileInfo{Path: normalizeDir(p), Type: TypeDirectory, Size: ""}, nil
	}
	return FileInfo{Path: p, Type: TypeFile, Size: naturalSize(st.Size())}, nil
}

func (l *Local) CreateFile(_ context.Context, p string, r io.Reader) error {
	full := l.fullPath(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

func (l *Local) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(l.fullPath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("filesystem: stat %s: %w", p, err)
	}
	return true, nil
}

func (l *Local) IsDir(_ context.Context, p string) (bool, error) {
	if isRoot(p) {
		return true, nil
	}
	st, err := os.Stat(l.fullPath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("filesystem: stat %s: %w", p, err)
	}
	return st.IsDir(), nil
}

func (l *Local) Rename(ctx context.Context, p, newPath string) error {
	if err := renameGuard(ctx, l, p, l.predef); err != nil {
		return err
	}
	dst := l.fullPath(newPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("filesystem: rename %s: %w", p, err)
	}
	if err := os.Rename(l.fullPath(p), dst); err != nil {
		return fmt.Errorf("filesystem: rename %s: %w", p, err)
	}
	return nil
}

func (l *Local) Delete(ctx context.Context, p string, opts ...DeleteOption) error {
	cfg := newDeleteConfig(opts)
	exists, err := l.Exists(ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	isDir, err := l.IsDir(ctx, p)
	if err != nil {
		return err
	}
	if !isDir {
		if err := os.Remove(l.fullPath(p)); err != nil {
			return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
		}
		return nil
	}

	if err := os.RemoveAll(l.fullPath(p)); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return healAfterDelete(ctx, l, p, l.predef, cfg.reinitRoot)
}

func (l *Local) Download(ctx context.Context, p string) (*Download, error) {
	exists, err := l.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	isDir, err := l.IsDir(ctx, p)
	if err != nil {
		return nil, err
	}
	if isDir {
		return buildArchive(ctx, l, p, func(_ context.Context, fp string) (io.ReadCloser, error) {
			return os.Open(l.fullPath(fp))
		})
	}

	f, err := os.Open(l.fullPath(p))
	if err != nil {
		return nil, fmt.Errorf("filesystem: open %s: %w", p, err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Download{
		Body:        f,
		Filename:    lastSegment(p),
		ContentType: contentType,
	}, nil
}

// UploadRequest degrades to re-POSTing to this same service at the upload
// route; there is no store to presign against.
func (l *Local) UploadRequest(_ context.Context, _ string, origin *http.Request, urlSuffix, uploadSuffix string) (*HTTPRequest, error) {
	return rewriteRequest(origin, urlSuffix, uploadSuffix, http.MethodPost), nil
}

func (l *Local) DownloadRequest(ctx context.Context, p string, origin *http.Request, urlSuffix, downloadSuffix string) (*HTTPRequest, error) {
	exists, err := l.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return rewriteRequest(origin, urlSuffix, downloadSuffix, http.MethodGet), nil
}

// FullPathURI returns the absolute OS path; local job runners share the same
// filesystem, so the path itself is the URI.
func (l *Local) FullPathURI(p string) string {
	full := l.fullPath(p)
	if isDirPath(p) && !strings.HasSuffix(full, string(os.PathSeparator)) {
		full += string(os.PathSeparator)
	}
	return full
}

// Ensure Local implements FileSystem.
var _ FileSystem = (*Local)(nil)
