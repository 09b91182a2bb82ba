package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/internal/handlers"
	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/filesystem"
)

type fixedFilesystems struct {
	fs filesystem.FileSystem
}

func (f fixedFilesystems) ForUser(context.Context, string) (filesystem.FileSystem, error) {
	return f.fs, nil
}

func newFilesRouter(t *testing.T) (http.Handler, filesystem.FileSystem) {
	t.Helper()

	fs := filesystem.NewLocal(t.TempDir(), filesystem.DefaultPredefinedDirs...)
	require.NoError(t, fs.Init(context.Background()))

	router := handlers.NewRouter(handlers.Deps{
		Files: fixedFilesystems{fs},
		Jobs:  &fakeJobService{},
	})
	return router, fs
}

func doRequest(t *testing.T, router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createFile(t *testing.T, fs filesystem.FileSystem, path, content string) {
	t.Helper()
	require.NoError(t, fs.CreateFile(context.Background(), path, strings.NewReader(content)))
}

func TestFiles_Unauthorized(t *testing.T) {
	t.Parallel()

	router, _ := newFilesRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/files/data/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFiles_List(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)
	createFile(t, fs, "data/test/a.txt", "aa")
	createFile(t, fs, "data/test/b.txt", "bb")

	t.Run("with directories", func(t *testing.T) {
		t.Parallel()

		rec := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/files/data/?recursive=true", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var infos []filesystem.FileInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
		paths := make([]string, 0, len(infos))
		for _, fi := range infos {
			paths = append(paths, fi.Path)
		}
		assert.Equal(t, []string{"data/test/", "data/test/a.txt", "data/test/b.txt"}, paths)
	})

	t.Run("files only", func(t *testing.T) {
		t.Parallel()

		rec := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/files/data/?recursive=true&show_dirs=false", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var infos []filesystem.FileInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
		assert.Len(t, infos, 2)
	})

	t.Run("not a directory", func(t *testing.T) {
		t.Parallel()

		rec := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/files/data/test/a.txt", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFiles_Upload(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "experiment.yaml")
	require.NoError(t, err)
	_, err = io.WriteString(part, "lr: 0.001\n")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files/config/sub/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := doRequest(t, router, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var info filesystem.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "config/sub/experiment.yaml", info.Path)

	exists, err := fs.Exists(context.Background(), "config/sub/experiment.yaml")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFiles_Upload_OutsideWritableArea(t *testing.T) {
	t.Parallel()

	router, _ := newFilesRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_, err := mw.CreateFormFile("file", "x.txt")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files/output/x/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := doRequest(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFiles_CreateDirectory(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)

	rec := doRequest(t, router, httptest.NewRequest(http.MethodPost, "/files/data/raw/", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	isDir, err := fs.IsDir(context.Background(), "data/raw/")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestFiles_Download(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)
	createFile(t, fs, "data/test/f1.txt", "data file1 contents\n")

	rec := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/files/data/test/f1.txt/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data file1 contents\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "f1.txt")

	rec = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/files/data/missing.txt/download", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiles_DownloadURL(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)
	createFile(t, fs, "data/test/f1.txt", "contents")

	rec := doRequest(t, router, httptest.NewRequest(http.MethodGet, "/files/data/test/f1.txt/url", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var hr filesystem.HTTPRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hr))
	assert.Equal(t, http.MethodGet, hr.Method)
	assert.Contains(t, hr.URL, "/files/data/test/f1.txt/download")

	rec = doRequest(t, router, httptest.NewRequest(http.MethodGet, "/files/data/missing.txt/url", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiles_UploadURL(t *testing.T) {
	t.Parallel()

	router, _ := newFilesRouter(t)

	rec := doRequest(t, router, httptest.NewRequest(http.MethodPost, "/files/config/url", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var hr filesystem.HTTPRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hr))
	assert.Equal(t, http.MethodPost, hr.Method)
	assert.Contains(t, hr.URL, "/files/config/upload")
}

func TestFiles_Rename(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)
	createFile(t, fs, "data/test/f1.txt", "data file1 contents\n")

	body := strings.NewReader(`{"path": "data/test/f2.txt"}`)
	rec := doRequest(t, router, httptest.NewRequest(http.MethodPut, "/files/data/test/f1.txt", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var info filesystem.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "data/test/f2.txt", info.Path)
	assert.Equal(t, "20 Bytes", info.Size)

	exists, err := fs.Exists(context.Background(), "data/test/f1.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFiles_Rename_Guards(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)
	createFile(t, fs, "data/test/f1.txt", "contents")

	// Missing source.
	body := strings.NewReader(`{"path": "data/f2.txt"}`)
	rec := doRequest(t, router, httptest.NewRequest(http.MethodPut, "/files/data/missing.txt", body))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Predefined directories cannot be renamed away.
	body = strings.NewReader(`{"path": "stuff/"}`)
	rec = doRequest(t, router, httptest.NewRequest(http.MethodPut, "/files/data/", body))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	// Neither can non-empty directories.
	body = strings.NewReader(`{"path": "data/other/"}`)
	rec = doRequest(t, router, httptest.NewRequest(http.MethodPut, "/files/data/test/", body))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFiles_Delete(t *testing.T) {
	t.Parallel()

	router, fs := newFilesRouter(t)
	createFile(t, fs, "data/test/f1.txt", "contents")

	rec := doRequest(t, router, httptest.NewRequest(http.MethodDelete, "/files/data/test/f1.txt", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	exists, err := fs.Exists(context.Background(), "data/test/f1.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a predefined directory clears and recreates it.
	createFile(t, fs, "config/c.yaml", "x")
	rec = doRequest(t, router, httptest.NewRequest(http.MethodDelete, "/files/config/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	isDir, err := fs.IsDir(context.Background(), "config/")
	require.NoError(t, err)
	assert.True(t, isDir)
	exists, err = fs.Exists(context.Background(), "config/c.yaml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoot_Welcome(t *testing.T) {
	t.Parallel()

	router, _ := newFilesRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "DECODE OpenCloud")
}

func TestHealth_Live(t *testing.T) {
	t.Parallel()

	router, _ := newFilesRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
