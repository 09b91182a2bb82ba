package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ries-lab/DECODE-Cloud-UserAPI/pkg/filesystem"
)

// uploadKinds are the storage areas users may write into directly.
// Results under output/ and log/ are produced by runners only.
var uploadKinds = map[string]bool{
	"config":   true,
	"data":     true,
	"artifact": true,
}

// userFilesystems hands out a storage view scoped to one user.
type userFilesystems interface {
	ForUser(ctx context.Context, userID string) (filesystem.FileSystem, error)
}

// filesHandler serves the /files endpoints.
type filesHandler struct {
	files  userFilesystems
	logger *slog.Logger
}

func (h *filesHandler) fs(w http.ResponseWriter, r *http.Request) (filesystem.FileSystem, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	fs, err := h.files.ForUser(r.Context(), user.ID)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return nil, false
	}
	return fs, true
}

// get dispatches GET /files/* on the path suffix: /download streams the
// file, /url returns presigned request parameters, anything else lists.
func (h *filesHandler) get(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	switch {
	case strings.HasSuffix(p, "/download"):
		h.download(w, r, strings.TrimSuffix(p, "/download"))
	case strings.HasSuffix(p, "/url"):
		h.downloadURL(w, r, strings.TrimSuffix(p, "/url"))
	default:
		h.list(w, r, p)
	}
}

func (h *filesHandler) list(w http.ResponseWriter, r *http.Request, p string) {
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	opts := []filesystem.ListOption{}
	if v, err := strconv.ParseBool(r.URL.Query().Get("show_dirs")); err == nil && !v {
		opts = append(opts, filesystem.FilesOnly())
	}
	if v, err := strconv.ParseBool(r.URL.Query().Get("recursive")); err == nil && v {
		opts = append(opts, filesystem.Recursive())
	}

	seq, err := fs.ListDirectory(r.Context(), p, opts...)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}

	infos := make([]filesystem.FileInfo, 0)
	for fi, err := range seq {
		if err != nil {
			respondFailure(w, r, h.logger, err)
			return
		}
		infos = append(infos, fi)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	respondJSON(w, http.StatusOK, infos)
}

func (h *filesHandler) download(w http.ResponseWriter, r *http.Request, p string) {
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	dl, err := fs.Download(r.Context(), p)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, dl.Body)
}

func (h *filesHandler) downloadURL(w http.ResponseWriter, r *http.Request, p string) {
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	req, err := fs.DownloadRequest(r.Context(), p, r, "/url", "/download")
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

// post dispatches POST /files/* on the path suffix: /upload receives the
// file body, /url returns presigned upload parameters, a trailing slash
// creates a directory.
func (h *filesHandler) post(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	switch {
	case strings.HasSuffix(p, "/upload"):
		h.upload(w, r, strings.TrimSuffix(p, "/upload"))
	case strings.HasSuffix(p, "/url"):
		h.uploadURL(w, r, strings.TrimSuffix(p, "/url"))
	case strings.HasSuffix(p, "/"):
		h.createDirectory(w, r, p)
	default:
		respondError(w, http.StatusNotFound, "not found")
	}
}

// checkUploadKind rejects writes outside the user-writable areas.
func checkUploadKind(w http.ResponseWriter, p string) bool {
	kind, _, _ := strings.Cut(p, "/")
	if !uploadKinds[kind] {
		respondError(w, http.StatusBadRequest, "path must start with one of config/, data/, artifact/")
		return false
	}
	return true
}

func (h *filesHandler) upload(w http.ResponseWriter, r *http.Request, base string) {
	if !checkUploadKind(w, base) {
		return
	}
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	name := path.Base(header.Filename)
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	filePath := path.Join(base, name)

	if err := fs.CreateFile(r.Context(), filePath, file); err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	info, err := fs.GetFileInfo(r.Context(), filePath)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (h *filesHandler) uploadURL(w http.ResponseWriter, r *http.Request, base string) {
	if !checkUploadKind(w, base) {
		return
	}
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	req, err := fs.UploadRequest(r.Context(), base, r, "/url", "/upload")
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (h *filesHandler) createDirectory(w http.ResponseWriter, r *http.Request, p string) {
	if !checkUploadKind(w, p) {
		return
	}
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	if err := fs.CreateDirectory(r.Context(), p); err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, nil)
}

type renameRequest struct {
	Path string `json:"path"`
}

func (h *filesHandler) rename(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		respondError(w, http.StatusBadRequest, "body must be {\"path\": \"new/path\"}")
		return
	}

	if err := fs.Rename(r.Context(), p, req.Path); err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	info, err := fs.GetFileInfo(r.Context(), req.Path)
	if err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *filesHandler) delete(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	fs, ok := h.fs(w, r)
	if !ok {
		return
	}

	if err := fs.Delete(r.Context(), p); err != nil {
		respondFailure(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
