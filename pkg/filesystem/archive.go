package filesystem

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// buildArchive zips every descendant file of dirPath into an in-memory
// deflate archive, with entry names relative to dirPath. The whole archive
// is buffered before returning; streaming while building is intentionally
// not supported.
func buildArchive(ctx context.Context, fsys FileSystem, dirPath string, open func(context.Context, string) (io.ReadCloser, error)) (*Download, error) {
	seq, err := fsys.ListDirectory(ctx, dirPath, FilesOnly(), Recursive())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for fi, iterErr := range seq {
		if iterErr != nil {
			return nil, iterErr
		}
		w, err := zw.Create(relativeTo(fi.Path, dirPath))
		if err != nil {
			return nil, fmt.Errorf("filesystem: archive entry %s: %w", fi.Path, err)
		}
		rc, err := open(ctx, fi.Path)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			return nil, fmt.Errorf("filesystem: archive entry %s: %w", fi.Path, err)
		}
		if err := rc.Close(); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("filesystem: finalize archive: %w", err)
	}

	return &Download{
		Body:        io.NopCloser(bytes.NewReader(buf.Bytes())),
		Filename:    lastSegment(dirPath) + ".zip",
		ContentType: "application/zip",
		IsArchive:   true,
	}, nil
}

// rewriteRequest points the client back at this service: the origin
// request's URL has urlSuffix swapped for replacement, and the caller's
// Authorization header is carried over so the follow-up request passes the
// same auth gate.
func rewriteRequest(origin *http.Request, urlSuffix, replacement, method string) *HTTPRequest {
	u := *origin.URL
	u.Path = strings.TrimSuffix(u.Path, urlSuffix) + replacement
	if u.Host == "" {
		u.Host = origin.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		if origin.TLS != nil {
			u.Scheme = "https"
		}
	}

	req := &HTTPRequest{Method: method, URL: u.String()}
	if auth := origin.Header.Get("Authorization"); auth != "" {
		req.Headers = map[string]string{"Authorization": auth}
	}
	return req
}
