package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// deleteBatchSize is the S3 hard limit for one DeleteObjects call.
const deleteBatchSize = 1000

// S3 implements FileSystem over a flat, prefix-addressed object namespace.
// A directory exists iff at least one key carries its path as prefix;
// CreateDirectory still writes a zero-byte marker object so empty
// directories stay observable before any file lands in them.
type S3 struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	root      string
	predef    []string
}

// NewS3 creates an S3 filesystem scoped to root inside bucket. The instance
// is not initialized; the factory calls Init after construction.
func NewS3(client *s3.Client, presigner *s3.PresignClient, bucket, root string, predef ...string) *S3 {
	return &S3{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		root:      strings.TrimSuffix(root, "/"),
		predef:    predef,
	}
}

// fullPath resolves a logical path to an object key, preserving the
// trailing-slash directory notation.
func (s *S3) fullPath(p string) string {
	full := s.root
	if rel := trimSlashes(p); rel != "" {
		full += "/" + rel
	}
	if isDirPath(p) {
		full += "/"
	}
	return full
}

// relPath converts an object key back to a logical path.
func (s *S3) relPath(key string) string {
	return strings.TrimPrefix(key, s.root+"/")
}

func (s *S3) Init(ctx context.Context) error {
	return initTree(ctx, s, s.predef)
}

// CreateDirectory writes the zero-byte directory marker object.
func (s *S3) CreateDirectory(ctx context.Context, p string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(normalizeDir(p))),
	})
	if err != nil {
		return wrapS3Error(err, ErrUploadFailed)
	}
	return nil
}

func (s *S3) ListDirectory(ctx context.Context, p string, opts ...ListOption) (Seq, error) {
	cfg := newListConfig(opts)
	norm, err := listGuard(ctx, s, p)
	if err != nil {
		return nil, err
	}
	return func(yield func(FileInfo, error) bool) {
		s.walkPrefix(ctx, norm, cfg, yield)
	}, nil
}

// walkPrefix pages through one delimiter-grouped listing level and, for
// recursive listings, descends into each discovered common prefix with a
// fresh backend call. Returns false once the consumer stops.
func (s *S3) walkPrefix(ctx context.Context, dir string, cfg listConfig, yield func(FileInfo, error) bool) bool {
	full := s.fullPath(dir)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(full),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			yield(FileInfo{}, wrapS3Error(err, ErrListFailed))
			return false
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			// The marker object whose key equals the queried prefix is the
			// directory itself, not a child.
			if key == full {
				continue
			}
			fi := FileInfo{Path: s.relPath(key), Type: TypeFile, Size: naturalSize(aws.ToInt64(obj.Size))}
			if !yield(fi, nil) {
				return false
			}
		}

		for _, cp := range page.CommonPrefixes {
			dirPath := s.relPath(aws.ToString(cp.Prefix))
			if cfg.includeDirs {
				if !yield(FileInfo{Path: dirPath, Type: TypeDirectory, Size: ""}, nil) {
					return false
				}
			}
			if cfg.recursive {
				if !s.walkPrefix(ctx, dirPath, cfg, yield) {
					return false
				}
			}
		}
	}
	return true
}

func (s *S3) GetFileInfo(ctx context.Context, p string) (FileInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
	})
	if err != nil {
		return FileInfo{}, wrapS3Error(err, ErrNotFound)
	}
	return FileInfo{Path: p, Type: TypeFile, Size: naturalSize(aws.ToInt64(out.ContentLength))}, nil
}

func (s *S3) CreateFile(ctx context.Context, p string, r io.Reader) error {
	// PutObject needs a seekable body for signing; buffer when the caller's
	// reader is not one.
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		body = bytes.NewReader(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
		Body:   body,
	})
	if err != nil {
		return wrapS3Error(err, ErrUploadFailed)
	}
	return nil
}

// Exists reports whether any object carries p's full path as prefix.
// No marker object is required for the check.
func (s *S3) Exists(ctx context.Context, p string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.fullPath(p)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, wrapS3Error(err, ErrListFailed)
	}
	return len(out.Contents) > 0, nil
}

func (s *S3) IsDir(ctx context.Context, p string) (bool, error) {
	if isRoot(p) {
		return true, nil
	}
	if !strings.HasSuffix(p, "/") {
		return false, nil
	}
	return s.Exists(ctx, p)
}

// Rename copies then deletes; the store has no atomic rename. The contract
// guard guarantees only single objects (files or empty-directory markers)
// reach this point.
func (s *S3) Rename(ctx context.Context, p, newPath string) error {
	if err := renameGuard(ctx, s, p, s.predef); err != nil {
		return err
	}
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.fullPath(newPath)),
		CopySource: aws.String(s.bucket + "/" + s.fullPath(p)),
	})
	if err != nil {
		return wrapS3Error(err, ErrUploadFailed)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

func (s *S3) Delete(ctx context.Context, p string, opts ...DeleteOption) error {
	cfg := newDeleteConfig(opts)
	exists, err := s.Exists(ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	isDir, err := s.IsDir(ctx, p)
	if err != nil {
		return err
	}
	if !isDir {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.fullPath(p)),
		})
		if err != nil {
			return wrapS3Error(err, ErrDeleteFailed)
		}
		return nil
	}

	if err := s.deletePrefix(ctx, p); err != nil {
		return err
	}
	return healAfterDelete(ctx, s, p, s.predef, cfg.reinitRoot)
}

// deletePrefix removes every key under the directory's prefix with batched
// DeleteObjects calls. No recursion: the namespace is flat.
func (s *S3) deletePrefix(ctx context.Context, p string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.fullPath(normalizeDir(p))),
	})

	var batch []types.ObjectIdentifier
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		batch = batch[:0]
		if err != nil {
			return wrapS3Error(err, ErrDeleteFailed)
		}
		return nil
	}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return wrapS3Error(err, ErrListFailed)
		}
		for _, obj := range page.Contents {
			batch = append(batch, types.ObjectIdentifier{Key: obj.Key})
			if len(batch) == deleteBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func (s *S3) Download(ctx context.Context, p string) (*Download, error) {
	exists, err := s.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	isDir, err := s.IsDir(ctx, p)
	if err != nil {
		return nil, err
	}
	if isDir {
		return buildArchive(ctx, s, p, s.openObject)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}
	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Download{
		Body:        out.Body,
		Filename:    lastSegment(p),
		ContentType: contentType,
	}, nil
}

func (s *S3) openObject(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}
	return out.Body, nil
}

// UploadRequest presigns a POST scoped to the directory's key prefix. The
// client substitutes the filename at upload time, so one generated request
// template serves multiple uploads into the same directory.
func (s *S3) UploadRequest(ctx context.Context, p string, _ *http.Request, _, _ string) (*HTTPRequest, error) {
	prefix := s.fullPath(normalizeDir(p))
	post, err := s.presigner.PresignPostObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(prefix + "${filename}"),
	}, func(o *s3.PresignPostOptions) {
		o.Expires = PresignExpiry
		o.Conditions = []interface{}{
			[]string{"starts-with", "$key", prefix},
		}
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrPresignFailed)
	}
	return &HTTPRequest{Method: http.MethodPost, URL: post.URL, Fields: post.Values}, nil
}

func (s *S3) DownloadRequest(ctx context.Context, p string, _ *http.Request, _, _ string) (*HTTPRequest, error) {
	exists, err := s.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullPath(p)),
	}, func(o *s3.PresignOptions) {
		o.Expires = PresignExpiry
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrPresignFailed)
	}
	return &HTTPRequest{Method: http.MethodGet, URL: req.URL}, nil
}

// FullPathURI returns the object's s3:// URI so external job runners can
// address it with their own credentials.
func (s *S3) FullPathURI(p string) string {
	return "s3://" + s.bucket + "/" + s.fullPath(p)
}

// Ensure S3 implements FileSystem.
var _ FileSystem = (*S3)(nil)
