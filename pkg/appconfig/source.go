package appconfig

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"
)

// source abstracts where the catalog file lives.
type source interface {
	read(ctx context.Context) (Config, error)
	lastModified(ctx context.Context) (time.Time, error)
}

type localSource struct {
	path string
}

func (s localSource) read(_ context.Context) (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return parse(data)
}

func (s localSource) lastModified(_ context.Context) (time.Time, error) {
	st, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return st.ModTime(), nil
}

type s3Source struct {
	client *s3.Client
	bucket string
	key    string
}

func newS3Source(path string, client *s3.Client) (*s3Source, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(path, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, path)
	}
	return &s3Source{client: client, bucket: bucket, key: key}, nil
}

func (s *s3Source) read(ctx context.Context) (Config, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return parse(data)
}

func (s *s3Source) lastModified(ctx context.Context) (time.Time, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return aws.ToTime(out.LastModified), nil
}

func parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
	}
	return cfg, nil
}
