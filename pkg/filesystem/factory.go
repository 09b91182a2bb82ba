package filesystem

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Kind selects the storage backend.
type Kind string

const (
	KindLocal Kind = "local"
	KindS3    Kind = "s3"
)

// DefaultPredefinedDirs are the top-level directories present in every
// user's tree: the upload kinds (config, data, artifact) plus the output
// kinds (output, log). They match the job layer's path conventions.
var DefaultPredefinedDirs = []string{"config", "data", "artifact", "output", "log"}

// Config holds backend selection and connection parameters.
type Config struct {
	// Kind is the backend to use: "local" or "s3".
	Kind Kind `env:"FILESYSTEM" envDefault:"local"`

	// UserDataRoot is the directory (or key prefix) all users' roots live under.
	UserDataRoot string `env:"USER_DATA_ROOT_PATH" envDefault:"/data"`

	// Bucket is the S3 bucket name (required for the s3 backend).
	Bucket string `env:"S3_BUCKET"`

	// Region is the AWS region.
	Region string `env:"S3_REGION" envDefault:"eu-central-1"`

	// AccessKey/SecretKey are static credentials. When empty, the default
	// AWS credential chain is used.
	AccessKey string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// Endpoint is a custom S3 endpoint URL (for MinIO or other
	// S3-compatible services).
	Endpoint string `env:"S3_ENDPOINT"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"S3_PATH_STYLE"`
}

func (c *Config) validate() error {
	switch c.Kind {
	case KindLocal:
	case KindS3:
		if c.Bucket == "" {
			return fmt.Errorf("%w: bucket required for s3 backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend kind %q", ErrInvalidConfig, c.Kind)
	}
	return nil
}

// Factory derives root-scoped FileSystem instances from global
// configuration. Distinct users get distinct instances with disjoint roots.
type Factory struct {
	cfg       Config
	client    *s3.Client
	presigner *s3.PresignClient
	predef    []string
}

// FactoryOption configures the factory.
type FactoryOption func(*Factory)

// WithPredefinedDirs overrides the predefined top-level directory set.
func WithPredefinedDirs(dirs ...string) FactoryOption {
	return func(f *Factory) {
		f.predef = dirs
	}
}

// NewFactory validates cfg and, for the s3 backend, builds the shared client
// and presigner once; per-user instances reuse them.
func NewFactory(ctx context.Context, cfg Config, opts ...FactoryOption) (*Factory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	f := &Factory{cfg: cfg, predef: DefaultPredefinedDirs}
	for _, opt := range opts {
		opt(f)
	}

	if cfg.Kind == KindS3 {
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		f.client = client
		f.presigner = s3.NewPresignClient(client)
	}
	return f, nil
}

// S3Client exposes the shared client for collaborators that read from the
// same object store, such as the application catalog loader. It is nil for
// the local backend.
func (f *Factory) S3Client() *s3.Client {
	return f.client
}

// ForUser returns an initialized FileSystem rooted at the user's private
// subtree. The user identifier is sanitized so no instance can observe
// another user's tree.
func (f *Factory) ForUser(ctx context.Context, userID string) (FileSystem, error) {
	return f.WithRoot(ctx, path.Join(f.cfg.UserDataRoot, sanitizeSegment(userID)))
}

// WithRoot returns an initialized FileSystem with the given root.
func (f *Factory) WithRoot(ctx context.Context, root string) (FileSystem, error) {
	var fsys FileSystem
	switch f.cfg.Kind {
	case KindS3:
		fsys = NewS3(f.client, f.presigner, f.cfg.Bucket, root, f.predef...)
	default:
		fsys = NewLocal(root, f.predef...)
	}
	if err := fsys.Init(ctx); err != nil {
		return nil, err
	}
	return fsys, nil
}

func newS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	opts := []func(*s3.Options){}
	if cfg.AccessKey != "" {
		opts = append(opts, func(o *s3.Options) {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		})
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}
