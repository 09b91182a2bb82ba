package filesystem

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for filesystem operations.
var (
	// Configuration errors.
	ErrInvalidConfig = errors.New("filesystem: invalid configuration")

	// Contract errors. The HTTP layer maps these to status codes
	// (NotFound -> 404, NotADirectory -> 404, IsDirectory -> 405).
	ErrNotFound      = errors.New("filesystem: path not found")
	ErrNotADirectory = errors.New("filesystem: not a directory")
	ErrIsDirectory   = errors.New("filesystem: operation not allowed on directory")

	// Backend operation errors.
	ErrUploadFailed  = errors.New("filesystem: upload failed")
	ErrDeleteFailed  = errors.New("filesystem: delete failed")
	ErrListFailed    = errors.New("filesystem: list failed")
	ErrPresignFailed = errors.New("filesystem: presign failed")
)

// wrapS3Error wraps S3 errors with appropriate sentinel errors.
// It checks both API error codes and typed errors.
// Note: Uses %v (not %w) for the original error to normalize error types -
// callers should use errors.Is() with sentinel errors, not errors.As() for AWS types.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}

	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
