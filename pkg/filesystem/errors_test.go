package filesystem

import (
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

func TestWrapS3Error(t *testing.T) {
	t.Parallel()

	t.Run("NoSuchKey maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		err := wrapS3Error(&smithy.GenericAPIError{Code: "NoSuchKey", Message: "gone"}, ErrListFailed)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NotFound maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		err := wrapS3Error(&smithy.GenericAPIError{Code: "NotFound", Message: "head miss"}, ErrNotFound)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other errors keep the fallback", func(t *testing.T) {
		t.Parallel()
		err := wrapS3Error(errors.New("connection reset"), ErrDeleteFailed)
		require.ErrorIs(t, err, ErrDeleteFailed)
		require.NotErrorIs(t, err, ErrNotFound)
	})
}
