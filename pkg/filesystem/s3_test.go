package filesystem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestS3_FullPath(t *testing.T) {
	t.Parallel()

	s := NewS3(nil, nil, "decode-cloud", "/data/user1")

	tests := []struct {
		in   string
		want string
	}{
		{"", "/data/user1/"},
		{"/", "/data/user1/"},
		{"data/", "/data/user1/data/"},
		{"data/test/f1.txt", "/data/user1/data/test/f1.txt"},
		{"/data/test/f1.txt", "/data/user1/data/test/f1.txt"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, s.fullPath(tt.in), "fullPath(%q)", tt.in)
	}
}

func TestS3_RelPath(t *testing.T) {
	t.Parallel()

	s := NewS3(nil, nil, "decode-cloud", "/data/user1")

	require.Equal(t, "data/test/f1.txt", s.relPath("/data/user1/data/test/f1.txt"))
	require.Equal(t, "data/test/", s.relPath("/data/user1/data/test/"))
}

func TestS3_FullPathURI(t *testing.T) {
	t.Parallel()

	s := NewS3(nil, nil, "decode-cloud", "/data/user1")

	require.Equal(t, "s3://decode-cloud//data/user1/output/job1/", s.FullPathURI("output/job1/"))
	require.Equal(t, "s3://decode-cloud//data/user1/config/c1", s.FullPathURI("config/c1"))
}

// Path classification that needs no backend round-trip: a path without a
// trailing slash can never be a directory on the flat backend, and the root
// always is one.
func TestS3_IsDirShortCircuits(t *testing.T) {
	t.Parallel()

	s := NewS3(nil, nil, "decode-cloud", "/data/user1")
	ctx := context.Background()

	isDir, err := s.IsDir(ctx, "")
	require.NoError(t, err)
	require.True(t, isDir)

	isDir, err = s.IsDir(ctx, "/")
	require.NoError(t, err)
	require.True(t, isDir)

	isDir, err = s.IsDir(ctx, "data/test/f1.txt")
	require.NoError(t, err)
	require.False(t, isDir)
}
