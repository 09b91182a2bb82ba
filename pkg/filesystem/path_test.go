package filesystem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"data", "data/"},
		{"data/", "data/"},
		{"data/test", "data/test/"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, normalizeDir(tt.in), "normalizeDir(%q)", tt.in)
	}
}

func TestPathClassification(t *testing.T) {
	t.Parallel()

	require.True(t, isRoot(""))
	require.True(t, isRoot("/"))
	require.False(t, isRoot("data/"))

	require.True(t, isDirPath("data/"))
	require.True(t, isDirPath("/"))
	require.False(t, isDirPath("data/file.txt"))
}

func TestLastSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"data/test/", "test"},
		{"data/test/f1.txt", "f1.txt"},
		{"config", "config"},
		{"/config/", "config"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, lastSegment(tt.in), "lastSegment(%q)", tt.in)
	}
}

func TestRelativeTo(t *testing.T) {
	t.Parallel()

	require.Equal(t, "test/a.txt", relativeTo("data/test/a.txt", "data/"))
	require.Equal(t, "a.txt", relativeTo("data/test/a.txt", "data/test"))
	require.Equal(t, "data/test/a.txt", relativeTo("data/test/a.txt", "/"))
}

func TestIsPredefined(t *testing.T) {
	t.Parallel()

	predef := DefaultPredefinedDirs
	require.True(t, isPredefined("config/", predef))
	require.True(t, isPredefined("/output", predef))
	require.False(t, isPredefined("config/sub/", predef))
	require.False(t, isPredefined("other/", predef))
}

func TestSanitizeSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"user-123", "user-123"},
		{"../escape", "_escape"},
		{"a/b", "a_b"},
		{"weird name!", "weird_name_"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, sanitizeSegment(tt.in), "sanitizeSegment(%q)", tt.in)
	}
}

func TestNaturalSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Byte"},
		{20, "20 Bytes"},
		{999, "999 Bytes"},
		{1000, "1.0 kB"},
		{1500, "1.5 kB"},
		{999999, "1000.0 kB"},
		{1000000, "1.0 MB"},
		{2500000000, "2.5 GB"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, naturalSize(tt.n), "naturalSize(%d)", tt.n)
	}
}
