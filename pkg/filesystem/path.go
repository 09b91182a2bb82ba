package filesystem

import (
	"net/url"
	"regexp"
	"strings"
)

// Logical paths are slash-separated and relative to a per-user root.
// A trailing slash marks a directory, its absence a file. All classification
// lives here so the backends never scatter ad hoc suffix checks.

// isRoot reports whether p addresses the logical root of the tree.
func isRoot(p string) bool {
	return p == "" || p == "/"
}

// isDirPath reports whether p is written in directory notation.
func isDirPath(p string) bool {
	return isRoot(p) || strings.HasSuffix(p, "/")
}

// normalizeDir coerces p into directory notation. The root normalizes to "/".
func normalizeDir(p string) string {
	if isRoot(p) {
		return "/"
	}
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// trimSlashes strips leading and trailing slashes, yielding the bare name
// used for predefined-directory comparisons.
func trimSlashes(p string) string {
	return strings.Trim(p, "/")
}

// lastSegment returns the final path element of p, ignoring a trailing slash.
// Used to derive suggested archive filenames.
func lastSegment(p string) string {
	trimmed := trimSlashes(p)
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// parentDir returns the directory portion of a file path, in directory
// notation ("/" for top-level files).
func parentDir(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i+1]
	}
	return "/"
}

// childPrefix converts a normalized directory path into the prefix child
// entries are joined onto. The root contributes no prefix.
func childPrefix(dir string) string {
	if dir == "/" {
		return ""
	}
	return dir
}

// relativeTo strips the directory prefix from a descendant path, producing
// archive-entry names relative to the downloaded directory.
func relativeTo(p, dir string) string {
	return strings.TrimPrefix(p, childPrefix(normalizeDir(dir)))
}

// isPredefined reports whether p names one of the fixed top-level
// directories that must always exist and can never be renamed away.
func isPredefined(p string, predef []string) bool {
	name := trimSlashes(p)
	for _, d := range predef {
		if name == d {
			return true
		}
	}
	return false
}

// pathSegmentRegex matches characters that are not safe for path segments.
var pathSegmentRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeSegment removes potentially dangerous characters from a single
// path segment. This keeps user identifiers from escaping their subtree.
func sanitizeSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	segment = pathSegmentRegex.ReplaceAllString(segment, "_")
	return url.PathEscape(segment)
}
