package filesystem

import (
	"fmt"
	"math"
)

// FileType discriminates files from directories in listings.
type FileType string

const (
	TypeFile      FileType = "file"
	TypeDirectory FileType = "directory"
)

// FileInfo describes one entry of a user's storage tree.
// Directory paths always carry a trailing slash and an empty size;
// file sizes are rendered human-readable (e.g. "20 Bytes", "1.5 kB").
// The rendered form is part of the persisted interop contract, so two
// FileInfo values are comparable field by field.
type FileInfo struct {
	Path string   `json:"path"`
	Type FileType `json:"type"`
	Size string   `json:"size"`
}

// IsDir reports whether the entry describes a directory.
func (fi FileInfo) IsDir() bool {
	return fi.Type == TypeDirectory
}

// sizeSuffixes are decimal (base 1000) unit suffixes.
var sizeSuffixes = []string{"kB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// naturalSize renders a byte count the way clients expect it on the wire:
// "1 Byte", "20 Bytes", "1.0 kB", "999.5 MB". Decimal units, one fractional
// digit above 1000 bytes.
func naturalSize(n int64) string {
	const base = 1000.0
	if n == 1 {
		return "1 Byte"
	}
	f := float64(n)
	if f < base {
		return fmt.Sprintf("%d Bytes", n)
	}
	for i, suffix := range sizeSuffixes {
		unit := math.Pow(base, float64(i+2))
		if f < unit {
			return fmt.Sprintf("%.1f %s", base*f/unit, suffix)
		}
	}
	return fmt.Sprintf("%.1f %s", base*f/math.Pow(base, float64(len(sizeSuffixes)+1)), sizeSuffixes[len(sizeSuffixes)-1])
}
