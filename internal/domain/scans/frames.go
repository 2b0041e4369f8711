package scans

import (
	"path/filepath"
	"regexp"
)

// FrameFilePattern is the printf-style output name handed to the extraction tool.
const FrameFilePattern = "frame_%03d.jpg"

// frame_001.jpg, frame_042.jpg ... frame_1200.jpg (the tool widens past 999)
var rxFrameName = regexp.MustCompile(`^frame_[0-9]{3,}\.jpg$`)

var rxScanID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// IsFrameFile reports whether the base name of path looks like an extracted frame.
func IsFrameFile(path string) bool {
	return rxFrameName.MatchString(filepath.Base(path))
}

// CountFrames counts the entries of paths that are extracted frame files.
func CountFrames(paths []string) int {
	n := 0
	for _, p := range paths {
		if IsFrameFile(p) {
			n++
		}
	}
	return n
}

// ValidID reports whether id is safe to use as a single path component.
func ValidID(id ScanID) bool {
	return rxScanID.MatchString(string(id))
}
