package scans

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for malformed input, e.g. an upload without files.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned when a scan has no stored video.
	ErrNotFound = errors.New("scan not found or video missing")
)

// ToolError reports an abnormal termination of the frame-extraction tool.
type ToolError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("extraction tool exited with code %d: %v, stderr=%s", e.ExitCode, e.Err, e.Stderr)
	}
	return fmt.Sprintf("extraction tool exited with code %d: %v", e.ExitCode, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
