package scans

import (
	"context"
	"io"
)

// VideoStore port (penyimpanan video + folder frame per scan)
type VideoStore interface {
	// SaveVideo persists r as the scan's single video, replacing any previous one.
	SaveVideo(ctx context.Context, id ScanID, r io.Reader) (int64, error)
	// VideoPath returns a local path to the scan's video, or ErrNotFound.
	VideoPath(ctx context.Context, id ScanID) (string, error)
	// ResetFrames deletes and recreates the scan's frame directory and returns it.
	ResetFrames(ctx context.Context, id ScanID) (string, error)
	// ListFrames returns the frame files currently in the scan's frame directory.
	ListFrames(ctx context.Context, id ScanID) ([]string, error)
}

// FrameExtractor port (interface untuk tool ekstraksi frame)
type FrameExtractor interface {
	Probe(ctx context.Context) bool
	Extract(ctx context.Context, videoPath, outDir string, fps int) (int, error)
}

// Repository port (riwayat lifecycle scan)
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id ScanID) (*Record, error)
	Latest(ctx context.Context, limit int) ([]*Record, error)
}

// EventPublisher port untuk notifikasi scan selesai
type EventPublisher interface {
	PublishCompleted(ctx context.Context, ev CompletedEvent) error
}

// CompletedEvent is published after a scan completes.
type CompletedEvent struct {
	ScanID          ScanID `json:"scan_id"`
	FramesExtracted int    `json:"frames_extracted"`
	ToolAvailable   bool   `json:"tool_available"`
	Error           string `json:"error,omitempty"`
	CompletedAt     string `json:"completed_at"`
}
