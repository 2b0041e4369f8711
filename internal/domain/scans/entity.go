package scans

import (
	"time"
)

// ID tipe untuk Scan
type ScanID string

// Status enum (riwayat scan saja, tidak dipakai saat complete)
type Status string

const (
	StatusStarted   Status = "started"
	StatusUploaded  Status = "uploaded"
	StatusCompleted Status = "completed"
)

// FramesPerSecond is the sampling rate requested from the extraction tool.
const FramesPerSecond = 4

// InventoryItem value object. Only a response shape; nothing is derived from
// the video content.
type InventoryItem struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Include    bool    `json:"include"`
}

// Result is the transient outcome of completing a scan. It is never stored.
type Result struct {
	ScanID          ScanID          `json:"scan_id"`
	Inventory       []InventoryItem `json:"inventory"`
	Recipes         []any           `json:"recipes"`
	Gaps            []any           `json:"gaps"`
	FramesExtracted int             `json:"frames_extracted"`
}

// NewResult builds a Result with the placeholder inventory and non-nil empty
// recipes and gaps, so they encode as [] rather than null.
func NewResult(id ScanID, frames int) Result {
	return Result{
		ScanID:          id,
		Inventory:       PlaceholderInventory(),
		Recipes:         []any{},
		Gaps:            []any{},
		FramesExtracted: frames,
	}
}

// UploadAck acknowledges an ingested video.
type UploadAck struct {
	OK             bool `json:"ok"`
	FramesReceived int  `json:"frames_received"`
}

// Record is the audit trail of one scan's lifecycle.
type Record struct {
	ID              ScanID    `json:"id"`
	Status          Status    `json:"status"`
	VideoBytes      int64     `json:"video_bytes"`
	FramesExtracted int       `json:"frames_extracted"`
	ToolAvailable   bool      `json:"tool_available"`
	LastError       string    `json:"last_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
