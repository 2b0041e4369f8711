package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Completion outcomes, used as the "outcome" label.
const (
	OutcomeExtracted       = "extracted"
	OutcomeToolUnavailable = "tool_unavailable"
	OutcomeToolFailed      = "tool_failed"
	OutcomeStorageError    = "storage_error"
)

var (
	ScansStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelfsnap_scans_started_total",
		Help: "Total number of scan ids issued",
	})

	VideosUploadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelfsnap_videos_uploaded_total",
		Help: "Total number of videos stored",
	})

	UploadedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelfsnap_uploaded_bytes_total",
		Help: "Total bytes of video stored",
	})

	ScansCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfsnap_scans_completed_total",
		Help: "Total number of scan completions, by outcome",
	}, []string{"outcome"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shelfsnap_frames_extracted_total",
		Help: "Total number of frames extracted across all scans",
	})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shelfsnap_extraction_duration_seconds",
		Help:    "Duration of the frame extraction step",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	})
)
