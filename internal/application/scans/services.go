package scans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/bryanwahyu/shelfsnap/internal/application"
	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
	"github.com/bryanwahyu/shelfsnap/internal/infra/metrics"
)

// Service implements use-cases untuk Scan.
// Service is safe for concurrent use; calls for the same scan id are serialized.
type Service struct {
	Store     domain.VideoStore
	Extractor domain.FrameExtractor
	Repo      domain.Repository
	Events    domain.EventPublisher // opsional
	Clock     application.Clock
	Logger    *zap.Logger
	FPS       int

	locks scanLocks
}

// Opener opens one uploaded file. Only the first opener of an upload is used.
type Opener func() (io.ReadCloser, error)

var tracer = otel.Tracer("github.com/bryanwahyu/shelfsnap/internal/application/scans")

//
// ==== USE CASES ====
//

// Start allocates a new scan id. No storage is created yet.
func (s *Service) Start(ctx context.Context) domain.ScanID {
	id := domain.ScanID(uuid.NewString())
	metrics.ScansStartedTotal.Inc()

	s.record(ctx, id, func(r *domain.Record) {
		r.Status = domain.StatusStarted
	})
	return id
}

// Upload simpan file pertama sebagai video scan (overwrite), file lain diabaikan
func (s *Service) Upload(ctx context.Context, id domain.ScanID, files []Opener) (domain.UploadAck, error) {
	if !domain.ValidID(id) {
		return domain.UploadAck{}, fmt.Errorf("%w: invalid scan_id %q", domain.ErrInvalidRequest, id)
	}
	if len(files) == 0 {
		return domain.UploadAck{}, fmt.Errorf("%w: no file provided", domain.ErrInvalidRequest)
	}

	unlock := s.locks.lock(id)
	defer unlock()

	rc, err := files[0]()
	if err != nil {
		return domain.UploadAck{}, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	n, err := s.Store.SaveVideo(ctx, id, rc)
	if err != nil {
		return domain.UploadAck{}, fmt.Errorf("save video: %w", err)
	}
	metrics.VideosUploadedTotal.Inc()
	metrics.UploadedBytesTotal.Add(float64(n))

	s.logger().Info("video stored",
		zap.String("scan_id", string(id)),
		zap.Int64("bytes", n),
		zap.Int("files_ignored", len(files)-1),
	)
	s.record(ctx, id, func(r *domain.Record) {
		r.Status = domain.StatusUploaded
		r.VideoBytes = n
	})

	return domain.UploadAck{OK: true, FramesReceived: 1}, nil
}

// Complete reset folder frame, jalankan ffmpeg, hitung frame, lalu balikin
// inventory placeholder. Kegagalan tool/filesystem jadi 0 frame, bukan error.
func (s *Service) Complete(ctx context.Context, id domain.ScanID) (domain.Result, error) {
	if err := lookupID(id); err != nil {
		return domain.Result{}, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	ctx, span := tracer.Start(ctx, "scans.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("scan.id", string(id)))

	videoPath, err := s.Store.VideoPath(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Result{}, err
		}
		return domain.Result{}, fmt.Errorf("locate video: %w", err)
	}

	start := time.Now()
	frames, toolOK, outcome, extractErr := s.extract(ctx, id, videoPath)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	metrics.ScansCompletedTotal.WithLabelValues(outcome).Inc()
	metrics.FramesExtractedTotal.Add(float64(frames))

	span.SetAttributes(
		attribute.Int("scan.frames", frames),
		attribute.Bool("scan.tool_available", toolOK),
		attribute.String("scan.outcome", outcome),
	)

	var lastErr string
	if extractErr != nil {
		lastErr = extractErr.Error()
	}
	s.record(ctx, id, func(r *domain.Record) {
		r.Status = domain.StatusCompleted
		r.FramesExtracted = frames
		r.ToolAvailable = toolOK
		r.LastError = lastErr
	})
	s.publish(ctx, domain.CompletedEvent{
		ScanID:          id,
		FramesExtracted: frames,
		ToolAvailable:   toolOK,
		Error:           lastErr,
		CompletedAt:     s.now().Format(time.RFC3339),
	})

	return domain.NewResult(id, frames), nil
}

// extract runs steps reset → probe → ffmpeg → count. A tool failure
// short-circuits to zero frames instead of counting whatever is on disk.
func (s *Service) extract(ctx context.Context, id domain.ScanID, videoPath string) (int, bool, string, error) {
	log := s.logger().With(zap.String("scan_id", string(id)))

	dir, err := s.Store.ResetFrames(ctx, id)
	if err != nil {
		log.Warn("reset frames failed, returning zero frames", zap.Error(err))
		return 0, false, metrics.OutcomeStorageError, err
	}

	if !s.Extractor.Probe(ctx) {
		log.Warn("ffmpeg not available, returning zero frames")
		return 0, false, metrics.OutcomeToolUnavailable, nil
	}

	ctx, span := tracer.Start(ctx, "ffmpeg.Extract")
	reported, err := s.Extractor.Extract(ctx, videoPath, dir, s.fps())
	span.End()
	if err != nil {
		log.Warn("frame extraction failed, returning zero frames", zap.Error(err))
		return 0, true, metrics.OutcomeToolFailed, err
	}

	paths, err := s.Store.ListFrames(ctx, id)
	if err != nil {
		log.Warn("list frames failed, returning zero frames", zap.Error(err))
		return 0, true, metrics.OutcomeStorageError, err
	}
	n := domain.CountFrames(paths)
	if reported != n {
		// store listing menang, tool cuma referensi
		log.Warn("extractor and store disagree on frame count",
			zap.Int("extractor_frames", reported),
			zap.Int("store_frames", n),
		)
	}
	log.Info("frames extracted", zap.Int("frames", n))
	return n, true, metrics.OutcomeExtracted, nil
}

// ToolAvailable probes the extraction tool on every call.
func (s *Service) ToolAvailable(ctx context.Context) bool {
	return s.Extractor.Probe(ctx)
}

// Get ambil riwayat 1 scan by id
func (s *Service) Get(ctx context.Context, id domain.ScanID) (*domain.Record, error) {
	if err := lookupID(id); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, id)
}

// lookupID checks an id used to read an existing scan. Ids are opaque to
// callers, so one Upload would never accept simply has nothing stored.
func lookupID(id domain.ScanID) error {
	if id == "" {
		return fmt.Errorf("%w: scan_id is required", domain.ErrInvalidRequest)
	}
	if !domain.ValidID(id) {
		return domain.ErrNotFound
	}
	return nil
}

// Latest ambil N riwayat scan terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	return s.Repo.Latest(ctx, limit)
}

// record upserts the scan's history row. Failures are logged and never
// change the outcome of the use case.
func (s *Service) record(ctx context.Context, id domain.ScanID, mutate func(r *domain.Record)) {
	if s.Repo == nil {
		return
	}
	now := s.now()

	r, err := s.Repo.Get(ctx, id)
	if err != nil || r == nil {
		r = &domain.Record{ID: id, CreatedAt: now}
	}
	mutate(r)
	r.UpdatedAt = now

	if err := s.Repo.Save(ctx, r); err != nil {
		s.logger().Warn("save scan record failed",
			zap.String("scan_id", string(id)),
			zap.String("status", string(r.Status)),
			zap.Error(err),
		)
	}
}

func (s *Service) publish(ctx context.Context, ev domain.CompletedEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishCompleted(ctx, ev); err != nil {
		s.logger().Warn("publish scan.completed failed", zap.String("scan_id", string(ev.ScanID)), zap.Error(err))
	}
}

// helper
func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Service) fps() int {
	if s.FPS <= 0 {
		return domain.FramesPerSecond
	}
	return s.FPS
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
