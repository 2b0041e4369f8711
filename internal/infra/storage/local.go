package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

const videoFileName = "scan.mp4"

// frameWorkspace owns tmp/<scan_id>, the per-scan directory ffmpeg writes into.
// Both store backends keep frames on local disk.
type frameWorkspace struct {
	tmpDir string
}

func (w frameWorkspace) framesDir(id domain.ScanID) string {
	return filepath.Join(w.tmpDir, string(id))
}

// ResetFrames hapus folder frame lama lalu buat ulang (selalu, walau nanti ekstraksi gagal)
func (w frameWorkspace) ResetFrames(_ context.Context, id domain.ScanID) (string, error) {
	dir := w.framesDir(id)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("remove frames dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create frames dir: %w", err)
	}
	return dir, nil
}

func (w frameWorkspace) ListFrames(_ context.Context, id domain.ScanID) ([]string, error) {
	dir := w.framesDir(id)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		if ent.IsDir() || !domain.IsFrameFile(ent.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, ent.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// LocalStore keeps videos under uploads/<scan_id>/scan.mp4.
type LocalStore struct {
	frameWorkspace
	uploadDir string
}

// NewLocal buat folder uploads & tmp kalau belum ada
func NewLocal(uploadDir, tmpDir string) (*LocalStore, error) {
	for _, d := range []string{uploadDir, tmpDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &LocalStore{frameWorkspace: frameWorkspace{tmpDir: tmpDir}, uploadDir: uploadDir}, nil
}

func (s *LocalStore) videoPath(id domain.ScanID) string {
	return filepath.Join(s.uploadDir, string(id), videoFileName)
}

// SaveVideo writes through a temp file and renames it over scan.mp4, so a
// failed upload never leaves a truncated video behind.
func (s *LocalStore) SaveVideo(_ context.Context, id domain.ScanID, r io.Reader) (int64, error) {
	dir := filepath.Join(s.uploadDir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create scan dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, videoFileName+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp video: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write video: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close video: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.videoPath(id)); err != nil {
		return 0, fmt.Errorf("store video: %w", err)
	}
	return n, nil
}

func (s *LocalStore) VideoPath(_ context.Context, id domain.ScanID) (string, error) {
	p := s.videoPath(id)
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && fi.IsDir()) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return p, nil
}

// Check dipakai readiness probe
func (s *LocalStore) Check(_ context.Context) error {
	for _, d := range []string{s.uploadDir, s.tmpDir} {
		fi, err := os.Stat(d)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", d)
		}
	}
	return nil
}
