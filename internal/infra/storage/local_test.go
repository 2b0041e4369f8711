package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

func newStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocal(filepath.Join(root, "uploads"), filepath.Join(root, "tmp"))
	require.NoError(t, err)
	return s, root
}

func TestLocal_SaveAndOverwriteVideo(t *testing.T) {
	s, root := newStore(t)
	ctx := context.Background()

	n, err := s.SaveVideo(ctx, "scan1", strings.NewReader("first video"))
	require.NoError(t, err)
	assert.EqualValues(t, len("first video"), n)

	_, err = s.SaveVideo(ctx, "scan1", strings.NewReader("second"))
	require.NoError(t, err)

	p, err := s.VideoPath(ctx, "scan1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "uploads", "scan1", "scan.mp4"), p)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	// tidak ada file .part yang tertinggal
	entries, err := os.ReadDir(filepath.Join(root, "uploads", "scan1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocal_VideoPathNotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.VideoPath(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocal_ResetFramesClearsPreviousRun(t *testing.T) {
	s, root := newStore(t)
	ctx := context.Background()

	dir, err := s.ResetFrames(ctx, "scan1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "tmp", "scan1"), dir)

	for _, name := range []string{"frame_001.jpg", "frame_002.jpg", "other.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	frames, err := s.ListFrames(ctx, "scan1")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "frame_001.jpg"), filepath.Join(dir, "frame_002.jpg")}, frames)

	_, err = s.ResetFrames(ctx, "scan1")
	require.NoError(t, err)
	frames, err = s.ListFrames(ctx, "scan1")
	require.NoError(t, err)
	assert.Empty(t, frames)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocal_ListFramesMissingDir(t *testing.T) {
	s, _ := newStore(t)
	frames, err := s.ListFrames(context.Background(), "never")
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestLocal_Check(t *testing.T) {
	s, root := newStore(t)
	require.NoError(t, s.Check(context.Background()))

	require.NoError(t, os.RemoveAll(filepath.Join(root, "tmp")))
	assert.Error(t, s.Check(context.Background()))
}
