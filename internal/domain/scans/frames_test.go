package scans

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsFrameFile(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"first frame", "frame_001.jpg", true},
		{"with dir", "/tmp/abc/frame_042.jpg", true},
		{"past 999", "frame_1000.jpg", true},
		{"two digits", "frame_01.jpg", false},
		{"png", "frame_001.png", false},
		{"prefix", "xframe_001.jpg", false},
		{"letters", "frame_abc.jpg", false},
		{"video", "scan.mp4", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFrameFile(tt.path))
		})
	}
}

func TestCountFrames(t *testing.T) {
	paths := []string{"frame_001.jpg", "frame_002.jpg", "notes.txt", "frame_3.jpg", "frame_1001.jpg"}
	assert.Equal(t, 3, CountFrames(paths))
	assert.Equal(t, 0, CountFrames(nil))
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("4f1c2b8e-9a0d-4c3e-8f7a-1b2c3d4e5f60"))
	assert.True(t, ValidID("scan_1"))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../etc"))
	assert.False(t, ValidID("a/b"))
	assert.False(t, ValidID("x.mp4"))
}

func TestPlaceholderInventory(t *testing.T) {
	inv := PlaceholderInventory()
	require.Len(t, inv, 3)
	assert.Equal(t, InventoryItem{Name: "milk 2%", Confidence: 0.92, Include: true}, inv[0])
	assert.Equal(t, InventoryItem{Name: "eggs", Confidence: 0.88, Include: true}, inv[1])
	assert.Equal(t, InventoryItem{Name: "tortillas", Confidence: 0.83, Include: true}, inv[2])

	// callers get a copy
	inv[0].Name = "changed"
	assert.Equal(t, "milk 2%", PlaceholderInventory()[0].Name)
}

func TestResultEncodesEmptyLists(t *testing.T) {
	b, err := json.Marshal(NewResult("abc", 0))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, []any{}, got["recipes"])
	assert.Equal(t, []any{}, got["gaps"])
	assert.Equal(t, float64(0), got["frames_extracted"])
	assert.Equal(t, "abc", got["scan_id"])
}

func TestToolError(t *testing.T) {
	err := &ToolError{ExitCode: 1, Stderr: "boom", Err: assert.AnError}
	assert.Contains(t, err.Error(), "code 1")
	assert.Contains(t, err.Error(), "boom")
	assert.ErrorIs(t, err, assert.AnError)
}
