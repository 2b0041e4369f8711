package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appscans "github.com/bryanwahyu/shelfsnap/internal/application/scans"
	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
	"github.com/bryanwahyu/shelfsnap/internal/infra/db/memory"
	"github.com/bryanwahyu/shelfsnap/internal/infra/storage"
)

// diskExtractor writes n frame files into outDir, like ffmpeg would.
type diskExtractor struct {
	available atomic.Bool
	n         int
}

func (e *diskExtractor) Probe(context.Context) bool { return e.available.Load() }

func (e *diskExtractor) Extract(_ context.Context, _, outDir string, _ int) (int, error) {
	for i := 1; i <= e.n; i++ {
		name := filepath.Join(outDir, fmt.Sprintf(domain.FrameFilePattern, i))
		if err := os.WriteFile(name, []byte("jpg"), 0o644); err != nil {
			return 0, err
		}
	}
	return e.n, nil
}

func newTestServer(t *testing.T, opts Options) (http.Handler, *diskExtractor) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocal(filepath.Join(root, "uploads"), filepath.Join(root, "tmp"))
	require.NoError(t, err)

	ext := &diskExtractor{n: 6}
	ext.available.Store(true)
	svc := &appscans.Service{
		Store:     store,
		Extractor: ext,
		Repo:      memory.NewScanRepository(),
	}
	return NewRouter(svc, opts), ext
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func startScan(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/v1/scan/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	require.NotEmpty(t, body["scan_id"])
	return body["scan_id"]
}

func uploadRequest(t *testing.T, scanID string, files ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("scan_id", scanID))
	for i, content := range files {
		fw, err := mw.CreateFormFile("files", fmt.Sprintf("clip%d.mp4", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/scan/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func completeRequest(scanID string) *http.Request {
	form := url.Values{"scan_id": {scanID}}
	req := httptest.NewRequest(http.MethodPost, "/v1/scan/complete", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestRoot(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ShelfSnap API is live!", decode[map[string]string](t, rec)["message"])
}

func TestStart_TwiceGivesDistinctIDs(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	assert.NotEqual(t, startScan(t, h), startScan(t, h))
}

func TestUpload_NoFilesIsBadRequest(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	id := startScan(t, h)

	rec := do(t, h, uploadRequest(t, id))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["detail"], "no file")
}

func TestUpload_NotMultipartIsBadRequest(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodPost, "/v1/scan/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(t, h, req).Code)
}

func TestUpload_PathTraversalIDRejected(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusBadRequest, do(t, h, uploadRequest(t, "../../etc", "x")).Code)
}

func TestUploadThenComplete(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	id := startScan(t, h)

	rec := do(t, h, uploadRequest(t, id, "first video", "ignored"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.UploadAck{OK: true, FramesReceived: 1}, decode[domain.UploadAck](t, rec))

	rec = do(t, h, completeRequest(id))
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.JSONEq(t, `[]`, string(raw["recipes"]))
	assert.JSONEq(t, `[]`, string(raw["gaps"]))
	assert.JSONEq(t, `[
		{"name":"milk 2%","confidence":0.92,"include":true},
		{"name":"eggs","confidence":0.88,"include":true},
		{"name":"tortillas","confidence":0.83,"include":true}
	]`, string(raw["inventory"]))

	res := decode[domain.Result](t, rec)
	assert.Equal(t, domain.ScanID(id), res.ScanID)
	assert.Equal(t, 6, res.FramesExtracted)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/v1/scan/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	record := decode[domain.Record](t, rec)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	assert.EqualValues(t, len("first video"), record.VideoBytes)
}

func TestComplete_NeverUploadedIsNotFound(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	rec := do(t, h, completeRequest("never-uploaded"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.ErrNotFound.Error(), decode[map[string]string](t, rec)["detail"])
}

func TestComplete_OpaqueUnknownIDsAreNotFound(t *testing.T) {
	h, _ := newTestServer(t, Options{})

	for _, id := range []string{"scan.2024", strings.Repeat("a", 65), "ab cd", "../../etc"} {
		rec := do(t, h, completeRequest(id))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Equal(t, domain.ErrNotFound.Error(), decode[map[string]string](t, rec)["detail"], id)
	}

	assert.Equal(t, http.StatusBadRequest, do(t, h, completeRequest("")).Code)
}

func TestUpload_IDIsNotRewritten(t *testing.T) {
	h, _ := newTestServer(t, Options{})

	assert.Equal(t, http.StatusBadRequest, do(t, h, uploadRequest(t, " abc", "video")).Code)
	// tidak boleh tersimpan diam-diam sebagai "abc"
	assert.Equal(t, http.StatusNotFound, do(t, h, completeRequest("abc")).Code)
}

func TestComplete_TwiceDoesNotAccumulate(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	id := startScan(t, h)
	require.Equal(t, http.StatusOK, do(t, h, uploadRequest(t, id, "video")).Code)

	for i := 0; i < 2; i++ {
		rec := do(t, h, completeRequest(id))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 6, decode[domain.Result](t, rec).FramesExtracted)
	}
}

func TestComplete_ToolUnavailableStillSucceeds(t *testing.T) {
	h, ext := newTestServer(t, Options{})
	ext.available.Store(false)
	id := startScan(t, h)
	require.Equal(t, http.StatusOK, do(t, h, uploadRequest(t, id, "video")).Code)

	rec := do(t, h, completeRequest(id))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.Result](t, rec)
	assert.Equal(t, 0, res.FramesExtracted)
	assert.Len(t, res.Inventory, 3)
}

func TestHealthz_ReflectsToolEachCall(t *testing.T) {
	h, ext := newTestServer(t, Options{})

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","ffmpeg":true}`, rec.Body.String())

	ext.available.Store(false)
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","ffmpeg":false}`, rec.Body.String())
}

func TestLatest(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	startScan(t, h)
	startScan(t, h)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/v1/scans/latest?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Record](t, rec), 1)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/v1/scans/latest?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGet_UnknownScan(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/v1/scan/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	req := httptest.NewRequest(http.MethodOptions, "/v1/scan/start", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "X-Custom")

	rec := do(t, h, req)
	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAPIKeys_ProtectScanRoutesOnly(t *testing.T) {
	h, _ := newTestServer(t, Options{APIKeys: []string{"k1"}})

	assert.Equal(t, http.StatusUnauthorized, do(t, h, httptest.NewRequest(http.MethodPost, "/v1/scan/start", nil)).Code)
	assert.Equal(t, http.StatusOK, do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/scan/start", nil)
	req.Header.Set("X-API-Key", "k1")
	assert.Equal(t, http.StatusOK, do(t, h, req).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t, Options{})
	startScan(t, h)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shelfsnap_scans_started_total")
	assert.Contains(t, rec.Body.String(), "shelfsnap_http_requests_total")
}
