package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"media-converter/internal/codec"
	"media-converter/internal/converter"
	"media-converter/internal/database"
	"media-converter/internal/startup"
)

// stubImageRuntime handles everything and produces predictable output.
type stubImageRuntime struct {
	pages int
}

func (s *stubImageRuntime) Decode(_ context.Context, data []byte, srcType, dstType string, _ float64) ([][]byte, error) {
	pages := s.pages
	if pages == 0 {
		pages = 1
	}
	out := make([][]byte, pages)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("%s->%s:%d:%s", srcType, dstType, i, data))
	}
	return out, nil
}

func (s *stubImageRuntime) RenderEncode(_ context.Context, _ image.Image, dstType string, _ float64) ([]byte, error) {
	return []byte("rendered:" + dstType), nil
}

func (s *stubImageRuntime) CanHandle(string) bool { return true }

// stubAudioRuntime handles wav and mp3.
type stubAudioRuntime struct{}

func (s *stubAudioRuntime) Decode(_ context.Context, data []byte, srcType, dstType string) ([][]byte, error) {
	return [][]byte{[]byte(srcType + "->" + dstType + ":" + string(data))}, nil
}

func (s *stubAudioRuntime) DecodeClip(context.Context, []byte, string) (*codec.Clip, error) {
	return &codec.Clip{SampleRate: 8000, Channels: 1, BitDepth: 16, Samples: make([]int, 1024)}, nil
}

func (s *stubAudioRuntime) RenderEncode(_ context.Context, _ *codec.Clip, dstType string) ([]byte, error) {
	if dstType != "audio/wav" {
		return nil, fmt.Errorf("no %s encoder: %w", dstType, codec.ErrUnavailable)
	}
	return []byte("wav-bytes"), nil
}

func (s *stubAudioRuntime) CanHandle(string) bool { return true }

// encodeTestPNG produces a small real PNG payload for encode-branch tests.
func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTestHandlers(t *testing.T, pages int) *Handlers {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	registry := converter.NewDefaultRegistry(&stubImageRuntime{pages: pages}, &stubAudioRuntime{})
	if err := registry.ProbeAll(context.Background()); err != nil {
		t.Fatalf("ProbeAll: %v", err)
	}

	return New(db, registry, &startup.Config{MaxUploadBytes: 64 << 20})
}

func multipartRequest(t *testing.T, from, to string, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(fieldFrom, from); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if err := mw.WriteField(fieldTo, to); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile(fieldFiles, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestConvertSingleOutput(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	req := multipartRequest(t, "heic", "jpeg", map[string][]byte{"photo.heic": []byte("payload")})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="photo.jpeg"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Header().Get(headerJobID) == "" {
		t.Error("expected job id header")
	}
}

func TestConvertFanOutReturnsZip(t *testing.T) {
	h := newTestHandlers(t, 3)
	router := h.Router()

	req := multipartRequest(t, "heic", "png", map[string][]byte{"burst.heic": []byte("payload")})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("archive has %d entries, want 3", len(zr.File))
	}
	wantNames := []string{"burst_001.png", "burst_002.png", "burst_003.png"}
	for i, f := range zr.File {
		if f.Name != wantNames[i] {
			t.Errorf("entry %d = %q, want %q", i, f.Name, wantNames[i])
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open entry: %v", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		if len(data) == 0 {
			t.Errorf("entry %q is empty", f.Name)
		}
	}
}

func TestConvertRecordsJob(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	req := multipartRequest(t, "png", "webp", map[string][]byte{"art.png": encodeTestPNG(t)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	jobID := rec.Header().Get(headerJobID)
	job, err := h.db.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != database.StatusSuccess {
		t.Errorf("job status = %q, want success", job.Status)
	}
	if job.InputFormat != "png" || job.OutputFormat != "webp" {
		t.Errorf("job formats = %s->%s", job.InputFormat, job.OutputFormat)
	}
	if job.Unit != "webp" {
		t.Errorf("job unit = %q, want webp", job.Unit)
	}
	if job.OutputCount != 1 {
		t.Errorf("job output count = %d, want 1", job.OutputCount)
	}
}

func TestConvertUnsupportedPair(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	req := multipartRequest(t, "wav", "webp", map[string][]byte{"clip.wav": []byte("data")})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415; body = %s", rec.Code, rec.Body.String())
	}

	// The failed attempt is still recorded
	jobID := rec.Header().Get(headerJobID)
	job, err := h.db.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != database.StatusFailed {
		t.Errorf("job status = %q, want failed", job.Status)
	}
}

func TestConvertEncodeUnavailable(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	req := multipartRequest(t, "wav", "mp3", map[string][]byte{"clip.wav": []byte("data")})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501; body = %s", rec.Code, rec.Body.String())
	}

	jobID := rec.Header().Get(headerJobID)
	job, err := h.db.GetJob(context.Background(), jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != database.StatusFailed {
		t.Errorf("job status = %q, want failed", job.Status)
	}
	if job.Error == "" {
		t.Error("job error should record the failure")
	}
}

func TestConvertMissingFields(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	req := multipartRequest(t, "", "jpeg", map[string][]byte{"a.heic": []byte("x")})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestConvertNoFiles(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	req := multipartRequest(t, "heic", "jpeg", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetCapabilities(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/capabilities", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp CapabilitiesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !resp.Ready {
		t.Error("expected ready registry")
	}
	if len(resp.Formats) == 0 {
		t.Fatal("expected non-empty format list")
	}

	tags := make(map[string]bool)
	for _, d := range resp.Formats {
		tags[d.Tag] = true
	}
	for _, want := range []string{"heic", "jpeg", "png", "wav", "mp3"} {
		if !tags[want] {
			t.Errorf("capability list missing %q", want)
		}
	}
}

func TestJobsEndpoints(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	// Seed a job through a conversion
	req := multipartRequest(t, "png", "jpeg", map[string][]byte{"a.png": encodeTestPNG(t)})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed conversion failed: %d", rec.Code)
	}
	jobID := rec.Header().Get(headerJobID)

	// List
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listResp struct {
		Jobs  []database.Job `json:"jobs"`
		Count int            `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if listResp.Count != 1 || len(listResp.Jobs) != 1 {
		t.Fatalf("expected one job, got %d", listResp.Count)
	}

	// Get by id
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	// Missing id
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d, want 404", rec.Code)
	}

	// Invalid limit
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?limit=banana", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid limit status = %d, want 400", rec.Code)
	}

	// Stats
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats database.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if stats.TotalJobs != 1 {
		t.Errorf("TotalJobs = %d, want 1", stats.TotalJobs)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandlers(t, 1)
	router := h.Router()

	for _, path := range []string{"/health", "/healthz", "/livez", "/readyz", "/version"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}

	var health HealthResponse
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if health.Status != statusHealthy {
		t.Errorf("health status = %q, want %q", health.Status, statusHealthy)
	}
	if health.UnitsReady == 0 || health.UnitsReady != health.UnitsTotal {
		t.Errorf("units ready = %d/%d", health.UnitsReady, health.UnitsTotal)
	}
}

func TestReadinessBeforeProbing(t *testing.T) {
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	defer db.Close()

	registry := converter.NewDefaultRegistry(&stubImageRuntime{}, &stubAudioRuntime{})
	h := New(db, registry, &startup.Config{MaxUploadBytes: 1 << 20})
	router := h.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before probing = %d, want 503", rec.Code)
	}
}
