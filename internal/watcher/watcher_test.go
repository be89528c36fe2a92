package watcher

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-converter/internal/codec"
	"media-converter/internal/converter"
	"media-converter/internal/database"
)

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
		out[i] = []byte(fmt.Sprintf("%s->%s:%d", srcType, dstType, i))
	}
	return out, nil
}

func (s *stubImageRuntime) RenderEncode(_ context.Context, _ image.Image, dstType string, _ float64) ([]byte, error) {
	return []byte("rendered:" + dstType), nil
}

func (s *stubImageRuntime) CanHandle(string) bool { return true }

type stubAudioRuntime struct{}

func (s *stubAudioRuntime) Decode(_ context.Context, _ []byte, srcType, dstType string) ([][]byte, error) {
	return [][]byte{[]byte(srcType + "->" + dstType)}, nil
}

func (s *stubAudioRuntime) DecodeClip(context.Context, []byte, string) (*codec.Clip, error) {
	return &codec.Clip{SampleRate: 8000, Channels: 1, BitDepth: 16, Samples: make([]int, 64)}, nil
}

func (s *stubAudioRuntime) RenderEncode(_ context.Context, _ *codec.Clip, dstType string) ([]byte, error) {
	if dstType != "audio/wav" {
		return nil, fmt.Errorf("no %s encoder: %w", dstType, codec.ErrUnavailable)
	}
	return []byte("wav-bytes"), nil
}

func (s *stubAudioRuntime) CanHandle(string) bool { return true }

func newTestWatcher(t *testing.T, pages int, format string) (*Watcher, string, string) {
	t.Helper()

	watchDir := t.TempDir()
	outputDir := t.TempDir()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	registry := converter.NewDefaultRegistry(&stubImageRuntime{pages: pages}, &stubAudioRuntime{})
	if err := registry.ProbeAll(context.Background()); err != nil {
		t.Fatalf("ProbeAll: %v", err)
	}

	w, err := New(Config{
		WatchDir:  watchDir,
		OutputDir: outputDir,
		Format:    format,
		Workers:   2,
	}, registry, db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	return w, watchDir, outputDir
}

func TestTagForFile(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/in/photo.heic", "heic"},
		{"/in/photo.HEIC", "heic"},
		{"/in/clip.wav", "wav"},
		{"/in/track.mp3", "mp3"},
		{"/in/scan.tif", "tiff"},
		{"/in/readme.txt", ""},
		{"/in/noext", ""},
		{"/in/.hidden.png", ""},
		{"/in/.write-test", ""},
	}

	for _, tt := range tests {
		if got := tagForFile(tt.path); got != tt.want {
			t.Errorf("tagForFile(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestWaitForSettle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.png")
	if err := os.WriteFile(path, []byte("stable content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := waitForSettle(ctx, path); err != nil {
		t.Errorf("waitForSettle on stable file: %v", err)
	}
}

func TestWaitForSettleMissingFile(t *testing.T) {
	ctx := context.Background()
	if err := waitForSettle(ctx, filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWaitForSettleCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.png")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := waitForSettle(ctx, path); err == nil {
		t.Error("expected context error")
	}
}

func TestConvertFileWritesOutput(t *testing.T) {
	w, watchDir, outputDir := newTestWatcher(t, 1, "jpeg")

	src := filepath.Join(watchDir, "photo.heic")
	if err := os.WriteFile(src, []byte("heic-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := w.convertFile(context.Background(), src); err != nil {
		t.Fatalf("convertFile: %v", err)
	}

	out := filepath.Join(outputDir, "photo.jpeg")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("output is empty")
	}

	jobs, err := w.db.ListJobs(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected one recorded job, got %d", len(jobs))
	}
	if jobs[0].Status != database.StatusSuccess {
		t.Errorf("job status = %q, want success", jobs[0].Status)
	}
	if jobs[0].InputFormat != "heic" || jobs[0].OutputFormat != "jpeg" {
		t.Errorf("job formats = %s->%s", jobs[0].InputFormat, jobs[0].OutputFormat)
	}
}

func TestConvertFileFanOut(t *testing.T) {
	w, watchDir, outputDir := newTestWatcher(t, 3, "png")

	src := filepath.Join(watchDir, "burst.heic")
	if err := os.WriteFile(src, []byte("heic-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := w.convertFile(context.Background(), src); err != nil {
		t.Fatalf("convertFile: %v", err)
	}

	for _, name := range []string{"burst_001.png", "burst_002.png", "burst_003.png"} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Errorf("expected output %s: %v", name, err)
		}
	}
}

func TestConvertFileRecordsFailure(t *testing.T) {
	w, watchDir, _ := newTestWatcher(t, 1, "webp")

	// wav -> webp has no unit
	src := filepath.Join(watchDir, "clip.wav")
	if err := os.WriteFile(src, []byte("wav-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := w.convertFile(context.Background(), src); err == nil {
		t.Fatal("expected conversion error")
	}

	jobs, err := w.db.ListJobs(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != database.StatusFailed {
		t.Fatalf("expected one failed job, got %+v", jobs)
	}
}

func TestWatcherEndToEnd(t *testing.T) {
	w, watchDir, outputDir := newTestWatcher(t, 1, "jpeg")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher a moment to register the directory
	time.Sleep(200 * time.Millisecond)

	src := filepath.Join(watchDir, "drop.heic")
	if err := os.WriteFile(src, []byte("heic-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out := filepath.Join(outputDir, "drop.jpeg")
	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(out); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for converted output")
		}
		time.Sleep(100 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("watcher did not stop after cancellation")
	}
}

func TestEnqueueIgnoresUnknownExtensions(t *testing.T) {
	w, watchDir, _ := newTestWatcher(t, 1, "jpeg")

	w.enqueue(filepath.Join(watchDir, "notes.txt"))

	select {
	case path := <-w.paths:
		t.Errorf("unexpected enqueue of %s", path)
	default:
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	w, watchDir, _ := newTestWatcher(t, 1, "jpeg")

	path := filepath.Join(watchDir, "photo.png")
	w.enqueue(path)
	w.enqueue(path)

	count := 0
	for {
		select {
		case <-w.paths:
			count++
			continue
		default:
		}
		break
	}
	if count != 1 {
		t.Errorf("expected one queued path, got %d", count)
	}
}
