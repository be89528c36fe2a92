package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"media-converter/internal/converter"
	"media-converter/internal/database"
	"media-converter/internal/logging"
	"media-converter/internal/metrics"
)

// settleChecks and settleDelay control how long a new file must keep a
// stable size before it is considered fully written.
const (
	settleChecks = 3
	settleDelay  = 200 * time.Millisecond
)

// extensionTags maps file extensions to format tags.
var extensionTags = map[string]string{
	".jpg":  "jpg",
	".jpeg": "jpeg",
	".png":  "png",
	".webp": "webp",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".heic": "heic",
	".heif": "heif",
	".avif": "avif",
	".ico":  "ico",
	".ani":  "ani",
	".wav":  "wav",
	".mp3":  "mp3",
}

// Watcher converts files appearing in a watched directory.
type Watcher struct {
	watchDir  string
	outputDir string
	format    string
	workers   int

	registry *converter.Registry
	db       *database.Database
	fsw      *fsnotify.Watcher

	paths chan string
	wg    sync.WaitGroup

	mu       sync.Mutex
	inFlight map[string]bool
}

// Config holds watcher settings.
type Config struct {
	WatchDir  string
	OutputDir string
	Format    string
	Workers   int
}

// New creates a directory watcher. Start must be called to begin
// processing.
func New(cfg Config, registry *converter.Registry, db *database.Database) (*Watcher, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	return &Watcher{
		watchDir:  cfg.WatchDir,
		outputDir: cfg.OutputDir,
		format:    cfg.Format,
		workers:   cfg.Workers,
		registry:  registry,
		db:        db,
		fsw:       fsw,
		paths:     make(chan string, 128),
		inFlight:  make(map[string]bool),
	}, nil
}

// Start watches until ctx is cancelled. Files already present in the
// watch directory are converted first.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.watchDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.watchDir, err)
	}

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(ctx)
	}

	w.scanExisting()

	for {
		select {
		case <-ctx.Done():
			close(w.paths)
			w.wg.Wait()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				close(w.paths)
				w.wg.Wait()
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				continue
			}
			logging.Warn("watcher error: %v", err)
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.watchDir)
	if err != nil {
		logging.Warn("failed to scan watch directory: %v", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		w.enqueue(filepath.Join(w.watchDir, e.Name()))
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	w.enqueue(ev.Name)
}

func (w *Watcher) enqueue(path string) {
	if tagForFile(path) == "" {
		return
	}

	w.mu.Lock()
	if w.inFlight[path] {
		w.mu.Unlock()
		return
	}
	w.inFlight[path] = true
	w.mu.Unlock()

	metrics.WatcherFilesSeen.Inc()

	select {
	case w.paths <- path:
	default:
		// Queue full: drop and let a later Write event retry
		logging.Warn("watcher queue full, skipping %s", path)
		w.release(path)
	}
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	delete(w.inFlight, path)
	w.mu.Unlock()
}

func (w *Watcher) worker(ctx context.Context) {
	defer w.wg.Done()
	for path := range w.paths {
		if ctx.Err() != nil {
			w.release(path)
			continue
		}
		if err := w.convertFile(ctx, path); err != nil {
			logging.Error("watcher conversion of %s failed: %v", path, err)
			metrics.WatcherConversions.WithLabelValues("error").Inc()
		} else {
			metrics.WatcherConversions.WithLabelValues("success").Inc()
		}
		w.release(path)
	}
}

func (w *Watcher) convertFile(ctx context.Context, path string) error {
	if err := waitForSettle(ctx, path); err != nil {
		return err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the watched directory
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	inTag := tagForFile(path)
	name := filepath.Base(path)

	start := time.Now()
	outputs, unitName, convErr := w.registry.Convert(ctx, []converter.File{{Name: name, Data: data}}, inTag, w.format)
	duration := time.Since(start)

	job := database.Job{
		ID:           uuid.NewString(),
		InputName:    name,
		InputFormat:  inTag,
		OutputFormat: w.format,
		Unit:         unitName,
		InputBytes:   int64(len(data)),
		DurationMS:   duration.Milliseconds(),
	}

	if convErr != nil {
		job.Status = database.StatusFailed
		job.Error = convErr.Error()
		w.recordJob(ctx, job)
		return convErr
	}

	for _, out := range outputs {
		dst := filepath.Join(w.outputDir, out.Name)
		if err := os.WriteFile(dst, out.Data, 0o644); err != nil {
			job.Status = database.StatusFailed
			job.Error = err.Error()
			w.recordJob(ctx, job)
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}
		job.OutputBytes += int64(len(out.Data))
	}

	job.Status = database.StatusSuccess
	job.OutputCount = len(outputs)
	w.recordJob(ctx, job)

	logging.Info("converted %s -> %d %s file(s)", name, len(outputs), w.format)
	return nil
}

func (w *Watcher) recordJob(ctx context.Context, job database.Job) {
	if w.db == nil {
		return
	}
	if err := w.db.RecordJob(ctx, job); err != nil {
		logging.Error("failed to record watcher job %s: %v", job.ID, err)
	}
}

// waitForSettle blocks until the file size has been stable across
// consecutive checks, so half-copied files are not converted.
func waitForSettle(ctx context.Context, path string) error {
	var lastSize int64 = -1
	stable := 0

	for stable < settleChecks {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("file disappeared while settling: %w", err)
		}
		if info.Size() == lastSize {
			stable++
		} else {
			stable = 0
			lastSize = info.Size()
		}

		if stable >= settleChecks {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settleDelay):
		}
	}
	return nil
}

// tagForFile maps a path to its format tag, or "" for files the
// watcher should ignore.
func tagForFile(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return ""
	}
	return extensionTags[strings.ToLower(filepath.Ext(base))]
}
