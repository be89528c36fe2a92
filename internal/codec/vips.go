package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"media-converter/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// initVips starts libvips once for the process, mapping vips log output
// into our leveled logger.
func initVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	var vipsLogLevel vips.LogLevel
	if logging.IsDebugEnabled() {
		vipsLogLevel = vips.LogLevelInfo
	} else {
		vipsLogLevel = vips.LogLevelWarning
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level >= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings; conversions are sequential per unit
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources. Call once at process exit.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// VipsRuntime is the libvips-backed image codec capability. One
// instance is shared per conversion unit; its operations are serialized
// because a batch is processed sequentially.
type VipsRuntime struct {
	mu       sync.Mutex
	encoders map[string]bool
}

// NewVipsRuntime initializes libvips and probes which encoders the
// linked library carries. The probe exports a 1x1 image to every
// candidate target; targets whose export fails are recorded as
// unavailable so RenderEncode can fail fast with a descriptive error.
func NewVipsRuntime() (*VipsRuntime, error) {
	initVips()

	r := &VipsRuntime{encoders: make(map[string]bool)}

	probe, err := vips.Black(1, 1)
	if err != nil {
		return nil, fmt.Errorf("acquire probe image: %w", err)
	}
	defer probe.Close()

	for _, mime := range []string{
		"image/jpeg", "image/png", "image/webp",
		"image/heic", "image/heif", "image/avif",
		"image/gif", "image/tiff",
	} {
		if _, exportErr := exportImage(probe, mime, 0.92); exportErr == nil {
			r.encoders[mime] = true
		} else {
			logging.Debug("vips encoder probe: %s unavailable: %v", mime, exportErr)
		}
	}

	logging.Info("vips runtime ready, %d encoders available", len(r.encoders))
	return r, nil
}

// CanHandle reports whether libvips can process the container type.
// JPEG, PNG, WebP, GIF and TIFF are always compiled in; HEIF and AVIF
// depend on libheif being linked, which the encoder probe detects.
func (r *VipsRuntime) CanHandle(containerType string) bool {
	switch containerType {
	case "image/jpeg", "image/png", "image/webp", "image/gif", "image/tiff", "image/bmp":
		return true
	case "image/heic", "image/heif", "image/avif":
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.encoders[containerType]
	default:
		return false
	}
}

// CanEncode reports whether the probe found an encoder for the target.
func (r *VipsRuntime) CanEncode(containerType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoders[containerType]
}

// Decode converts one encoded image into one or more payloads of
// dstType. Sources with multiple pages fan out to one payload per page,
// in source order.
func (r *VipsRuntime) Decode(ctx context.Context, data []byte, srcType, dstType string, quality float64) ([][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref, err := vips.LoadImageFromBuffer(data, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("load %s image: %w", srcType, err)
	}
	pages := ref.Pages()

	if pages <= 1 {
		defer ref.Close()
		out, err := exportImage(ref, dstType, quality)
		if err != nil {
			return nil, err
		}
		return [][]byte{out}, nil
	}

	// Multi-page source: re-import one page at a time so each page is
	// exported as a standalone image.
	ref.Close()
	logging.Debug("multi-page source (%d pages), expanding", pages)

	results := make([][]byte, 0, pages)
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		params := vips.NewImportParams()
		params.Page.Set(i)
		params.NumPages.Set(1)

		page, err := vips.LoadImageFromBuffer(data, params)
		if err != nil {
			return nil, fmt.Errorf("load %s page %d: %w", srcType, i+1, err)
		}
		out, err := exportImage(page, dstType, quality)
		page.Close()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		results = append(results, out)
	}
	return results, nil
}

// RenderEncode renders a decoded bitmap into dstType via libvips. The
// bitmap is handed to vips through a lossless PNG intermediate.
func (r *VipsRuntime) RenderEncode(ctx context.Context, bmp image.Image, dstType string, quality float64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.encoders[dstType] {
		return nil, fmt.Errorf("no %s encoder in linked libvips: %w", dstType, ErrUnavailable)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bmp); err != nil {
		return nil, fmt.Errorf("stage bitmap for vips: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("import staged bitmap: %w", err)
	}
	defer ref.Close()

	return exportImage(ref, dstType, quality)
}

// exportImage exports a vips image to the target container type.
// Quality is on a 0-1 scale and maps to the 0-100 scale vips expects.
func exportImage(ref *vips.ImageRef, dstType string, quality float64) ([]byte, error) {
	q := int(quality * 100)

	var (
		out []byte
		err error
	)
	switch dstType {
	case "image/jpeg":
		params := vips.NewJpegExportParams()
		params.Quality = q
		out, _, err = ref.ExportJpeg(params)
	case "image/png":
		out, _, err = ref.ExportPng(vips.NewPngExportParams())
	case "image/webp":
		params := vips.NewWebpExportParams()
		params.Quality = q
		out, _, err = ref.ExportWebp(params)
	case "image/heic", "image/heif":
		params := vips.NewHeifExportParams()
		params.Quality = q
		out, _, err = ref.ExportHeif(params)
	case "image/avif":
		params := vips.NewAvifExportParams()
		params.Quality = q
		out, _, err = ref.ExportAvif(params)
	case "image/gif":
		params := vips.NewGifExportParams()
		params.Quality = q
		out, _, err = ref.ExportGIF(params)
	case "image/tiff":
		out, _, err = ref.ExportTiff(vips.NewTiffExportParams())
	default:
		return nil, fmt.Errorf("no %s encoder in host runtime: %w", dstType, ErrUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("export to %s: %w", dstType, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s export produced no bytes: %w", dstType, ErrUnavailable)
	}
	return out, nil
}
