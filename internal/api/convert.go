package api

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-converter/internal/converter"
	"media-converter/internal/database"
	"media-converter/internal/logging"
	"media-converter/internal/metadata"
)

// multipart form field names
const (
	fieldFiles = "files"
	fieldFrom  = "from"
	fieldTo    = "to"
)

// headerJobID carries the recorded job id so clients can correlate
// the returned payload with the job history.
const headerJobID = "X-Job-Id"

// Convert accepts a multipart batch and returns the converted outputs.
// A single output is returned directly; fan-out batches are zipped.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSONError(w, fmt.Sprintf("invalid multipart request: %v", err), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("failed to clean up multipart form: %v", err)
		}
	}()

	from := strings.ToLower(strings.TrimSpace(r.FormValue(fieldFrom)))
	to := strings.ToLower(strings.TrimSpace(r.FormValue(fieldTo)))
	if from == "" || to == "" {
		writeJSONError(w, "both 'from' and 'to' format tags are required", http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File[fieldFiles]
	if len(fileHeaders) == 0 {
		writeJSONError(w, "no files uploaded under 'files'", http.StatusBadRequest)
		return
	}

	files := make([]converter.File, 0, len(fileHeaders))
	var inputBytes int64
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			writeJSONError(w, fmt.Sprintf("failed to open upload %s: %v", fh.Filename, err), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		if closeErr := f.Close(); closeErr != nil {
			logging.Warn("failed to close upload %s: %v", fh.Filename, closeErr)
		}
		if err != nil {
			writeJSONError(w, fmt.Sprintf("failed to read upload %s: %v", fh.Filename, err), http.StatusBadRequest)
			return
		}
		files = append(files, converter.File{Name: fh.Filename, Data: data})
		inputBytes += int64(len(data))
	}

	jobID := uuid.NewString()
	start := time.Now()
	outputs, unitName, err := h.registry.Convert(r.Context(), files, from, to)
	duration := time.Since(start)

	job := database.Job{
		ID:           jobID,
		InputName:    files[0].Name,
		InputFormat:  from,
		OutputFormat: to,
		Unit:         unitName,
		InputBytes:   inputBytes,
		DurationMS:   duration.Milliseconds(),
	}
	if summary := metadata.Summary(files[0].Data); summary != "" {
		job.ExifSummary = summary
	}

	if err != nil {
		job.Status = database.StatusFailed
		job.Error = err.Error()
		h.recordJob(r, job)

		w.Header().Set(headerJobID, jobID)
		writeJSONError(w, err.Error(), conversionStatus(err))
		return
	}

	job.Status = database.StatusSuccess
	job.OutputCount = len(outputs)
	for _, out := range outputs {
		job.OutputBytes += int64(len(out.Data))
	}
	h.recordJob(r, job)

	w.Header().Set(headerJobID, jobID)
	if len(outputs) == 1 {
		h.writeSingle(w, outputs[0], to)
		return
	}
	h.writeArchive(w, outputs, files[0].Name)
}

func (h *Handlers) recordJob(r *http.Request, job database.Job) {
	if err := h.db.RecordJob(r.Context(), job); err != nil {
		logging.Error("failed to record job %s: %v", job.ID, err)
	}
}

func (h *Handlers) writeSingle(w http.ResponseWriter, out converter.File, toTag string) {
	contentType := "application/octet-stream"
	for _, d := range h.registry.Capabilities() {
		if d.Tag == toTag {
			contentType = d.MIME
			break
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		logging.Error("failed to write conversion response: %v", err)
	}
}

func (h *Handlers) writeArchive(w http.ResponseWriter, outputs []converter.File, inputName string) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, out := range outputs {
		f, err := zw.Create(out.Name)
		if err != nil {
			writeJSONError(w, fmt.Sprintf("failed to build archive: %v", err), http.StatusInternalServerError)
			return
		}
		if _, err := f.Write(out.Data); err != nil {
			writeJSONError(w, fmt.Sprintf("failed to build archive: %v", err), http.StatusInternalServerError)
			return
		}
	}
	if err := zw.Close(); err != nil {
		writeJSONError(w, fmt.Sprintf("failed to finalize archive: %v", err), http.StatusInternalServerError)
		return
	}

	base := inputName
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".zip"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Error("failed to write archive response: %v", err)
	}
}

// conversionStatus maps conversion failures onto HTTP status codes.
func conversionStatus(err error) int {
	if errors.Is(err, converter.ErrNoUnit) {
		return http.StatusUnsupportedMediaType
	}
	if errors.Is(err, converter.ErrNotReady) {
		return http.StatusServiceUnavailable
	}

	var convErr *converter.Error
	if errors.As(err, &convErr) {
		switch convErr.Kind {
		case converter.KindClassification:
			return http.StatusBadRequest
		case converter.KindDecode:
			return http.StatusUnprocessableEntity
		case converter.KindEncodeUnavailable:
			return http.StatusNotImplemented
		case converter.KindResource:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
