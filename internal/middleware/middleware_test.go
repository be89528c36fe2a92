package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	if rw == nil {
		t.Fatal("Expected responseWriter to be created")
	}

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", rw.statusCode)
	}

	if rw.bytesWritten != 0 {
		t.Errorf("Expected bytesWritten to be 0, got %d", rw.bytesWritten)
	}

	if rw.wroteHeader {
		t.Error("Expected wroteHeader to be false initially")
	}
}

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code 404, got %d", rw.statusCode)
	}

	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after WriteHeader")
	}

	// Write header again - should be ignored
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Error("Status code should not change after first WriteHeader")
	}
}

func TestResponseWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	data := []byte("test data")
	n, err := rw.Write(data)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if n != len(data) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(data), n)
	}

	if rw.bytesWritten != int64(len(data)) {
		t.Errorf("Expected bytesWritten to be %d, got %d", len(data), rw.bytesWritten)
	}

	if !rw.wroteHeader {
		t.Error("Expected wroteHeader to be true after Write")
	}
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		if _, err := w.Write([]byte("done")); err != nil {
			t.Errorf("Write: %v", err)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != "done" {
		t.Errorf("Expected body %q, got %q", "done", rec.Body.String())
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		want   bool
	}{
		{"normal path", "/api/convert", DefaultLoggingConfig(), false},
		{"explicit skip path", "/metrics", LoggingConfig{SkipPaths: []string{"/metrics"}, LogHealthChecks: true}, true},
		{"health check logged by default", "/healthz", DefaultLoggingConfig(), false},
		{"health check suppressed", "/healthz", LoggingConfig{LogHealthChecks: false}, true},
		{"readyz suppressed", "/readyz", LoggingConfig{LogHealthChecks: false}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkip(tt.path, tt.config); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "GET", "GET"},
		{"newline replaced", "a\nb", "a b"},
		{"carriage return replaced", "a\rb", "a b"},
		{"null stripped", "a\x00b", "ab"},
		{"ansi escape stripped", "a\x1b[31mb", "a[31mb"},
		{"tab preserved", "a\tb", "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1"},
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "192.168.1.1"}, "10.0.0.1:1234", "192.168.1.1"},
		{"x-forwarded-for chain", map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.2"}, "10.0.0.1:1234", "192.168.1.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "172.16.0.5"}, "10.0.0.1:1234", "172.16.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeW3CField(t *testing.T) {
	if got := escapeW3CField("curl/8.0"); got != "curl/8.0" {
		t.Errorf("unexpected escaping of simple field: %q", got)
	}
	got := escapeW3CField(`Mozilla "5.0" agent`)
	if !strings.HasPrefix(got, `"`) || !strings.HasSuffix(got, `"`) {
		t.Errorf("field with spaces should be quoted, got %q", got)
	}
	if !strings.Contains(got, `""5.0""`) {
		t.Errorf("embedded quotes should be doubled, got %q", got)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/capabilities", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", rec.Code)
	}
}

func TestMetricsMiddlewareSkipsConfiguredPaths(t *testing.T) {
	called := false
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should still be invoked for skipped paths")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/convert", "/api/convert"},
		{"/api/jobs", "/api/jobs"},
		{"/api/jobs/", "/api/jobs/"},
		{"/api/jobs/52b7c7e1", "/api/jobs/{id}"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
