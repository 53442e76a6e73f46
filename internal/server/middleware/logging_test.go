package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expectedLevel string
		status        int
	}{
		{name: "success request", path: "/api/destinations", status: http.StatusOK, expectedLevel: "INFO"},
		{name: "client error", path: "/api/nope", status: http.StatusNotFound, expectedLevel: "WARN"},
		{name: "server error", path: "/api/bookings", status: http.StatusInternalServerError, expectedLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})

			req := httptest.NewRequest(http.MethodGet, tt.path+"?city=Lisbon", nil)
			w := httptest.NewRecorder()

			LoggingMiddleware(logger)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			logOutput := buf.String()
			assert.Contains(t, logOutput, "level="+tt.expectedLevel)
			assert.Contains(t, logOutput, "HTTP request")
			assert.Contains(t, logOutput, "method=GET")
			assert.Contains(t, logOutput, "path="+tt.path)
			assert.Contains(t, logOutput, `query="city=Lisbon"`)
			assert.Contains(t, logOutput, "bytes_written=4")
		})
	}
}

func TestLoggingMiddleware_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// WriteHeader не вызывается явно
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	LoggingMiddleware(logger)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/packages", nil))

	assert.Contains(t, buf.String(), "status=200")
}

func TestLoggingMiddleware_DoesNotLogHeaders(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	req.Header.Set("Authorization", "Bearer secret-token-value")

	LoggingMiddleware(logger)(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.NotContains(t, buf.String(), "secret-token-value")
}

func TestLoggingWithSkip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	handler := LoggingWithSkip(logger, []string{"/api/health"})(next)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Empty(t, buf.String(), "health check should not be logged")

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/activities", nil))
	assert.Contains(t, buf.String(), "path=/api/activities")

	assert.Equal(t, 2, calls)
}
