package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/internal/infrastructure"
	"waterq/internal/shared/testutil"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name          string
		incomingID    string
		wantGenerated bool
	}{
		{
			name:          "generates UUID when header absent",
			incomingID:    "",
			wantGenerated: true,
		},
		{
			name:          "honours incoming X-Request-ID",
			incomingID:    "client-supplied-id",
			wantGenerated: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID, chiID, traceID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = GetReqID(r.Context())
				chiID = chimiddleware.GetReqID(r.Context())
				traceID = infrastructure.GetTraceID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
			if tt.incomingID != "" {
				req.Header.Set("X-Request-ID", tt.incomingID)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			headerID := w.Header().Get("X-Request-ID")
			assert.NotEmpty(t, headerID)
			assert.Equal(t, headerID, ctxID)
			assert.Equal(t, headerID, chiID)
			assert.Equal(t, headerID, traceID)

			if tt.wantGenerated {
				assert.Len(t, headerID, 36) // UUID v4
			} else {
				assert.Equal(t, tt.incomingID, headerID)
			}
		})
	}
}

func TestGetReqID(t *testing.T) {
	t.Run("returns empty for bare context", func(t *testing.T) {
		assert.Empty(t, GetReqID(context.Background()))
	})

	t.Run("falls back to trace ID", func(t *testing.T) {
		ctx := infrastructure.WithTraceID(context.Background(), "trace-xyz")
		assert.Equal(t, "trace-xyz", GetReqID(ctx))
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, logHandler := testutil.NewTestLogger(t)

	handler := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("done"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dataset/summary", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, logHandler.ContainsMessage("request started"))
	assert.True(t, logHandler.ContainsMessage("request completed"))

	records := logHandler.GetRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "GET", records[0].Attrs["method"])
	assert.Equal(t, "/api/dataset/summary", records[0].Attrs["path"])
	assert.EqualValues(t, http.StatusCreated, records[1].Attrs["status"])
	assert.EqualValues(t, len("done"), records[1].Attrs["bytes"])
}

func TestRecoverer(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantPanic  bool
	}{
		{
			name: "passes through normal requests",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantStatus: http.StatusOK,
			wantPanic:  false,
		},
		{
			name: "recovers from panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("frame index out of range")
			},
			wantStatus: http.StatusInternalServerError,
			wantPanic:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logHandler := testutil.NewTestLogger(t)

			handler := Recoverer(logger)(tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-123"))
			w := httptest.NewRecorder()

			assert.NotPanics(t, func() {
				handler.ServeHTTP(w, req)
			})

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantPanic {
				assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
				assert.Contains(t, w.Body.String(), "/errors/internal-server-error")
				assert.Contains(t, w.Body.String(), "trace-123")
				assert.True(t, logHandler.ContainsMessage("panic recovered"))
			} else {
				assert.False(t, logHandler.ContainsMessage("panic recovered"))
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	logger, logHandler := testutil.NewTestLogger(t)

	rl := NewRateLimiter(1, 1, logger)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First request fits the burst
	req := httptest.NewRequest(http.MethodGet, "/api/dataset/records", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Immediate second request exceeds the limit
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
	assert.Contains(t, w.Body.String(), "/errors/rate-limit-exceeded")
	assert.True(t, logHandler.ContainsMessage("rate limit exceeded"))
}

func TestTimeout(t *testing.T) {
	t.Run("fast handler completes", func(t *testing.T) {
		logger, _ := testutil.NewTestLogger(t)

		handler := Timeout(time.Second, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("slow handler times out", func(t *testing.T) {
		logger, logHandler := testutil.NewTestLogger(t)

		done := make(chan struct{})
		handler := Timeout(20*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			close(done)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/dataset/correlation", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "/errors/request-timeout")
		assert.True(t, logHandler.ContainsMessage("request timeout"))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler goroutine did not observe cancellation")
		}
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		config      CORSConfig
		origin      string
		method      string
		wantStatus  int
		wantOrigin  string
		wantAllowed bool
	}{
		{
			name:        "allowed origin echoed",
			config:      CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
			origin:      "http://localhost:3000",
			method:      http.MethodGet,
			wantStatus:  http.StatusOK,
			wantOrigin:  "http://localhost:3000",
			wantAllowed: true,
		},
		{
			name:        "disallowed origin not echoed",
			config:      CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
			origin:      "http://evil.example",
			method:      http.MethodGet,
			wantStatus:  http.StatusOK,
			wantOrigin:  "",
			wantAllowed: false,
		},
		{
			name:        "wildcard allows any origin",
			config:      CORSConfig{AllowedOrigins: []string{"*"}},
			origin:      "http://anywhere.example",
			method:      http.MethodGet,
			wantStatus:  http.StatusOK,
			wantOrigin:  "http://anywhere.example",
			wantAllowed: true,
		},
		{
			name:        "preflight short-circuits",
			config:      CORSConfig{AllowedOrigins: []string{"*"}},
			origin:      "http://localhost:3000",
			method:      http.MethodOptions,
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "http://localhost:3000",
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			handler := CORS(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/dataset", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
			assert.NotEmpty(t, w.Header().Get("Access-Control-Max-Age"))

			if tt.method == http.MethodOptions {
				assert.False(t, nextCalled)
			} else {
				assert.True(t, nextCalled)
			}
		})
	}

	t.Run("credentials and exposed headers", func(t *testing.T) {
		handler := CORS(CORSConfig{
			AllowedOrigins:   []string{"*"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
		})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))

	// No HSTS without TLS
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRealIP(t *testing.T) {
	var seen string
	handler := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "203.0.113.9", seen)
}
