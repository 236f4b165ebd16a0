package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/clubhouse/pkg/auth"
	"github.com/courtside/clubhouse/pkg/contextkeys"
	"github.com/courtside/clubhouse/pkg/observability"
)

func TestRequestID(t *testing.T) {
	t.Run("generates a uuid", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = contextkeys.GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("honors presented id", func(t *testing.T) {
		var seen string
		var loggerSeen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = contextkeys.GetRequestID(r.Context())
			loggerSeen = observability.GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "req-abc-123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-abc-123", seen)
		assert.Equal(t, "req-abc-123", loggerSeen)
		assert.Equal(t, "req-abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.InfoLevel, &buf)

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/clubs/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request completed", line["msg"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/clubs/1", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
}

func TestRecovery(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})

	t.Run("panic becomes a 500", func(t *testing.T) {
		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("unexpected state")
		}))

		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "unexpected state", "panic detail must not leak")
	})

	t.Run("normal requests pass through", func(t *testing.T) {
		handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func newRateLimitedHandler(t *testing.T, limit int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: limit,
		WindowDuration:    time.Minute,
	}), mr
}

func TestRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("limits by remote address", func(t *testing.T) {
		rl, _ := newRateLimitedHandler(t, 3)
		handler := rl.Handler(ok)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)

		// A different client is unaffected.
		req = httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("authenticated clients are keyed by user", func(t *testing.T) {
		rl, mr := newRateLimitedHandler(t, 1)
		handler := rl.Handler(ok)

		req := httptest.NewRequest("GET", "/", nil)
		authCtx := &auth.AuthContext{User: &auth.User{ID: 42}}
		req = req.WithContext(contextkeys.WithAuth(req.Context(), authCtx))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.True(t, mr.Exists("ratelimit:user:42"))
	})

	t.Run("window resets", func(t *testing.T) {
		rl, mr := newRateLimitedHandler(t, 1)
		ctx := httptest.NewRequest("GET", "/", nil).Context()

		require.True(t, rl.Allow(ctx, "client"))
		require.False(t, rl.Allow(ctx, "client"))

		mr.FastForward(2 * time.Minute)
		assert.True(t, rl.Allow(ctx, "client"))
	})

	t.Run("fails open when redis is down", func(t *testing.T) {
		rl, mr := newRateLimitedHandler(t, 1)
		ctx := httptest.NewRequest("GET", "/", nil).Context()

		mr.SetError("server unavailable")
		assert.True(t, rl.Allow(ctx, "client"))
		assert.True(t, rl.Allow(ctx, "client"))
	})
}
