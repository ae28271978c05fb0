package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docscope/internal/contextutil"
)

type stubParser struct {
	id  uuid.UUID
	err error
}

func (p stubParser) Parse(string) (uuid.UUID, error) { return p.id, p.err }

func recordError(w http.ResponseWriter, _ *http.Request, err error) {
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte(err.Error()))
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	if id := UserIDFromContext(r.Context()); id != nil {
		_, _ = w.Write([]byte(id.String()))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func TestOptionalJWT(t *testing.T) {
	user := uuid.New()
	badToken := errors.New("invalid token")

	tests := []struct {
		name       string
		header     string
		parser     stubParser
		wantStatus int
		wantBody   string
	}{
		{name: "no header", parser: stubParser{err: badToken}, wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "other scheme", header: "Basic abc", parser: stubParser{err: badToken}, wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "valid token", header: "Bearer good", parser: stubParser{id: user}, wantStatus: http.StatusOK, wantBody: user.String()},
		{name: "lowercase scheme", header: "bearer good", parser: stubParser{id: user}, wantStatus: http.StatusOK, wantBody: user.String()},
		{name: "invalid token", header: "Bearer bad", parser: stubParser{err: badToken}, wantStatus: http.StatusTeapot, wantBody: "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := OptionalJWT(tt.parser, recordError)(http.HandlerFunc(echoUser))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{status: http.StatusOK, wantLevel: "INFO"},
		{status: http.StatusNotFound, wantLevel: "WARN"},
		{status: http.StatusBadGateway, wantLevel: "ERROR"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			var ctxLogger *slog.Logger
			h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxLogger = contextutil.LoggerFromContext(r.Context())
				w.WriteHeader(tt.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/ask", nil))

			require.NotNil(t, ctxLogger)
			assert.NotSame(t, slog.Default(), ctxLogger)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "/ask", entry["path"])
			assert.EqualValues(t, tt.status, entry["status"])
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2, recordError)
	h := rl.Handler(http.HandlerFunc(echoUser))

	call := func(remote string, user *uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if user != nil {
			req = req.WithContext(WithUserID(req.Context(), *user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000", nil))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:2000", nil))
	assert.Equal(t, http.StatusTeapot, call("10.0.0.1:3000", nil), "same host shares a bucket")
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000", nil))

	user := uuid.New()
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000", &user), "users are keyed by id, not address")
}

func TestRateLimiter_EvictsIdleCallers(t *testing.T) {
	rl := NewRateLimiter(60, 1, recordError)
	now := time.Now()
	rl.now = func() time.Time { return now }

	rl.get("ip:a")
	now = now.Add(limiterIdleTTL + time.Minute)
	rl.get("ip:b")

	assert.NotContains(t, rl.limiters, "ip:a")
	assert.Contains(t, rl.limiters, "ip:b")
}

func TestRateLimiter_ZeroRateDisablesLimiting(t *testing.T) {
	h := NewRateLimiter(0, 1, recordError).Handler(http.HandlerFunc(echoUser))
	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
