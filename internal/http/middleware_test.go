package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_RecordsSessionAndErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(nil)
	e := echo.New()
	e.Use(RequestID())
	e.Use(Logger(zerolog.New(&buf)))
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/unknown", nil)
	req.Header.Set(RequestIDHeader, "rid-7")
	e.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "unknown", line["session_id"])
	assert.Equal(t, "rid-7", line["request_id"])
	assert.Equal(t, "/api/sessions/:id", line["route"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "error", line["level"])
}

func TestLogger_OmitsSessionOutsideSessionRoutes(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(nil)
	e := echo.New()
	e.Use(Logger(zerolog.New(&buf)))
	h.RegisterRoutes(e)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, line, "session_id")
	assert.Equal(t, float64(http.StatusOK), line["status"])
}
