package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/internal/core"
	"medassist/pkg"
)

type fakeLLM struct {
	err error
}

func (f fakeLLM) Complete(_ context.Context, _, language string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "reply in " + language, nil
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(_ context.Context, text, _, to string) (string, error) {
	return "[" + to + "] " + text, nil
}

func newTestHandler(llmErr error) *Handler {
	logger := zerolog.Nop()
	store := core.NewStore(core.SessionOptions{
		BaseLanguage: "English",
		Translator:   fakeTranslator{},
		Logger:       logger,
	})
	chat := core.NewChatService(fakeLLM{err: llmErr}, core.NewRecordFetcher(nil, 0, logger), fakeTranslator{}, logger)
	return NewHandler(store, chat, logger)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withSession(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func assertHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %v", err)
	assert.Equal(t, code, he.Code)
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) pkg.SessionView {
	t.Helper()
	var view pkg.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func createSession(t *testing.T, h *Handler, language string) pkg.SessionView {
	t.Helper()
	body := fmt.Sprintf(`{"patient_id": "patient-42", "language": %q}`, language)
	c, rec := newJSONContext(http.MethodPost, "/api/sessions", body)
	require.NoError(t, h.CreateSession(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeView(t, rec)
}

func TestHandler_CreateSession(t *testing.T) {
	h := newTestHandler(nil)

	view := createSession(t, h, "Hindi")
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "patient-42", view.PatientID)
	assert.Equal(t, "Hindi", view.ActiveLanguage)
	assert.Equal(t, "English", view.BaseLanguage)
	require.Len(t, view.Turns, 1)
	assert.Equal(t, core.Greetings["Hindi"], view.Turns[0].DisplayedContent)
}

func TestHandler_CreateSession_Invalid(t *testing.T) {
	h := newTestHandler(nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing patient", `{"language": "Hindi"}`},
		{"blank patient", `{"patient_id": "   "}`},
		{"unsupported language", `{"patient_id": "p1", "language": "Klingon"}`},
		{"malformed json", `{"patient_id": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newJSONContext(http.MethodPost, "/api/sessions", tt.body)
			assertHTTPStatus(t, h.CreateSession(c), http.StatusBadRequest)
		})
	}
}

func TestHandler_GetSession_NotFound(t *testing.T) {
	h := newTestHandler(nil)
	c, _ := newJSONContext(http.MethodGet, "/api/sessions/nope", "")
	assertHTTPStatus(t, h.GetSession(withSession(c, "nope")), http.StatusNotFound)
}

func TestHandler_PostMessage(t *testing.T) {
	h := newTestHandler(nil)
	created := createSession(t, h, "")

	c, rec := newJSONContext(http.MethodPost, "/api/sessions/"+created.ID+"/messages", `{"content": "Is my sugar normal?"}`)
	require.NoError(t, h.PostMessage(withSession(c, created.ID)))
	assert.Equal(t, http.StatusOK, rec.Code)

	view := decodeView(t, rec)
	require.Len(t, view.Turns, 3)
	assert.Equal(t, pkg.RoleUser, view.Turns[1].Role)
	assert.Equal(t, "reply in English", view.Turns[2].DisplayedContent)
	assert.False(t, view.IsGenerating)
}

func TestHandler_PostMessage_ModelFailureIsNotAnError(t *testing.T) {
	h := newTestHandler(errors.New("upstream 500"))
	created := createSession(t, h, "")

	c, rec := newJSONContext(http.MethodPost, "/", `{"content": "hello"}`)
	require.NoError(t, h.PostMessage(withSession(c, created.ID)))

	view := decodeView(t, rec)
	assert.Equal(t, core.Apologies["English"], view.Turns[2].DisplayedContent)
}

func TestHandler_PostMessage_Empty(t *testing.T) {
	h := newTestHandler(nil)
	created := createSession(t, h, "")

	c, _ := newJSONContext(http.MethodPost, "/", `{"content": "  "}`)
	assertHTTPStatus(t, h.PostMessage(withSession(c, created.ID)), http.StatusBadRequest)
}

func TestHandler_SwitchLanguage(t *testing.T) {
	h := newTestHandler(nil)
	created := createSession(t, h, "")

	c, rec := newJSONContext(http.MethodPut, "/", `{"language": "Tamil"}`)
	require.NoError(t, h.SwitchLanguage(withSession(c, created.ID)))
	view := decodeView(t, rec)
	assert.Equal(t, "Tamil", view.ActiveLanguage)
	assert.Equal(t, "[Tamil] "+core.Greetings["English"], view.Turns[0].DisplayedContent)

	c, _ = newJSONContext(http.MethodPut, "/", `{"language": "Klingon"}`)
	assertHTTPStatus(t, h.SwitchLanguage(withSession(c, created.ID)), http.StatusBadRequest)
}

func TestHandler_ResetAndDelete(t *testing.T) {
	h := newTestHandler(nil)
	created := createSession(t, h, "")

	c, _ := newJSONContext(http.MethodPost, "/", `{"content": "hello"}`)
	require.NoError(t, h.PostMessage(withSession(c, created.ID)))

	c, rec := newJSONContext(http.MethodPost, "/", "")
	require.NoError(t, h.ResetSession(withSession(c, created.ID)))
	assert.Len(t, decodeView(t, rec).Turns, 1)

	c, rec = newJSONContext(http.MethodDelete, "/", "")
	require.NoError(t, h.DeleteSession(withSession(c, created.ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, _ = newJSONContext(http.MethodDelete, "/", "")
	assertHTTPStatus(t, h.DeleteSession(withSession(c, created.ID)), http.StatusNotFound)
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{core.ErrSessionNotFound, http.StatusNotFound},
		{core.ErrBusy, http.StatusConflict},
		{fmt.Errorf("%w: %q", core.ErrUnsupportedLanguage, "Klingon"), http.StatusBadRequest},
		{core.ErrEmptyMessage, http.StatusBadRequest},
		{core.ErrSessionClosed, http.StatusGone},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assertHTTPStatus(t, httpError(tt.err), tt.code)
	}
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(nil)
	e := echo.New()
	e.Use(Recovery(zerolog.Nop()))
	e.Use(RequestID())
	e.Use(Logger(zerolog.Nop()))
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/languages", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "rid-1", rec.Header().Get(RequestIDHeader))
	var langs pkg.LanguagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &langs))
	assert.Equal(t, "English", langs.Base)
	assert.Contains(t, langs.Supported, "Odia")
	assert.Len(t, langs.Supported, 11)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/unknown", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	h := Recovery(zerolog.Nop())(func(echo.Context) error { panic("boom") })
	assertHTTPStatus(t, h(c), http.StatusInternalServerError)
}
