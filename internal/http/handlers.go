package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"medassist/internal/core"
	"medassist/internal/translate"
	"medassist/pkg"
)

// Handler exposes conversation sessions over JSON.
type Handler struct {
	sessions *core.Store
	chat     *core.ChatService
	logger   zerolog.Logger
}

// NewHandler creates a new session handler.
func NewHandler(sessions *core.Store, chat *core.ChatService, logger zerolog.Logger) *Handler {
	return &Handler{sessions: sessions, chat: chat, logger: logger}
}

// RegisterRoutes registers the session endpoints.
//
//	GET    /health
//	GET    /api/languages
//	POST   /api/sessions
//	GET    /api/sessions/:id
//	DELETE /api/sessions/:id
//	POST   /api/sessions/:id/messages
//	PUT    /api/sessions/:id/language
//	POST   /api/sessions/:id/reset
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/languages", h.ListLanguages)
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions/:id", h.GetSession)
	g.DELETE("/sessions/:id", h.DeleteSession)
	g.POST("/sessions/:id/messages", h.PostMessage)
	g.PUT("/sessions/:id/language", h.SwitchLanguage)
	g.POST("/sessions/:id/reset", h.ResetSession)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, pkg.LanguagesResponse{
		Base:      h.sessions.BaseLanguage(),
		Supported: translate.Supported(),
	})
}

// CreateSession handles POST /api/sessions.  The new conversation holds a
// single greeting in the requested language.
func (h *Handler) CreateSession(c echo.Context) error {
	var req pkg.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	if req.PatientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	if req.Language != "" {
		if _, ok := translate.LookupCode(req.Language); !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unsupported language: "+req.Language)
		}
	}

	sess := h.sessions.Create(c.Request().Context(), req.PatientID, req.Language)
	h.logger.Info().Str("session_id", sess.ID).Str("language", sess.ActiveLanguage()).Msg("session created")
	return c.JSON(http.StatusCreated, sess.View())
}

func (h *Handler) GetSession(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess.View())
}

// DeleteSession handles DELETE /api/sessions/:id.  Translations still
// running for the session are cancelled.
func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PostMessage handles POST /api/sessions/:id/messages and blocks until the
// assistant has answered.
func (h *Handler) PostMessage(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	var req pkg.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := h.chat.Reply(c.Request().Context(), sess, req.Content); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess.View())
}

// SwitchLanguage handles PUT /api/sessions/:id/language.  A switch that had
// to be abandoned still answers 200; the view then shows the previous
// language.
func (h *Handler) SwitchLanguage(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	var req pkg.LanguageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	outcome, err := sess.SwitchLanguage(c.Request().Context(), req.Language)
	if err != nil {
		return httpError(err)
	}
	h.logger.Debug().
		Str("session_id", sess.ID).
		Int("translated", outcome.Translated).
		Int("failed", outcome.Failed).
		Bool("rolled_back", outcome.RolledBack).
		Msg("language switch finished")
	return c.JSON(http.StatusOK, sess.View())
}

func (h *Handler) ResetSession(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if err := sess.Reset(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess.View())
}

func httpError(err error) error {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrUnsupportedLanguage), errors.Is(err, core.ErrEmptyMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrSessionClosed):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
