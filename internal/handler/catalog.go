package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/answer"
	"github.com/iliyamo/table-reservation/internal/chat"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/service"
)

// SectionLister lists the floor plan.
type SectionLister interface {
	Sections(ctx context.Context, all bool) ([]service.SectionView, error)
}

// Sections handles GET /v1/sections: open sections with their active
// tables, by priority.
func Sections(inv SectionLister) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := withTimeout(c)
		defer cancel()
		out, err := inv.Sections(ctx, false)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"sections": out})
	}
}

// ChatHandler exposes the booking assistant.
type ChatHandler struct {
	Assistant *chat.Assistant
}

type chatReq struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Message handles POST /v1/chat.  The session comes from the body or the
// X-Session-ID header; a new one is issued when both are empty.
func (h *ChatHandler) Message(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is required"})
	}
	if len(req.Message) > 2000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is too long"})
	}
	sid := req.SessionID
	if sid == "" {
		sid = c.Request().Header.Get(middleware.SessionHeader)
	}
	// the assistant may call the store more than once per message
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*dbTimeout)
	defer cancel()
	reply, err := h.Assistant.Handle(ctx, sid, req.Message)
	if err != nil {
		c.Logger().Errorf("chat: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "chat is temporarily unavailable"})
	}
	c.Response().Header().Set(middleware.SessionHeader, reply.SessionID)
	return c.JSON(http.StatusOK, reply)
}

// Reset handles DELETE /v1/chat/:session.
func (h *ChatHandler) Reset(c echo.Context) error {
	if err := h.Assistant.Reset(c.Request().Context(), c.Param("session")); err != nil {
		c.Logger().Errorf("chat reset: %v", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "chat is temporarily unavailable"})
	}
	return c.NoContent(http.StatusNoContent)
}

type faqReq struct {
	Question string `json:"question"`
}

// FAQ handles POST /v1/faq and answers with {answer, confidence}.
func FAQ(a answer.Answerer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req faqReq
		if err := c.Bind(&req); err != nil {
			return badBody(c)
		}
		q := strings.TrimSpace(req.Question)
		if q == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "question is required"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*dbTimeout)
		defer cancel()
		ans, err := a.Answer(ctx, q)
		if err != nil {
			c.Logger().Errorf("faq via %s: %v", a.Name(), err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "answers are temporarily unavailable"})
		}
		return c.JSON(http.StatusOK, ans)
	}
}
