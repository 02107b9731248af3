package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webshelf-app/webshelf-backend/internal/metrics"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox/service"
)

// Handler serves the viewer shell and the isolated frame documents.
type Handler struct {
	svc *service.Service
	met *metrics.Metrics
}

func New(svc *service.Service, met *metrics.Metrics) *Handler {
	if met == nil {
		met = metrics.NewNop()
	}
	return &Handler{svc: svc, met: met}
}

// viewer renders the host page for a session. An unknown or expired session
// gets the neutral placeholder; no isolated context is built for it.
func (h *Handler) viewer(c *gin.Context) {
	sessionID := c.Param("session_id")

	sess, err := h.svc.Session(c.Request.Context(), sessionID)
	if errors.Is(err, sandbox.ErrSessionNotFound) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", sandbox.PlaceholderPage())
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "viewer unavailable")
		return
	}

	page, err := sandbox.HostPage(sess, "/viewer/"+sess.ID+"/frame")
	if err != nil {
		c.String(http.StatusInternalServerError, "viewer unavailable")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// frame serves the isolated document itself. It only ever renders inside the
// host page's sandboxed iframe, where the fixed permission set applies.
func (h *Handler) frame(c *gin.Context) {
	sessionID := c.Param("session_id")

	sess, err := h.svc.Session(c.Request.Context(), sessionID)
	if errors.Is(err, sandbox.ErrSessionNotFound) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", sandbox.PlaceholderPage())
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "viewer unavailable")
		return
	}

	h.met.FrameServed()
	c.Data(http.StatusOK, "text/html; charset=utf-8", sandbox.FrameDocument(sess))
}
