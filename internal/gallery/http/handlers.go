package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webshelf-app/webshelf-backend/internal/auth"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
)

func (h *Handler) list(c *gin.Context) {
	entries, err := h.ctrl.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	id, err := h.ctrl.Create(c.Request.Context(), auth.UserFirebaseUID(c), domain.Draft{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		AccentColor: req.AccentColor,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": id})
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	err := h.ctrl.Update(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), domain.Patch{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		AccentColor: req.AccentColor,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.ctrl.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) reorderStart(c *gin.Context) {
	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if err := h.ctrl.BeginReorder(c.Request.Context(), auth.UserFirebaseUID(c), req.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) reorderHover(c *gin.Context) {
	var req reorderReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if err := h.ctrl.ContinueReorder(c.Request.Context(), auth.UserFirebaseUID(c), req.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// reorderDrop ends the gesture. The bulk commit runs in the background; its
// failure is logged and resolved by the next snapshot, not surfaced here.
func (h *Handler) reorderDrop(c *gin.Context) {
	if err := h.ctrl.EndReorder(c.Request.Context(), auth.UserFirebaseUID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) reorderCancel(c *gin.Context) {
	if err := h.ctrl.CancelReorder(c.Request.Context(), auth.UserFirebaseUID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) open(c *gin.Context) {
	sess, err := h.ctrl.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"session_id": sess.ID,
		"viewer_url": "/viewer/" + sess.ID,
	})
}

func (h *Handler) close(c *gin.Context) {
	if err := h.ctrl.Close(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrReadOnly):
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "sign in required"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "not your entry"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "entry not found"})
	case errors.Is(err, domain.ErrInvalidEntry), errors.Is(err, domain.ErrReorderState):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
