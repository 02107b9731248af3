package http

import "github.com/gin-gonic/gin"

// Register attaches the viewer routes at the router root; they serve HTML,
// not API JSON.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/viewer/:session_id", h.viewer)
	r.GET("/viewer/:session_id/frame", h.frame)
}
