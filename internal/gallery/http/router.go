package http

import "github.com/gin-gonic/gin"

// Register attaches entry CRUD and viewer routes to the entries group.
// Reads are open to guests; the controller rejects writes without an
// identity.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/open", h.open)
}

// RegisterReorder attaches the drag-gesture endpoints: one per engine
// transition.
func (h *Handler) RegisterReorder(rg *gin.RouterGroup) {
	rg.POST("/start", h.reorderStart)
	rg.POST("/hover", h.reorderHover)
	rg.POST("/drop", h.reorderDrop)
	rg.POST("/cancel", h.reorderCancel)
}

// RegisterViewer attaches viewer lifecycle intents to the API group.
func (h *Handler) RegisterViewer(rg *gin.RouterGroup) {
	rg.POST("/viewer/close", h.close)
}
