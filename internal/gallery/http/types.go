package http

import "github.com/webshelf-app/webshelf-backend/internal/gallery/controller"

// Handler bundles the dependencies for gallery HTTP endpoints.
type Handler struct {
	ctrl *controller.Controller
}

func New(ctrl *controller.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

type createReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Code        string `json:"code"`
	AccentColor string `json:"accentColor"`
}

type updateReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Code        *string `json:"code"`
	AccentColor *string `json:"accentColor"`
}

type reorderReq struct {
	ID string `json:"id"`
}
