package handlers

import (
	"net/http"

	"github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/realtime"
)

// WSHandler upgrades authenticated callers onto their own user channel.
type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeUser(w, r, middleware.GetUserID(r.Context()))
}
