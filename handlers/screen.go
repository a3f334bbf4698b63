// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/pollgate/display"
	"github.com/danielhkuo/pollgate/middleware"
	"github.com/danielhkuo/pollgate/models"
)

// ScreenHandler serves what each voter currently sees.
type ScreenHandler struct {
	mailbox *display.Mailbox
}

func NewScreenHandler(mailbox *display.Mailbox) *ScreenHandler {
	return &ScreenHandler{mailbox: mailbox}
}

// GetScreen handles GET /screen
func (h *ScreenHandler) GetScreen(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterOrReject(w, r)
	if !ok {
		return
	}

	screen, ok := h.mailbox.Screen(voter.ID)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Nothing on screen")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, screen)
}

// GetImage handles GET /screen/messages/{file}, where file is "<handle>.png".
// Only the message currently on the voter's screen is served.
func (h *ScreenHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	voter, ok := voterOrReject(w, r)
	if !ok {
		return
	}

	handle, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok || handle == "" {
		middleware.ErrorResponse(w, http.StatusNotFound, "Image not found")
		return
	}

	img, ok := h.mailbox.Image(voter.ID, models.MessageHandle(handle))
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Image not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}
