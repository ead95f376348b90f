package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"eternal/internal/repository"
	"eternal/internal/transport/rest/middleware"
)

// ImageHandler serves stored palm images back to their owner
type ImageHandler struct {
	images repository.ImageRepo
}

// NewImageHandler creates a new image handler
func NewImageHandler(images repository.ImageRepo) *ImageHandler {
	return &ImageHandler{images: images}
}

// Get handles GET /v1/images/{id}
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	img, err := h.images.Open(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, repository.ErrImageNotFound) {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load image")
		return
	}
	// someone else's image looks the same as a missing one
	if img.OwnerID != userID {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}
