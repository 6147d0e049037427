package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/thecoachmanuel/presentmax/internal/middleware"
	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/service"
)

// ImagePipeline runs the generation pipeline and lists stored images.
type ImagePipeline interface {
	Generate(ctx context.Context, userID, prompt string) service.GenerateResult
	List(ctx context.Context, userID string) ([]model.GeneratedImage, error)
}

// ImagesHandler serves the image generation API.
type ImagesHandler struct {
	images ImagePipeline
	log    *slog.Logger
}

// NewImagesHandler creates the images handler.
func NewImagesHandler(images ImagePipeline, log *slog.Logger) *ImagesHandler {
	return &ImagesHandler{images: images, log: log}
}

// Generate handles POST /api/images/generate.
func (h *ImagesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, service.GenerateResult{Error: "invalid request body"})
		return
	}

	result := h.images.Generate(r.Context(), s.UserID, req.Prompt)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
		if result.Error == "prompt is required" {
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, result)
}

// List handles GET /api/images.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.Authorized(w, r)
	if !ok {
		return
	}

	images, err := h.images.List(r.Context(), s.UserID)
	if err != nil {
		h.log.Error("listing images", "user_id", s.UserID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if images == nil {
		images = []model.GeneratedImage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}
