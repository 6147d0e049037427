// Package service implements the application actions behind the HTTP
// handlers.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/store"
)

// filenamePrefixLen is how much of the prompt survives into the stored
// filename.
const filenamePrefixLen = 20

// Generator produces an image for a prompt and fetches its bytes.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Uploader moves image bytes to permanent storage.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// ImageStore persists generated image records.
type ImageStore interface {
	CreateGeneratedImage(ctx context.Context, arg store.CreateGeneratedImageParams) (model.GeneratedImage, error)
	ListImagesByUser(ctx context.Context, userID string) ([]model.GeneratedImage, error)
}

// GenerateResult is the uniform outcome of a generation attempt. Failures
// carry a message and no image.
type GenerateResult struct {
	Success bool                  `json:"success"`
	Image   *model.GeneratedImage `json:"image,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ImageService runs the generate-download-upload-record pipeline.
type ImageService struct {
	generator Generator
	uploader  Uploader
	images    ImageStore
	model     string
	log       *slog.Logger
	now       func() time.Time
}

// NewImageService creates the image pipeline. model is the generation
// model identifier sent upstream.
func NewImageService(generator Generator, uploader Uploader, images ImageStore, model string, log *slog.Logger) *ImageService {
	return &ImageService{
		generator: generator,
		uploader:  uploader,
		images:    images,
		model:     model,
		log:       log,
		now:       time.Now,
	}
}

// Generate runs the full pipeline for a prompt on behalf of a user. Any
// stage failure yields a failure result and writes nothing to the
// database; the stage detail goes to the log, not the caller.
func (s *ImageService) Generate(ctx context.Context, userID, prompt string) GenerateResult {
	if prompt == "" {
		return GenerateResult{Error: "prompt is required"}
	}

	srcURL, err := s.generator.Generate(ctx, s.model, prompt)
	if err != nil {
		s.log.Error("image generation failed", "user_id", userID, "error", err)
		return GenerateResult{Error: "Failed to generate image"}
	}

	data, err := s.generator.Download(ctx, srcURL)
	if err != nil {
		s.log.Error("image download failed", "user_id", userID, "error", err)
		return GenerateResult{Error: "Failed to generate image"}
	}

	permanentURL, err := s.uploader.Upload(ctx, s.filename(prompt), data)
	if err != nil {
		s.log.Error("image upload failed", "user_id", userID, "error", err)
		return GenerateResult{Error: "Failed to generate image"}
	}

	image, err := s.images.CreateGeneratedImage(ctx, store.CreateGeneratedImageParams{
		ID:     uuid.NewString(),
		URL:    permanentURL,
		Prompt: prompt,
		UserID: userID,
	})
	if err != nil {
		s.log.Error("image record failed", "user_id", userID, "error", err)
		return GenerateResult{Error: "Failed to generate image"}
	}

	return GenerateResult{Success: true, Image: &image}
}

// List returns the user's generated images, newest first.
func (s *ImageService) List(ctx context.Context, userID string) ([]model.GeneratedImage, error) {
	images, err := s.images.ListImagesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return images, nil
}

// filename derives the stored name from the prompt: the first 20 chars
// with non-alphanumerics replaced by underscores, then a millisecond
// timestamp. Truncation counts runes so a multibyte prompt is never cut
// mid-character.
func (s *ImageService) filename(prompt string) string {
	prefix := []rune(prompt)
	if len(prefix) > filenamePrefixLen {
		prefix = prefix[:filenamePrefixLen]
	}
	sanitized := make([]rune, len(prefix))
	for i, c := range prefix {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sanitized[i] = c
		default:
			sanitized[i] = '_'
		}
	}
	return string(sanitized) + "_" + strconv.FormatInt(s.now().UnixMilli(), 10) + ".png"
}
