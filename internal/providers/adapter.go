package providers

import (
	"context"

	"github.com/adcraft/creative-engine/internal/domain"
)

// ImageRequest is the uniform contract an image adapter receives. The prompt
// is already enhanced by the time it reaches an adapter.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Quality        domain.Quality
	Style          string
	Quantity       int
	RequestID      string
}

// VideoRequest is the uniform contract a video adapter receives.
type VideoRequest struct {
	Prompt         string
	SourceImageURL string
	AnimationType  string
	Duration       int
	FPS            int
	Format         string
	Quality        domain.Quality
	RequestID      string
}

// ImageAdapter wraps one external text-to-image service.
type ImageAdapter interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) (*domain.GeneratedAsset, error)
}

// VideoAdapter wraps one external image-to-video service.
type VideoAdapter interface {
	Name() string
	GenerateVideo(ctx context.Context, req VideoRequest) (*domain.GeneratedAsset, error)
}
