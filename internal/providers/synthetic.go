package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/adcraft/creative-engine/internal/domain"
)

// The Midjourney, Stable Diffusion, RunwayML, and Stable Video adapters are
// synthetic: the upstream services have no credentials in this deployment, so
// they produce deterministic placeholder assets after a short delay. They
// still honour context cancellation and the per-call timeout, which keeps the
// fallback chain and queue behaviour realistic.

const defaultStubDelay = 2 * time.Second

func stubDelay(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return defaultStubDelay
}

// Midjourney is a placeholder image adapter.
type Midjourney struct {
	delay time.Duration
}

func NewMidjourney(delay time.Duration) *Midjourney {
	return &Midjourney{delay: stubDelay(delay)}
}

func (m *Midjourney) Name() string { return "midjourney" }

func (m *Midjourney) GenerateImage(ctx context.Context, req ImageRequest) (*domain.GeneratedAsset, error) {
	return syntheticImage(ctx, m.delay, m.Name(), "midjourney-v6", req)
}

// StableDiffusion is a placeholder image adapter.
type StableDiffusion struct {
	delay time.Duration
}

func NewStableDiffusion(delay time.Duration) *StableDiffusion {
	return &StableDiffusion{delay: stubDelay(delay)}
}

func (s *StableDiffusion) Name() string { return "stablediffusion" }

func (s *StableDiffusion) GenerateImage(ctx context.Context, req ImageRequest) (*domain.GeneratedAsset, error) {
	return syntheticImage(ctx, s.delay, s.Name(), "sdxl-1.0", req)
}

// Runway is a placeholder image-to-video adapter. It already accepts the
// account credentials the real client will need, so wiring stays stable when
// the upstream integration lands.
type Runway struct {
	apiKey string
	delay  time.Duration
}

func NewRunway(apiKey string, delay time.Duration) *Runway {
	return &Runway{apiKey: apiKey, delay: stubDelay(delay)}
}

func (r *Runway) Name() string { return "runway" }

// HasCredentials reports whether an API key was configured.
func (r *Runway) HasCredentials() bool { return r.apiKey != "" }

func (r *Runway) GenerateVideo(ctx context.Context, req VideoRequest) (*domain.GeneratedAsset, error) {
	return syntheticVideo(ctx, r.delay, r.Name(), "gen-3-alpha", req)
}

// StableVideo is a placeholder image-to-video adapter.
type StableVideo struct {
	apiKey string
	delay  time.Duration
}

func NewStableVideo(apiKey string, delay time.Duration) *StableVideo {
	return &StableVideo{apiKey: apiKey, delay: stubDelay(delay)}
}

func (s *StableVideo) Name() string { return "stablevideo" }

// HasCredentials reports whether an API key was configured.
func (s *StableVideo) HasCredentials() bool { return s.apiKey != "" }

func (s *StableVideo) GenerateVideo(ctx context.Context, req VideoRequest) (*domain.GeneratedAsset, error) {
	return syntheticVideo(ctx, s.delay, s.Name(), "svd-xt-1.1", req)
}

func syntheticImage(ctx context.Context, delay time.Duration, name, model string, req ImageRequest) (*domain.GeneratedAsset, error) {
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	width, height := req.Width, req.Height
	if width == 0 {
		width = 1024
	}
	if height == 0 {
		height = 1024
	}
	return &domain.GeneratedAsset{
		Type: domain.MediaTypeImage,
		URL:  fmt.Sprintf("https://cdn.adcraft.dev/%s/%s.png", name, req.RequestID),
		Metadata: domain.AssetMetadata{
			EnhancedPrompt: req.Prompt,
			Width:          width,
			Height:         height,
			Format:         "image/png",
			Model:          model,
		},
		Provider:  name,
		CreatedAt: time.Now(),
	}, nil
}

func syntheticVideo(ctx context.Context, delay time.Duration, name, model string, req VideoRequest) (*domain.GeneratedAsset, error) {
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	duration := req.Duration
	if duration <= 0 {
		duration = 5
	}
	fps := req.FPS
	if fps <= 0 {
		fps = 24
	}
	format := req.Format
	if format == "" {
		format = "mp4"
	}
	return &domain.GeneratedAsset{
		Type:         domain.MediaTypeVideo,
		URL:          fmt.Sprintf("https://cdn.adcraft.dev/%s/%s.%s", name, req.RequestID, format),
		ThumbnailURL: fmt.Sprintf("https://cdn.adcraft.dev/%s/%s-thumb.jpg", name, req.RequestID),
		Metadata: domain.AssetMetadata{
			EnhancedPrompt: req.Prompt,
			Width:          1920,
			Height:         1080,
			FileSize:       int64(duration) * 1024 * 1024,
			Format:         "video/" + format,
			Model:          model,
			Duration:       duration,
			FPS:            fps,
			AnimationType:  req.AnimationType,
		},
		Provider:  name,
		CreatedAt: time.Now(),
	}, nil
}

var (
	_ ImageAdapter = (*Midjourney)(nil)
	_ ImageAdapter = (*StableDiffusion)(nil)
	_ VideoAdapter = (*Runway)(nil)
	_ VideoAdapter = (*StableVideo)(nil)
)
