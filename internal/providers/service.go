package providers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/infra"
	"github.com/adcraft/creative-engine/internal/ratelimit"
)

// qualityDimensions resolves the default output size per quality tier when a
// request does not specify dimensions.
var qualityDimensions = map[domain.Quality][2]int{
	domain.QualityStandard: {1024, 1024},
	domain.QualityHD:       {1536, 1536},
	domain.QualityUltra:    {1792, 1792},
}

// ServiceOptions configures the provider service.
type ServiceOptions struct {
	Limiter        *ratelimit.Limiter
	Configs        map[string]Config
	ImageAdapters  []ImageAdapter
	VideoAdapters  []VideoAdapter
	ImageFallbacks []string
	VideoFallbacks []string
	Logger         *infra.Logger
}

// Service routes generation requests through an ordered provider fallback
// chain: preferred provider first, configured fallbacks next, then every
// remaining provider of the media type. Providers are tried one at a time.
type Service struct {
	limiter        *ratelimit.Limiter
	configs        map[string]Config
	image          map[string]ImageAdapter
	video          map[string]VideoAdapter
	imageFallbacks []string
	videoFallbacks []string
	logger         infra.Logger
}

// NewService constructs the provider service with sane defaults.
func NewService(opts ServiceOptions) *Service {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter()
	}
	configs := opts.Configs
	if configs == nil {
		configs = DefaultConfigs()
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	s := &Service{
		limiter:        limiter,
		configs:        configs,
		image:          make(map[string]ImageAdapter, len(opts.ImageAdapters)),
		video:          make(map[string]VideoAdapter, len(opts.VideoAdapters)),
		imageFallbacks: opts.ImageFallbacks,
		videoFallbacks: opts.VideoFallbacks,
		logger:         logger,
	}
	for _, adapter := range opts.ImageAdapters {
		s.image[adapter.Name()] = adapter
	}
	for _, adapter := range opts.VideoAdapters {
		s.video[adapter.Name()] = adapter
	}
	return s
}

// ConfigFor returns the descriptor for a provider, falling back to a
// permissive default for providers registered without one.
func (s *Service) ConfigFor(name string) Config {
	if cfg, ok := s.configs[name]; ok {
		return cfg
	}
	return Config{Name: name, MaxRetries: 1, Timeout: 60 * time.Second}
}

// NextAvailable reports when the named provider can accept another request.
func (s *Service) NextAvailable(name string) time.Time {
	return s.limiter.NextAvailableTime(name, s.ConfigFor(name).RateLimit)
}

// GenerateImage tries each image provider in chain order and returns the
// first success. Rate-limited providers are skipped, failing providers
// advance the chain, and an exhausted chain yields ErrAllProvidersFailed.
func (s *Service) GenerateImage(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedAsset, error) {
	chain := s.buildChain(req.Provider, s.imageFallbacks, domain.MediaTypeImage)
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no image providers registered", domain.ErrAllProvidersFailed)
	}

	imageReq := s.imageRequestFrom(req)
	var lastErr error
	for _, name := range chain {
		cfg := s.ConfigFor(name)
		if !s.limiter.TryAcquire(name, cfg.RateLimit) {
			s.logger.Warn().
				Str("provider", name).
				Time("next_available", s.limiter.NextAvailableTime(name, cfg.RateLimit)).
				Msg("provider rate limited, skipping")
			continue
		}
		asset, err := s.callImage(ctx, s.image[name], cfg, imageReq)
		if err != nil {
			lastErr = err
			s.logger.Error().Err(err).Str("provider", name).Msg("image generation failed, advancing chain")
			continue
		}
		s.finalize(asset, cfg, req)
		return asset, nil
	}
	return nil, exhausted(lastErr, "image")
}

// GenerateVideo is the video counterpart of GenerateImage.
func (s *Service) GenerateVideo(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedAsset, error) {
	chain := s.buildChain(req.Provider, s.videoFallbacks, domain.MediaTypeVideo)
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: no video providers registered", domain.ErrAllProvidersFailed)
	}

	videoReq := videoRequestFrom(req)
	var lastErr error
	for _, name := range chain {
		cfg := s.ConfigFor(name)
		if !s.limiter.TryAcquire(name, cfg.RateLimit) {
			s.logger.Warn().
				Str("provider", name).
				Time("next_available", s.limiter.NextAvailableTime(name, cfg.RateLimit)).
				Msg("provider rate limited, skipping")
			continue
		}
		asset, err := s.callVideo(ctx, s.video[name], cfg, videoReq)
		if err != nil {
			lastErr = err
			s.logger.Error().Err(err).Str("provider", name).Msg("video generation failed, advancing chain")
			continue
		}
		s.finalize(asset, cfg, req)
		return asset, nil
	}
	return nil, exhausted(lastErr, "video")
}

func (s *Service) callImage(ctx context.Context, adapter ImageAdapter, cfg Config, req ImageRequest) (*domain.GeneratedAsset, error) {
	callCtx, cancel := s.callContext(ctx, cfg)
	defer cancel()
	start := time.Now()
	asset, err := adapter.GenerateImage(callCtx, req)
	if err != nil {
		return nil, err
	}
	asset.GenerationTime = time.Since(start)
	return asset, nil
}

func (s *Service) callVideo(ctx context.Context, adapter VideoAdapter, cfg Config, req VideoRequest) (*domain.GeneratedAsset, error) {
	callCtx, cancel := s.callContext(ctx, cfg)
	defer cancel()
	start := time.Now()
	asset, err := adapter.GenerateVideo(callCtx, req)
	if err != nil {
		return nil, err
	}
	asset.GenerationTime = time.Since(start)
	return asset, nil
}

func (s *Service) callContext(ctx context.Context, cfg Config) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}

// buildChain assembles the deduplicated candidate order: explicit provider
// when it is registered for the media type, configured fallbacks, then all
// remaining registered providers sorted by name.
func (s *Service) buildChain(preferred string, fallbacks []string, mediaType domain.MediaType) []string {
	registered := func(name string) bool {
		if mediaType == domain.MediaTypeImage {
			_, ok := s.image[name]
			return ok
		}
		_, ok := s.video[name]
		return ok
	}

	seen := make(map[string]struct{})
	var chain []string
	add := func(name string) {
		if name == "" || !registered(name) {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		chain = append(chain, name)
	}

	add(preferred)
	for _, name := range fallbacks {
		add(name)
	}
	for _, name := range namesOfType(s.configs, mediaType) {
		add(name)
	}
	// Adapters registered without a config descriptor still belong in the
	// chain tail.
	if mediaType == domain.MediaTypeImage {
		for name := range s.image {
			add(name)
		}
	} else {
		for name := range s.video {
			add(name)
		}
	}
	return chain
}

func (s *Service) imageRequestFrom(req domain.GenerationRequest) ImageRequest {
	width, height := req.Width, req.Height
	if width == 0 || height == 0 {
		dims := qualityDimensions[domain.QualityStandard]
		if d, ok := qualityDimensions[req.Quality]; ok {
			dims = d
		}
		width, height = dims[0], dims[1]
	}
	return ImageRequest{
		Prompt:         req.PromptText(),
		NegativePrompt: req.NegativePrompt,
		Width:          width,
		Height:         height,
		Quality:        req.Quality,
		Style:          req.Style,
		Quantity:       1,
		RequestID:      uuid.NewString(),
	}
}

func videoRequestFrom(req domain.GenerationRequest) VideoRequest {
	return VideoRequest{
		Prompt:         req.PromptText(),
		SourceImageURL: req.SourceImageURL,
		AnimationType:  req.AnimationType,
		Duration:       req.Duration,
		FPS:            req.FPS,
		Format:         req.Format,
		Quality:        req.Quality,
		RequestID:      uuid.NewString(),
	}
}

// finalize stamps the config- and request-derived fields a successful asset
// carries regardless of which adapter produced it.
func (s *Service) finalize(asset *domain.GeneratedAsset, cfg Config, req domain.GenerationRequest) {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	asset.Quality = req.Quality
	if asset.Quality == "" {
		asset.Quality = domain.QualityStandard
	}
	asset.Cost = cfg.CostPerCall
	if asset.Metadata.OriginalPrompt == "" {
		asset.Metadata.OriginalPrompt = req.Prompt
	}
	if asset.Metadata.EnhancedPrompt == "" {
		asset.Metadata.EnhancedPrompt = req.PromptText()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
}

func exhausted(lastErr error, mediaType string) error {
	if lastErr != nil {
		return fmt.Errorf("%w: last %s provider error: %v", domain.ErrAllProvidersFailed, mediaType, lastErr)
	}
	return fmt.Errorf("%w: every %s provider rate limited", domain.ErrAllProvidersFailed, mediaType)
}
