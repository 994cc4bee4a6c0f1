package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/providers/openai"
)

// openAIImageClient is the slice of the OpenAI client the adapter needs;
// tests substitute a stub.
type openAIImageClient interface {
	GenerateImage(ctx context.Context, req openai.ImageRequest) (*openai.ImageResult, error)
	Model() string
}

// OpenAI adapts the OpenAI images client to the uniform ImageAdapter contract.
type OpenAI struct {
	client openAIImageClient
}

func NewOpenAI(client openAIImageClient) *OpenAI {
	return &OpenAI{client: client}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) GenerateImage(ctx context.Context, req ImageRequest) (*domain.GeneratedAsset, error) {
	result, err := o.client.GenerateImage(ctx, openai.ImageRequest{
		Prompt:    req.Prompt,
		Size:      sizeToken(req.Width, req.Height),
		Quality:   openAIQuality(req.Quality),
		Style:     req.Style,
		Quantity:  req.Quantity,
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
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
		URL:  result.URL,
		Metadata: domain.AssetMetadata{
			EnhancedPrompt: req.Prompt,
			Width:          width,
			Height:         height,
			Format:         "image/png",
			Model:          result.Model,
		},
		Provider:  o.Name(),
		CreatedAt: time.Now(),
	}, nil
}

// sizeToken maps pixel dimensions onto the sizes the API accepts.
func sizeToken(width, height int) string {
	switch {
	case width == 0 || height == 0:
		return "1024x1024"
	case width > height:
		return "1792x1024"
	case height > width:
		return "1024x1792"
	default:
		return "1024x1024"
	}
}

// openAIQuality folds the ultra tier into hd; the API only knows two tiers.
func openAIQuality(q domain.Quality) string {
	switch q {
	case domain.QualityHD, domain.QualityUltra:
		return "hd"
	default:
		return "standard"
	}
}

var _ ImageAdapter = (*OpenAI)(nil)
