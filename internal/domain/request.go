package domain

import "strings"

// MediaType enumerates supported generation outputs.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// ImageType selects the creative framing for an image prompt.
type ImageType string

const (
	ImageTypeProduct    ImageType = "product"
	ImageTypeLifestyle  ImageType = "lifestyle"
	ImageTypeBackground ImageType = "background"
	ImageTypeHero       ImageType = "hero"
)

// Quality enumerates the output quality tiers.
type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHD       Quality = "hd"
	QualityUltra    Quality = "ultra"
)

// Multiplier returns the generation-time multiplier for the tier.
func (q Quality) Multiplier() float64 {
	switch q {
	case QualityHD:
		return 1.5
	case QualityUltra:
		return 2.0
	default:
		return 1.0
	}
}

// CulturalContext tags a request with the market the creative targets.
type CulturalContext string

const (
	CulturalContextAustralian CulturalContext = "australian"
	CulturalContextGlobal     CulturalContext = "global"
	CulturalContextRegional   CulturalContext = "regional"
)

// Territory is the creative direction a campaign asset belongs to.
type Territory struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Positioning string `json:"positioning"`
	Tone        string `json:"tone"`
}

// BrandGuidelines constrains generated assets to a brand identity.
type BrandGuidelines struct {
	Colors             []string `json:"colors"`
	Fonts              []string `json:"fonts"`
	ImageryStyle       []string `json:"imagery_style"`
	ProhibitedElements []string `json:"prohibited_elements"`
}

// GenerationRequest describes one image or video generation. Immutable once
// queued; the queue only ever reads it.
type GenerationRequest struct {
	Type            MediaType       `json:"type"`
	Prompt          string          `json:"prompt"`
	EnhancedPrompt  string          `json:"enhanced_prompt,omitempty"`
	NegativePrompt  string          `json:"negative_prompt,omitempty"`
	ImageType       ImageType       `json:"image_type,omitempty"`
	Territory       Territory       `json:"territory"`
	Brand           BrandGuidelines `json:"brand"`
	CulturalContext CulturalContext `json:"cultural_context,omitempty"`
	Quality         Quality         `json:"quality,omitempty"`
	Provider        string          `json:"provider,omitempty"`

	// Image parameters.
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Style  string `json:"style,omitempty"`

	// Video parameters.
	SourceImageURL string `json:"source_image_url,omitempty"`
	AnimationType  string `json:"animation_type,omitempty"`
	Duration       int    `json:"duration,omitempty"`
	FPS            int    `json:"fps,omitempty"`
	Format         string `json:"format,omitempty"`
}

// PromptText returns the prompt the providers should receive: the enhanced
// prompt when the enhancer ran, the raw prompt otherwise.
func (r GenerationRequest) PromptText() string {
	if p := strings.TrimSpace(r.EnhancedPrompt); p != "" {
		return p
	}
	return strings.TrimSpace(r.Prompt)
}

// Validate rejects structurally unusable requests before they reach the queue.
func (r GenerationRequest) Validate() error {
	switch r.Type {
	case MediaTypeImage, MediaTypeVideo:
	default:
		return ErrInvalidRequest
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrInvalidRequest
	}
	if r.Type == MediaTypeVideo && strings.TrimSpace(r.SourceImageURL) == "" {
		return ErrInvalidRequest
	}
	return nil
}
