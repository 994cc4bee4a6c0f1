package providers

import (
	"sort"
	"time"

	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/ratelimit"
)

// Config is the static descriptor for one provider: model, retry budget,
// timeout, rate-limit caps, cost, and output constraints. One instance per
// provider, loaded at service construction and treated as read-only.
type Config struct {
	Name        string
	Type        domain.MediaType
	Model       string
	MaxRetries  int
	Timeout     time.Duration
	RateLimit   ratelimit.Config
	CostPerCall float64
	Formats     []string
	MaxWidth    int
	MaxHeight   int
	MaxDuration int
}

// DefaultConfigs returns the built-in provider descriptors.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		"openai": {
			Name:        "openai",
			Type:        domain.MediaTypeImage,
			Model:       "dall-e-3",
			MaxRetries:  3,
			Timeout:     60 * time.Second,
			RateLimit:   ratelimit.Config{RequestsPerMinute: 5, RequestsPerHour: 100},
			CostPerCall: 0.08,
			Formats:     []string{"png"},
			MaxWidth:    1792,
			MaxHeight:   1792,
		},
		"midjourney": {
			Name:        "midjourney",
			Type:        domain.MediaTypeImage,
			Model:       "midjourney-v6",
			MaxRetries:  2,
			Timeout:     120 * time.Second,
			RateLimit:   ratelimit.Config{RequestsPerMinute: 3, RequestsPerHour: 60},
			CostPerCall: 0.10,
			Formats:     []string{"png", "jpg"},
			MaxWidth:    2048,
			MaxHeight:   2048,
		},
		"stablediffusion": {
			Name:        "stablediffusion",
			Type:        domain.MediaTypeImage,
			Model:       "sdxl-1.0",
			MaxRetries:  3,
			Timeout:     90 * time.Second,
			RateLimit:   ratelimit.Config{RequestsPerMinute: 10, RequestsPerHour: 200},
			CostPerCall: 0.02,
			Formats:     []string{"png", "jpg", "webp"},
			MaxWidth:    1536,
			MaxHeight:   1536,
		},
		"runway": {
			Name:        "runway",
			Type:        domain.MediaTypeVideo,
			Model:       "gen-3-alpha",
			MaxRetries:  2,
			Timeout:     5 * time.Minute,
			RateLimit:   ratelimit.Config{RequestsPerMinute: 2, RequestsPerHour: 30},
			CostPerCall: 0.50,
			Formats:     []string{"mp4"},
			MaxDuration: 10,
		},
		"stablevideo": {
			Name:        "stablevideo",
			Type:        domain.MediaTypeVideo,
			Model:       "svd-xt-1.1",
			MaxRetries:  3,
			Timeout:     4 * time.Minute,
			RateLimit:   ratelimit.Config{RequestsPerMinute: 4, RequestsPerHour: 60},
			CostPerCall: 0.20,
			Formats:     []string{"mp4", "webm"},
			MaxDuration: 5,
		},
	}
}

// namesOfType returns the registered provider names for a media type, sorted
// so chain order is stable.
func namesOfType(configs map[string]Config, mediaType domain.MediaType) []string {
	names := make([]string, 0, len(configs))
	for name, cfg := range configs {
		if cfg.Type == mediaType {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
