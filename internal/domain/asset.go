package domain

import "time"

// AssetMetadata records how an asset was produced.
type AssetMetadata struct {
	OriginalPrompt string `json:"original_prompt"`
	EnhancedPrompt string `json:"enhanced_prompt,omitempty"`
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	FileSize       int64  `json:"file_size,omitempty"`
	Format         string `json:"format,omitempty"`
	Model          string `json:"model,omitempty"`
	Duration       int    `json:"duration,omitempty"`
	FPS            int    `json:"fps,omitempty"`
	AnimationType  string `json:"animation_type,omitempty"`
}

// GeneratedAsset is the immutable output of one successful provider call.
type GeneratedAsset struct {
	ID             string        `json:"id"`
	Type           MediaType     `json:"type"`
	URL            string        `json:"url"`
	ThumbnailURL   string        `json:"thumbnail_url,omitempty"`
	StorageKey     string        `json:"storage_key,omitempty"`
	Metadata       AssetMetadata `json:"metadata"`
	Provider       string        `json:"provider"`
	GenerationTime time.Duration `json:"generation_time"`
	Quality        Quality       `json:"quality"`
	Cost           float64       `json:"cost"`
	CreatedAt      time.Time     `json:"created_at"`
}
