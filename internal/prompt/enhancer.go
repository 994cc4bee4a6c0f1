// Package prompt enriches raw campaign prompts with territory tone, brand
// guidelines, cultural framing, and quality direction before they reach a
// provider. Everything here is pure string assembly: same inputs, same
// enhanced prompt, no I/O.
package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/adcraft/creative-engine/internal/domain"
)

// Enhancement is the full output of one enhancement pass.
type Enhancement struct {
	EnhancedPrompt           string   `json:"enhanced_prompt"`
	NegativePrompt           string   `json:"negative_prompt"`
	StyleKeywords            []string `json:"style_keywords"`
	QualityModifiers         []string `json:"quality_modifiers"`
	CulturalAdaptations      []string `json:"cultural_adaptations"`
	BrandConsistencyElements []string `json:"brand_consistency_elements"`
	Reasoning                string   `json:"reasoning"`
}

// imageTypeTemplates frame the subject per creative role.
var imageTypeTemplates = map[domain.ImageType]string{
	domain.ImageTypeProduct:    "Professional product photograph of %s, studio lighting, clean composition",
	domain.ImageTypeLifestyle:  "Lifestyle photograph featuring %s, natural candid moment, authentic setting",
	domain.ImageTypeBackground: "Background scene for %s, uncluttered negative space for copy overlay",
	domain.ImageTypeHero:       "Hero campaign image of %s, dramatic composition, strong focal point",
}

// toneKeywords maps tone substrings to style keyword triples. Order matters:
// the first matching entry wins.
var toneKeywords = []struct {
	match    string
	keywords [3]string
}{
	{"bold", [3]string{"high contrast", "saturated colour", "confident framing"}},
	{"playful", [3]string{"vibrant palette", "dynamic angles", "whimsical details"}},
	{"premium", [3]string{"luxurious textures", "muted palette", "refined minimalism"}},
	{"luxur", [3]string{"luxurious textures", "muted palette", "refined minimalism"}},
	{"warm", [3]string{"golden hour light", "soft focus", "inviting atmosphere"}},
	{"minimal", [3]string{"clean lines", "generous whitespace", "restrained palette"}},
	{"edgy", [3]string{"moody lighting", "unconventional crops", "urban grit"}},
	{"trust", [3]string{"even lighting", "balanced composition", "approachable subjects"}},
}

var defaultKeywords = [3]string{"professional", "polished", "contemporary"}

// culturalPhrases append market-specific framing.
var culturalPhrases = map[domain.CulturalContext][]string{
	domain.CulturalContextAustralian: {
		"Australian setting and light",
		"relaxed antipodean sensibility",
	},
	domain.CulturalContextRegional: {
		"Asia-Pacific regional setting",
		"locally recognisable context",
	},
	domain.CulturalContextGlobal: {
		"internationally neutral setting",
		"broad cross-market appeal",
	},
}

var qualityModifiers = []string{
	"award-winning advertising photography",
	"8k resolution",
	"sharp focus",
	"colour graded",
}

var genericNegativeTerms = []string{
	"low quality",
	"blurry",
	"distorted",
	"watermark",
	"text artefacts",
	"extra limbs",
}

// Enhance builds the provider-ready prompt for a raw campaign prompt.
func Enhance(raw string, territory domain.Territory, brand domain.BrandGuidelines, imageType domain.ImageType, cultural domain.CulturalContext) Enhancement {
	raw = strings.TrimSpace(raw)
	template, ok := imageTypeTemplates[imageType]
	if !ok {
		template = imageTypeTemplates[domain.ImageTypeProduct]
		imageType = domain.ImageTypeProduct
	}

	styleKeywords := keywordsForTone(territory.Tone)
	adaptations := culturalPhrases[cultural]
	if len(adaptations) == 0 {
		adaptations = culturalPhrases[domain.CulturalContextGlobal]
		cultural = domain.CulturalContextGlobal
	}
	brandElements := brandDescriptors(brand)

	var parts []string
	parts = append(parts, fmt.Sprintf(template, raw))
	if title := strings.TrimSpace(territory.Title); title != "" {
		titled := cases.Title(language.English).String(title)
		parts = append(parts, fmt.Sprintf("creative territory %q", titled))
	}
	if positioning := strings.TrimSpace(territory.Positioning); positioning != "" {
		parts = append(parts, "positioned as "+positioning)
	}
	parts = append(parts, styleKeywords...)
	parts = append(parts, adaptations...)
	parts = append(parts, brandElements...)
	parts = append(parts, qualityModifiers...)

	return Enhancement{
		EnhancedPrompt:           strings.Join(parts, ", "),
		NegativePrompt:           negativePrompt(brand),
		StyleKeywords:            styleKeywords,
		QualityModifiers:         qualityModifiers,
		CulturalAdaptations:      adaptations,
		BrandConsistencyElements: brandElements,
		Reasoning: fmt.Sprintf(
			"Framed as %s imagery; tone %q mapped to style keywords; %s cultural adaptation; %d brand consistency elements applied.",
			imageType, strings.TrimSpace(territory.Tone), cultural, len(brandElements),
		),
	}
}

func keywordsForTone(tone string) []string {
	lowered := strings.ToLower(tone)
	for _, entry := range toneKeywords {
		if strings.Contains(lowered, entry.match) {
			return entry.keywords[:]
		}
	}
	return defaultKeywords[:]
}

func brandDescriptors(brand domain.BrandGuidelines) []string {
	var out []string
	if colors := joinClean(brand.Colors); colors != "" {
		out = append(out, "brand colour palette of "+colors)
	}
	if fonts := joinClean(brand.Fonts); fonts != "" {
		out = append(out, "typography in the spirit of "+fonts)
	}
	for _, rule := range brand.ImageryStyle {
		if rule = strings.TrimSpace(rule); rule != "" {
			out = append(out, rule)
		}
	}
	return out
}

func negativePrompt(brand domain.BrandGuidelines) string {
	terms := make([]string, 0, len(brand.ProhibitedElements)+len(genericNegativeTerms))
	for _, element := range brand.ProhibitedElements {
		if element = strings.TrimSpace(element); element != "" {
			terms = append(terms, element)
		}
	}
	terms = append(terms, genericNegativeTerms...)
	return strings.Join(terms, ", ")
}

func joinClean(values []string) string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return strings.Join(cleaned, ", ")
}
