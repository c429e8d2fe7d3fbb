// Package generation defines the AI capabilities the pipeline consumes:
// article generation and image generation. Handlers depend on the
// interfaces, not on the OpenAI-compatible client that implements them.
package generation

import (
	"context"
	"fmt"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// LinkContext is one internal-link candidate passed to the generator so the
// produced article can reference existing content on the site.
type LinkContext struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Heading string `json:"heading,omitempty"`
}

// GeneratedContent is the structured result of one generation call.
type GeneratedContent struct {
	Title           string           `json:"title"`
	MetaTitle       string           `json:"meta_title"`
	MetaDescription string           `json:"meta_description"`
	Content         string           `json:"content"`
	Headings        []models.Heading `json:"headings"`
}

// GeneratedImage is the result of one image generation call.
type GeneratedImage struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text"`
}

// Generator produces an article for a keyword.
type Generator interface {
	GenerateContent(ctx context.Context, keyword string, wordCount int, links []LinkContext) (*GeneratedContent, error)
}

// ImageGenerator produces one image per call. Enabled reports whether the
// capability is configured; callers skip image generation when it is not.
type ImageGenerator interface {
	Enabled() bool
	GenerateImage(ctx context.Context, description string) (*GeneratedImage, error)
}

// GenerationError marks malformed or oversized generator output.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Reason)
}
