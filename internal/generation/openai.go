package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/config"
	"github.com/inkwell-hq/inkwell/pkg/util"
)

// Client talks to an OpenAI-compatible API. It implements both Generator
// and ImageGenerator.
type Client struct {
	config *config.GenerationConfig
	logger *zap.Logger
	client *http.Client
}

func NewClient(cfg *config.GenerationConfig, logger *zap.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

const systemPrompt = `You are an SEO content writer. Respond with a single JSON object:
{"title": string, "meta_title": string, "meta_description": string, "content": string (markdown), "headings": [{"level": int, "text": string}]}
The meta_title must be 50-60 characters and the meta_description 150-160 characters.
Start the content with one h1 heading and never skip heading levels.
Weave the provided internal links into the article where they fit naturally.`

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) GenerateContent(ctx context.Context, keyword string, wordCount int, links []LinkContext) (*GeneratedContent, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Write a %d-word article targeting the keyword %q.\n", wordCount, keyword)
	if len(links) > 0 {
		prompt.WriteString("Internal links to reference:\n")
		for _, link := range links {
			fmt.Fprintf(&prompt, "- %s (%s)", link.Title, link.URL)
			if link.Heading != "" {
				fmt.Fprintf(&prompt, " — section: %s", link.Heading)
			}
			prompt.WriteString("\n")
		}
	}

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt.String()},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", c.config.APIKey, reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationError{Reason: "empty completion response"}
	}

	var content GeneratedContent
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &content); err != nil {
		return nil, &GenerationError{Reason: "malformed completion JSON: " + err.Error()}
	}
	if content.Title == "" || content.Content == "" {
		return nil, &GenerationError{Reason: "completion is missing title or content"}
	}
	if got := util.WordCount(content.Content); wordCount > 0 && got > wordCount*3 {
		return nil, &GenerationError{Reason: fmt.Sprintf("oversized output: %d words for a %d-word target", got, wordCount)}
	}

	c.logger.Debug("Content generated",
		zap.String("keyword", keyword),
		zap.Int("word_count", util.WordCount(content.Content)))

	return &content, nil
}

func (c *Client) Enabled() bool {
	return c.config.ImageAPIKey != ""
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (c *Client) GenerateImage(ctx context.Context, description string) (*GeneratedImage, error) {
	reqBody := imageRequest{
		Model:  c.config.ImageModel,
		Prompt: description,
		N:      1,
	}

	var resp imageResponse
	if err := c.post(ctx, "/images/generations", c.config.ImageAPIKey, reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, &GenerationError{Reason: "image response contains no URL"}
	}

	return &GeneratedImage{
		URL:     resp.Data[0].URL,
		AltText: util.Truncate(description, 125),
	}, nil
}

func (c *Client) post(ctx context.Context, path, apiKey string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("generation API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
