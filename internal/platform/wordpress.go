package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// WordPressAdapter publishes through the wp-json REST API using an
// application password.
type WordPressAdapter struct {
	logger *zap.Logger
	client *http.Client
}

type wordpressCredentials struct {
	Username    string `json:"username"`
	AppPassword string `json:"app_password"`
}

type wordpressPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt,omitempty"`
}

type wordpressPostResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

func NewWordPressAdapter(logger *zap.Logger) *WordPressAdapter {
	return &WordPressAdapter{
		logger: logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (a *WordPressAdapter) Name() models.SiteType {
	return models.SiteTypeWordPress
}

func (a *WordPressAdapter) credentials(site *models.Site) (*wordpressCredentials, error) {
	var creds wordpressCredentials
	if err := json.Unmarshal(site.Credentials, &creds); err != nil {
		return nil, fmt.Errorf("invalid wordpress credentials for site %d: %w", site.ID, err)
	}
	if creds.Username == "" || creds.AppPassword == "" {
		return nil, fmt.Errorf("wordpress credentials for site %d are missing username or app password", site.ID)
	}
	return &creds, nil
}

func (a *WordPressAdapter) TestConnection(ctx context.Context, site *models.Site) error {
	creds, err := a.credentials(site)
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(site.URL, "/") + "/wp-json/wp/v2/users/me"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.AppPassword)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach wordpress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wordpress connection test returned status %d", resp.StatusCode)
	}
	return nil
}

func (a *WordPressAdapter) Publish(ctx context.Context, site *models.Site, pub PublishRequest) (*PublishResult, error) {
	creds, err := a.credentials(site)
	if err != nil {
		return nil, err
	}

	body := wordpressPostRequest{
		Title:   pub.Title,
		Content: pub.Content,
		Status:  "publish",
		Slug:    slug.Make(pub.Title),
		Excerpt: pub.MetaDescription,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	url := strings.TrimSuffix(site.URL, "/") + "/wp-json/wp/v2/posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.AppPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to publish to wordpress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("wordpress returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var created wordpressPostResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode wordpress response: %w", err)
	}

	a.logger.Info("Published to WordPress",
		zap.Uint("site_id", site.ID),
		zap.Int("wp_post_id", created.ID))

	return &PublishResult{
		ExternalID: strconv.Itoa(created.ID),
		URL:        created.Link,
	}, nil
}
