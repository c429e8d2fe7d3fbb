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

const shopifyAPIVersion = "2024-01"

// ShopifyAdapter publishes blog articles through the Admin API.
type ShopifyAdapter struct {
	logger *zap.Logger
	client *http.Client
}

type shopifyCredentials struct {
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"access_token"`
	BlogID      int64  `json:"blog_id"`
}

type shopifyArticleRequest struct {
	Article shopifyArticle `json:"article"`
}

type shopifyArticle struct {
	Title       string `json:"title"`
	BodyHTML    string `json:"body_html"`
	Handle      string `json:"handle"`
	SummaryHTML string `json:"summary_html,omitempty"`
	Published   bool   `json:"published"`
}

type shopifyArticleResponse struct {
	Article struct {
		ID     int64  `json:"id"`
		Handle string `json:"handle"`
	} `json:"article"`
}

func NewShopifyAdapter(logger *zap.Logger) *ShopifyAdapter {
	return &ShopifyAdapter{
		logger: logger,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (a *ShopifyAdapter) Name() models.SiteType {
	return models.SiteTypeShopify
}

func (a *ShopifyAdapter) credentials(site *models.Site) (*shopifyCredentials, error) {
	var creds shopifyCredentials
	if err := json.Unmarshal(site.Credentials, &creds); err != nil {
		return nil, fmt.Errorf("invalid shopify credentials for site %d: %w", site.ID, err)
	}
	if creds.ShopDomain == "" || creds.AccessToken == "" || creds.BlogID == 0 {
		return nil, fmt.Errorf("shopify credentials for site %d are missing shop domain, token or blog id", site.ID)
	}
	return &creds, nil
}

func (a *ShopifyAdapter) apiURL(creds *shopifyCredentials, path string) string {
	domain := strings.TrimSuffix(creds.ShopDomain, "/")
	if !strings.HasPrefix(domain, "http") {
		domain = "https://" + domain
	}
	return fmt.Sprintf("%s/admin/api/%s%s", domain, shopifyAPIVersion, path)
}

func (a *ShopifyAdapter) TestConnection(ctx context.Context, site *models.Site) error {
	creds, err := a.credentials(site)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiURL(creds, "/shop.json"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", creds.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach shopify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("shopify connection test returned status %d", resp.StatusCode)
	}
	return nil
}

func (a *ShopifyAdapter) Publish(ctx context.Context, site *models.Site, pub PublishRequest) (*PublishResult, error) {
	creds, err := a.credentials(site)
	if err != nil {
		return nil, err
	}

	handle := slug.Make(pub.Title)
	body := shopifyArticleRequest{
		Article: shopifyArticle{
			Title:       pub.Title,
			BodyHTML:    pub.Content,
			Handle:      handle,
			SummaryHTML: pub.MetaDescription,
			Published:   true,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal article: %w", err)
	}

	url := a.apiURL(creds, fmt.Sprintf("/blogs/%d/articles.json", creds.BlogID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to publish to shopify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("shopify returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var created shopifyArticleResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode shopify response: %w", err)
	}

	a.logger.Info("Published to Shopify",
		zap.Uint("site_id", site.ID),
		zap.Int64("article_id", created.Article.ID))

	articleURL := fmt.Sprintf("%s/blogs/%d/%s",
		strings.TrimSuffix(site.URL, "/"), creds.BlogID, created.Article.Handle)

	return &PublishResult{
		ExternalID: strconv.FormatInt(created.Article.ID, 10),
		URL:        articleURL,
	}, nil
}
