package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/models"
)

func shopifySite(shopURL string) *models.Site {
	creds, _ := json.Marshal(shopifyCredentials{
		ShopDomain:  shopURL,
		AccessToken: "shpat_test",
		BlogID:      7,
	})
	return &models.Site{
		ID:          2,
		URL:         "https://store.test",
		Type:        models.SiteTypeShopify,
		Credentials: creds,
	}
}

func TestShopifyPublish(t *testing.T) {
	var got shopifyArticleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/admin/api/" + shopifyAPIVersion + "/blogs/7/articles.json"; r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
			t.Errorf("access token header = %q", r.Header.Get("X-Shopify-Access-Token"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"article":{"id":991,"handle":"spring-sale-guide"}}`)
	}))
	defer srv.Close()

	adapter := NewShopifyAdapter(zap.NewNop())
	result, err := adapter.Publish(context.Background(), shopifySite(srv.URL), PublishRequest{
		Title:           "Spring Sale Guide",
		Content:         "<p>Body</p>",
		MetaDescription: "Summary",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.ExternalID != "991" {
		t.Errorf("external id = %q, want 991", result.ExternalID)
	}
	if want := "https://store.test/blogs/7/spring-sale-guide"; result.URL != want {
		t.Errorf("url = %q, want %q", result.URL, want)
	}
	if !got.Article.Published {
		t.Error("article should be published")
	}
	if got.Article.Handle != "spring-sale-guide" {
		t.Errorf("handle = %q", got.Article.Handle)
	}
}

func TestShopifyTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/admin/api/" + shopifyAPIVersion + "/shop.json"; r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		fmt.Fprint(w, `{"shop":{"id":1}}`)
	}))
	defer srv.Close()

	adapter := NewShopifyAdapter(zap.NewNop())
	if err := adapter.TestConnection(context.Background(), shopifySite(srv.URL)); err != nil {
		t.Fatal(err)
	}
}

func TestShopifyAPIURLAddsScheme(t *testing.T) {
	adapter := NewShopifyAdapter(zap.NewNop())
	creds := &shopifyCredentials{ShopDomain: "acme.myshopify.com"}
	want := "https://acme.myshopify.com/admin/api/" + shopifyAPIVersion + "/shop.json"
	if got := adapter.apiURL(creds, "/shop.json"); got != want {
		t.Errorf("apiURL = %q, want %q", got, want)
	}
}

func TestShopifyMissingCredentials(t *testing.T) {
	adapter := NewShopifyAdapter(zap.NewNop())
	site := &models.Site{ID: 2, Credentials: []byte(`{"shop_domain":"acme.myshopify.com"}`)}
	if _, err := adapter.Publish(context.Background(), site, PublishRequest{Title: "x"}); err == nil {
		t.Error("missing token and blog id should fail before any request")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	wp := NewWordPressAdapter(zap.NewNop())

	if err := reg.Register(wp); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(NewWordPressAdapter(zap.NewNop())); err == nil {
		t.Error("duplicate registration should fail")
	}

	got, err := reg.Get(models.SiteTypeWordPress)
	if err != nil {
		t.Fatal(err)
	}
	if got != Adapter(wp) {
		t.Error("registry returned a different adapter")
	}

	if _, err := reg.Get(models.SiteTypeShopify); err == nil {
		t.Error("unregistered type should error")
	}
}
