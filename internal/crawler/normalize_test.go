package crawler

import (
	"net/url"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	variants := []string{
		"https://Example.com/about",
		"https://example.com/about/",
		"https://example.com/about#team",
	}
	want := "https://example.com/about"
	for _, v := range variants {
		got, err := NormalizeURL(v)
		if err != nil {
			t.Fatalf("NormalizeURL(%q): %v", v, err)
		}
		if got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", v, got, want)
		}
	}

	// Query strings distinguish pages.
	got, err := NormalizeURL("https://example.com/search?q=go")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/search?q=go" {
		t.Errorf("query string was altered: %q", got)
	}
}

func TestResolveLink(t *testing.T) {
	page, _ := url.Parse("https://example.com/blog/post")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/about", "https://example.com/about", true},
		{"next", "https://example.com/blog/next", true},
		{"https://other.com/x", "https://other.com/x", true},
		{"#section", "", false},
		{"mailto:hi@example.com", "", false},
		{"tel:+123", "", false},
		{"javascript:void(0)", "", false},
		{"ftp://example.com/file", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		u, ok := resolveLink(page, tt.href)
		if ok != tt.ok {
			t.Errorf("resolveLink(%q) ok = %v, want %v", tt.href, ok, tt.ok)
			continue
		}
		if ok && u.String() != tt.want {
			t.Errorf("resolveLink(%q) = %q, want %q", tt.href, u.String(), tt.want)
		}
	}
}

func TestIsInternal(t *testing.T) {
	seed, _ := url.Parse("https://example.com")

	internal, _ := url.Parse("https://EXAMPLE.com/page")
	if !isInternal(seed, internal) {
		t.Error("same hostname with different case should be internal")
	}

	sub, _ := url.Parse("https://blog.example.com/page")
	if isInternal(seed, sub) {
		t.Error("subdomain should be external")
	}
}
