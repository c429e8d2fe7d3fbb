package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/inkwell-hq/inkwell/pkg/util"
)

// ImageRef is an image reference found on a crawled page.
type ImageRef struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// PageData is everything extracted from one crawled page.
type PageData struct {
	URL             string            `json:"url"`
	Depth           int               `json:"depth"`
	StatusCode      int               `json:"status_code"`
	LoadTimeMs      int64             `json:"load_time_ms"`
	Title           string            `json:"title"`
	MetaDescription string            `json:"meta_description"`
	MetaKeywords    string            `json:"meta_keywords"`
	Canonical       string            `json:"canonical"`
	OpenGraph       map[string]string `json:"open_graph"`
	H1              []string          `json:"h1"`
	H2              []string          `json:"h2"`
	Images          []ImageRef        `json:"images"`
	InternalLinks   []string          `json:"internal_links"`
	ExternalLinks   []string          `json:"external_links"`
	WordCount       int               `json:"word_count"`
}

// extractPage pulls the page record out of a parsed document. Links are
// normalized and classified against the seed hostname; duplicates within a
// page are dropped.
func extractPage(pageURL, seed *url.URL, doc *goquery.Document) *PageData {
	page := &PageData{
		URL:       normalizeURL(pageURL),
		OpenGraph: map[string]string{},
	}

	page.Title = util.CollapseWhitespace(doc.Find("title").First().Text())

	doc.Find("head meta").Each(func(_ int, sel *goquery.Selection) {
		content := strings.TrimSpace(sel.AttrOr("content", ""))
		if content == "" {
			return
		}
		switch strings.ToLower(sel.AttrOr("name", "")) {
		case "description":
			page.MetaDescription = content
		case "keywords":
			page.MetaKeywords = content
		}
		if prop := strings.ToLower(sel.AttrOr("property", "")); strings.HasPrefix(prop, "og:") {
			page.OpenGraph[prop] = content
		}
	})

	if href, ok := doc.Find(`head link[rel="canonical"]`).First().Attr("href"); ok {
		if u, valid := resolveLink(pageURL, href); valid {
			page.Canonical = normalizeURL(u)
		}
	}

	doc.Find("h1").Each(func(_ int, sel *goquery.Selection) {
		if text := util.CollapseWhitespace(sel.Text()); text != "" {
			page.H1 = append(page.H1, text)
		}
	})
	doc.Find("h2").Each(func(_ int, sel *goquery.Selection) {
		if text := util.CollapseWhitespace(sel.Text()); text != "" {
			page.H2 = append(page.H2, text)
		}
	})

	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		if src == "" {
			return
		}
		page.Images = append(page.Images, ImageRef{
			Src: src,
			Alt: strings.TrimSpace(sel.AttrOr("alt", "")),
		})
	})

	seenInternal := map[string]bool{}
	seenExternal := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		u, ok := resolveLink(pageURL, sel.AttrOr("href", ""))
		if !ok {
			return
		}
		norm := normalizeURL(u)
		if isInternal(seed, u) {
			if !seenInternal[norm] {
				seenInternal[norm] = true
				page.InternalLinks = append(page.InternalLinks, norm)
			}
		} else if !seenExternal[norm] {
			seenExternal[norm] = true
			page.ExternalLinks = append(page.ExternalLinks, norm)
		}
	})

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	page.WordCount = util.WordCount(body.Text())

	return page
}
