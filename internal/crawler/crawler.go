// Package crawler implements a politeness-respecting breadth-first crawl of
// a site's internal link graph. Each crawl session owns its own visited set
// and queue, so sessions for different sites can run concurrently.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Preset bounds one crawl session.
type Preset struct {
	MaxDepth int `json:"max_depth"`
	MaxPages int `json:"max_pages"`
}

var (
	PresetQuick = Preset{MaxDepth: 2, MaxPages: 25}
	PresetDeep  = Preset{MaxDepth: 4, MaxPages: 100}
)

// PresetByName resolves the two named presets.
func PresetByName(name string) (Preset, bool) {
	switch name {
	case "quick":
		return PresetQuick, true
	case "deep":
		return PresetDeep, true
	default:
		return Preset{}, false
	}
}

// CrawlError is a single failed URL within a session. It never aborts the
// session.
type CrawlError struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// Result is the persisted outcome of one crawl session. It is stored as the
// site's crawl_data document.
type Result struct {
	SessionID     string              `json:"session_id"`
	SeedURL       string              `json:"seed_url"`
	TotalPages    int                 `json:"total_pages"`
	CrawledPages  []*PageData         `json:"crawled_pages"`
	Robots        RobotsRules         `json:"robots"`
	Sitemaps      []string            `json:"sitemaps"`
	SiteStructure map[string][]string `json:"site_structure"`
	Errors        []CrawlError        `json:"errors"`
	CompletedAt   time.Time           `json:"completed_at"`
}

type Crawler struct {
	client       *http.Client
	logger       *zap.Logger
	userAgent    string
	defaultDelay time.Duration
}

func New(logger *zap.Logger, userAgent string, defaultDelay, timeout time.Duration) *Crawler {
	return &Crawler{
		client: &http.Client{
			Timeout: timeout,
		},
		logger:       logger,
		userAgent:    userAgent,
		defaultDelay: defaultDelay,
	}
}

type queueItem struct {
	url   *url.URL
	depth int
}

// session holds the mutable state of one traversal. Nothing here is shared
// between sessions.
type session struct {
	seed    *url.URL
	preset  Preset
	visited map[string]bool
	queue   []queueItem
	result  *Result
}

// Crawl runs one bounded breadth-first session starting at seedURL.
// Requests are issued strictly sequentially with the robots.txt crawl-delay
// (or the default politeness interval) between them.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, preset Preset) (*Result, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}
	if seed.Scheme != "http" && seed.Scheme != "https" {
		return nil, fmt.Errorf("seed URL %q must be http or https", seedURL)
	}

	sessionID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	s := &session{
		seed:    seed,
		preset:  preset,
		visited: map[string]bool{},
		result: &Result{
			SessionID:     sessionID,
			SeedURL:       normalizeURL(seed),
			CrawledPages:  []*PageData{},
			SiteStructure: map[string][]string{},
			Errors:        []CrawlError{},
		},
	}

	s.result.Robots = c.fetchRobots(ctx, seed)
	s.result.Sitemaps = s.result.Robots.Sitemaps

	delay := c.defaultDelay
	if s.result.Robots.CrawlDelay > 0 {
		delay = time.Duration(s.result.Robots.CrawlDelay * float64(time.Second))
	}

	c.logger.Info("Starting crawl session",
		zap.String("session_id", sessionID),
		zap.String("seed", s.result.SeedURL),
		zap.Int("max_depth", preset.MaxDepth),
		zap.Int("max_pages", preset.MaxPages),
		zap.Duration("delay", delay))

	s.enqueue(seed, 0)

	first := true
	for len(s.queue) > 0 && len(s.result.CrawledPages) < preset.MaxPages {
		item := s.queue[0]
		s.queue = s.queue[1:]

		if !s.result.Robots.IsAllowed(item.url.Path) {
			c.logger.Debug("URL disallowed by robots.txt", zap.String("url", item.url.String()))
			continue
		}

		if !first {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				s.recordError(normalizeURL(item.url), "crawl interrupted: "+ctx.Err().Error())
				s.finish()
				return s.result, nil
			}
		}
		first = false

		c.crawlPage(ctx, s, item)
	}

	s.finish()

	c.logger.Info("Crawl session completed",
		zap.String("session_id", sessionID),
		zap.Int("total_pages", s.result.TotalPages),
		zap.Int("errors", len(s.result.Errors)))

	return s.result, nil
}

func (c *Crawler) crawlPage(ctx context.Context, s *session, item queueItem) {
	norm := normalizeURL(item.url)

	start := time.Now()
	resp, err := c.fetch(ctx, item.url)
	loadTime := time.Since(start)
	if err != nil {
		s.recordError(norm, err.Error())
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		s.recordError(norm, fmt.Sprintf("non-HTML content type %q", contentType))
		return
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		s.recordError(norm, "parse error: "+err.Error())
		return
	}

	page := extractPage(item.url, s.seed, doc)
	page.Depth = item.depth
	page.StatusCode = resp.StatusCode
	page.LoadTimeMs = loadTime.Milliseconds()

	s.result.CrawledPages = append(s.result.CrawledPages, page)
	s.result.SiteStructure[page.URL] = page.InternalLinks

	if resp.StatusCode >= 400 {
		s.recordError(norm, fmt.Sprintf("HTTP status %d", resp.StatusCode))
		return
	}

	// Only internal links are followed, and only while under the depth cap.
	if item.depth < s.preset.MaxDepth {
		for _, link := range page.InternalLinks {
			u, err := url.Parse(link)
			if err != nil {
				continue
			}
			s.enqueue(u, item.depth+1)
		}
	}
}

func (c *Crawler) fetch(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return c.client.Do(req)
}

// fetchRobots loads and parses robots.txt once per session. A missing or
// unreadable robots.txt means everything is allowed.
func (c *Crawler) fetchRobots(ctx context.Context, seed *url.URL) RobotsRules {
	robotsURL := &url.URL{Scheme: seed.Scheme, Host: seed.Host, Path: "/robots.txt"}

	resp, err := c.fetch(ctx, robotsURL)
	if err != nil {
		c.logger.Debug("robots.txt fetch failed", zap.Error(err))
		return RobotsRules{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RobotsRules{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return RobotsRules{}
	}

	return parseRobots(string(body), c.userAgent)
}

func (s *session) enqueue(u *url.URL, depth int) {
	norm := normalizeURL(u)
	if s.visited[norm] {
		return
	}
	s.visited[norm] = true
	s.queue = append(s.queue, queueItem{url: u, depth: depth})
}

func (s *session) recordError(url, message string) {
	s.result.Errors = append(s.result.Errors, CrawlError{URL: url, Message: message})
}

func (s *session) finish() {
	s.result.TotalPages = len(s.result.CrawledPages)
	s.result.CompletedAt = time.Now().UTC()
}
