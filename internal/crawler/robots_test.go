package crawler

import (
	"reflect"
	"testing"
)

const sampleRobots = `# site policy
User-agent: *
Disallow: /private/
Disallow: /tmp
Allow: /private/press/
Crawl-delay: 2

User-agent: OtherBot
Disallow: /

Sitemap: https://example.com/sitemap.xml
Sitemap: https://example.com/news-sitemap.xml
`

func TestParseRobots(t *testing.T) {
	rules := parseRobots(sampleRobots, "InkwellBot/1.0 (+https://inkwell.dev/bot)")

	if !reflect.DeepEqual(rules.Disallow, []string{"/private/", "/tmp"}) {
		t.Errorf("Disallow = %v", rules.Disallow)
	}
	if !reflect.DeepEqual(rules.Allow, []string{"/private/press/"}) {
		t.Errorf("Allow = %v", rules.Allow)
	}
	if rules.CrawlDelay != 2 {
		t.Errorf("CrawlDelay = %v, want 2", rules.CrawlDelay)
	}
	if len(rules.Sitemaps) != 2 {
		t.Errorf("Sitemaps = %v, want 2 entries", rules.Sitemaps)
	}
}

func TestParseRobotsGroupSelection(t *testing.T) {
	body := `User-agent: inkwellbot
Disallow: /bot-only/

User-agent: somebodyelse
Disallow: /other/
`
	rules := parseRobots(body, "InkwellBot/1.0")
	if !reflect.DeepEqual(rules.Disallow, []string{"/bot-only/"}) {
		t.Errorf("Disallow = %v, want only the matching group's rules", rules.Disallow)
	}
}

func TestParseRobotsStackedAgents(t *testing.T) {
	body := `User-agent: somebodyelse
User-agent: *
Disallow: /all/
`
	rules := parseRobots(body, "InkwellBot/1.0")
	if !reflect.DeepEqual(rules.Disallow, []string{"/all/"}) {
		t.Errorf("Disallow = %v, stacked user-agent lines share one group", rules.Disallow)
	}
}

func TestIsAllowed(t *testing.T) {
	rules := RobotsRules{
		Allow:    []string{"/private/press/"},
		Disallow: []string{"/private/", "/tmp"},
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/blog/post", true},
		{"/private/docs", false},
		{"/private/press/2024", true},
		{"/tmp", false},
		{"/tmpfile", false},
		{"", true},
	}
	for _, tt := range tests {
		if got := rules.IsAllowed(tt.path); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	empty := RobotsRules{}
	if !empty.IsAllowed("/anything") {
		t.Error("no rules should allow everything")
	}
}
