package crawler

import (
	"bufio"
	"strconv"
	"strings"
)

// RobotsRules holds the subset of robots.txt the crawler honors. Rules are
// path-prefix based; a disallowed URL can still be fetched when a more
// specific (longer) allow rule matches it.
type RobotsRules struct {
	Allow      []string `json:"allow"`
	Disallow   []string `json:"disallow"`
	CrawlDelay float64  `json:"crawl_delay"`
	Sitemaps   []string `json:"sitemaps"`
}

// parseRobots extracts the rules applying to userAgent from a robots.txt
// body. Groups are selected by user-agent token: "*" always applies, and so
// does any token contained in our user agent string. Sitemap directives are
// global regardless of group.
func parseRobots(body, userAgent string) RobotsRules {
	rules := RobotsRules{}
	agent := strings.ToLower(userAgent)

	applies := false
	sawAgentLine := false

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			token := strings.ToLower(value)
			// A new group starts after a non-agent line was seen.
			if sawAgentLine {
				applies = applies || token == "*" || strings.Contains(agent, token)
			} else {
				applies = token == "*" || strings.Contains(agent, token)
				sawAgentLine = true
			}
		case "allow":
			sawAgentLine = false
			if applies && value != "" {
				rules.Allow = append(rules.Allow, value)
			}
		case "disallow":
			sawAgentLine = false
			if applies && value != "" {
				rules.Disallow = append(rules.Disallow, value)
			}
		case "crawl-delay":
			sawAgentLine = false
			if applies {
				if d, err := strconv.ParseFloat(value, 64); err == nil && d > 0 {
					rules.CrawlDelay = d
				}
			}
		case "sitemap":
			sawAgentLine = false
			if value != "" {
				rules.Sitemaps = append(rules.Sitemaps, value)
			}
		}
	}

	return rules
}

// IsAllowed reports whether a path may be fetched. The longest matching
// rule wins; allow beats disallow on equal length.
func (r RobotsRules) IsAllowed(path string) bool {
	if path == "" {
		path = "/"
	}

	longestDisallow := 0
	for _, p := range r.Disallow {
		if strings.HasPrefix(path, p) && len(p) > longestDisallow {
			longestDisallow = len(p)
		}
	}
	if longestDisallow == 0 {
		return true
	}

	longestAllow := 0
	for _, p := range r.Allow {
		if strings.HasPrefix(path, p) && len(p) > longestAllow {
			longestAllow = len(p)
		}
	}

	return longestAllow >= longestDisallow
}
