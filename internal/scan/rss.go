// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// Feeds in the wild are too loose for a strict XML decode (unescaped
// entities, missing declarations), so items are pulled out by pattern,
// matching what the upstream feeds actually serve.
var (
	rssItemPattern  = regexp.MustCompile(`(?is)<item>(.*?)</item>`)
	rssTitlePattern = regexp.MustCompile(`(?is)<title>(?:<!\[CDATA\[)?(.*?)(?:\]\]>)?</title>`)
	rssLinkPattern  = regexp.MustCompile(`(?is)<link>(.*?)</link>`)
	rssDatePattern  = regexp.MustCompile(`(?is)<pubDate>(.*?)</pubDate>`)
	rssDescPattern  = regexp.MustCompile(`(?is)<description>(?:<!\[CDATA\[)?(.*?)(?:\]\]>)?</description>`)
)

const maxDescriptionLen = 200

func fetchFeed(ctx context.Context, client *http.Client, feed types.RSSFeed, cfg types.ScanConfig) ([]types.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned HTTP %d", feed.Label, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed %s: %w", feed.Label, err)
	}

	max := cfg.MaxNewsPerFeed
	if max <= 0 {
		max = 10
	}
	items := parseRSS(string(body))
	if len(items) > max {
		items = items[:max]
	}
	return items, nil
}

// parseRSS extracts news items from raw feed XML.
func parseRSS(xml string) []types.NewsItem {
	var items []types.NewsItem
	for _, m := range rssItemPattern.FindAllStringSubmatch(xml, -1) {
		block := m[1]
		title := firstMatch(rssTitlePattern, block)
		if title == "" {
			continue
		}
		desc := firstMatch(rssDescPattern, block)
		if len(desc) > maxDescriptionLen {
			desc = desc[:maxDescriptionLen]
		}
		items = append(items, types.NewsItem{
			Title:       title,
			Link:        firstMatch(rssLinkPattern, block),
			PubDate:     firstMatch(rssDatePattern, block),
			Description: desc,
		})
	}
	return items
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
