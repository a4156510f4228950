// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hunt follows a Signal's follow-up queries and collects a bounded
// list of supporting sources.
package hunt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// scanSourceURL labels the always-appended scan source. The rendering itself
// is local; the URL points at the feed the scan leads with.
const scanSourceURL = "https://api.llama.fi/v2/chains"

const scanSnippetLen = 2000

// Hunt fetches each follow-up query of sig. Queries that look like URLs get
// a bounded GET with the content truncated to a snippet; anything else is
// recorded as a web research pointer without a fetch. The original scan
// rendering is always appended as a final source, so the result is never
// empty. Per-query failures are logged and skipped.
func Hunt(ctx context.Context, client *http.Client, sig types.Signal, scanText string, cfg types.HuntConfig, w io.Writer) []types.HuntedSource {
	var sources []types.HuntedSource

	for _, query := range sig.HuntQueries {
		fmt.Fprintf(w, "fetching: %s\n", truncate(query, 60))

		if strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://") {
			src, err := fetchURL(ctx, client, query, cfg)
			if err != nil {
				fmt.Fprintf(w, "warning: fetch %s failed: %v\n", truncate(query, 60), err)
				continue
			}
			sources = append(sources, src)
			continue
		}

		// Search topics are recorded as research pointers, not fetched.
		sources = append(sources, types.HuntedSource{
			Title:   "Research: " + query,
			URL:     "https://www.google.com/search?q=" + url.QueryEscape(query),
			Content: "Search query: " + query,
			Kind:    types.SourceWeb,
		})
	}

	scan := scanText
	if len(scan) > scanSnippetLen {
		scan = scan[:scanSnippetLen]
	}
	sources = append(sources, types.HuntedSource{
		Title:   "SealForge Environment Scan",
		URL:     scanSourceURL,
		Content: scan,
		Kind:    types.SourceAPI,
	})

	fmt.Fprintf(w, "collected %d sources\n", len(sources))
	return sources
}

func fetchURL(ctx context.Context, client *http.Client, rawURL string, cfg types.HuntConfig) (types.HuntedSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return types.HuntedSource{}, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return types.HuntedSource{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.HuntedSource{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	max := cfg.MaxSnippetBytes
	if max <= 0 {
		max = 3000
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(max)))
	if err != nil {
		return types.HuntedSource{}, fmt.Errorf("reading body: %w", err)
	}

	parsed, err := url.Parse(rawURL)
	title := "API: " + rawURL
	if err == nil {
		title = "API: " + parsed.Path
	}

	return types.HuntedSource{
		Title:   title,
		URL:     rawURL,
		Content: string(body),
		Kind:    types.SourceAPI,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
