// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan performs the fan-out environment scan over public market and
// news data sources and renders the aggregate as language-model context.
package scan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// outcome is one source's contribution to the aggregate scan.
type outcome struct {
	name  string
	apply func(*types.ScanResult)
	err   error
}

// ScanAll fetches every configured source concurrently and joins on all of
// them. An individual source failure degrades to a nil/empty slot in the
// result and an entry in SourceErrors; it never fails the scan. There are no
// per-source retries: freshness matters more than completeness.
func ScanAll(ctx context.Context, client *http.Client, cfg types.ScanConfig, w io.Writer) *types.ScanResult {
	jobs := []struct {
		name string
		run  func(ctx context.Context) (func(*types.ScanResult), error)
	}{
		{"chain-tvl", func(ctx context.Context) (func(*types.ScanResult), error) {
			chain, err := fetchChainStats(ctx, client, cfg)
			return func(r *types.ScanResult) { r.Chain = chain }, err
		}},
		{"yields", func(ctx context.Context) (func(*types.ScanResult), error) {
			pools, err := fetchYieldPools(ctx, client, cfg)
			return func(r *types.ScanResult) { r.Yields = pools }, err
		}},
		{"protocols", func(ctx context.Context) (func(*types.ScanResult), error) {
			protos, err := fetchProtocols(ctx, client, cfg)
			return func(r *types.ScanResult) { r.Protocols = protos }, err
		}},
		{"trending", func(ctx context.Context) (func(*types.ScanResult), error) {
			coins, err := fetchTrending(ctx, client, cfg)
			return func(r *types.ScanResult) { r.Trending = coins }, err
		}},
		{"price", func(ctx context.Context) (func(*types.ScanResult), error) {
			price, err := fetchPrice(ctx, client, cfg)
			return func(r *types.ScanResult) { r.Price = price }, err
		}},
	}
	for _, feed := range cfg.Feeds {
		feed := feed
		jobs = append(jobs, struct {
			name string
			run  func(ctx context.Context) (func(*types.ScanResult), error)
		}{"rss:" + feed.Label, func(ctx context.Context) (func(*types.ScanResult), error) {
			items, err := fetchFeed(ctx, client, feed, cfg)
			return func(r *types.ScanResult) { r.News = append(r.News, items...) }, err
		}})
	}

	ch := make(chan outcome, len(jobs))
	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			apply, err := job.run(ctx)
			ch <- outcome{name: job.name, apply: apply, err: err}
		}()
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	result := &types.ScanResult{}
	for o := range ch {
		if o.err != nil {
			msg := fmt.Sprintf("%s: %v", o.name, o.err)
			result.SourceErrors = append(result.SourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", o.name, o.err)
			continue
		}
		o.apply(result)
	}
	return result
}

// RenderForLLM flattens a scan into the section-per-source text dump handed
// to the language model.
func RenderForLLM(scan *types.ScanResult) string {
	var parts []string

	if scan.Chain != nil {
		parts = append(parts, fmt.Sprintf("=== SUI CHAIN ===\nTVL: $%.2fB | 24h: %s%% | 7d: %s%%",
			scan.Chain.TVL/1e9, signedPct(scan.Chain.Change1d), signedPct(scan.Chain.Change7d)))
	}

	if scan.Price != nil {
		parts = append(parts, fmt.Sprintf("=== SUI PRICE ===\n$%.4f | 24h: %s%% | MCap: $%.2fB",
			scan.Price.USD, signedPct(scan.Price.Change24h), scan.Price.MarketCapUSD/1e9))
	}

	if len(scan.Protocols) > 0 {
		var b strings.Builder
		b.WriteString("=== TOP SUI PROTOCOLS (by TVL) ===")
		for i, p := range scan.Protocols {
			if i >= 15 {
				break
			}
			fmt.Fprintf(&b, "\n- %s | %s | TVL: $%.1fM | 24h: %s%% | 7d: %s%%",
				p.Name, p.Category, p.TVL/1e6, signedPct(p.Change1d), signedPct(p.Change7d))
		}
		parts = append(parts, b.String())
	}

	if len(scan.Yields) > 0 {
		var b strings.Builder
		b.WriteString("=== TOP SUI YIELD POOLS ===")
		for i, p := range scan.Yields {
			if i >= 15 {
				break
			}
			fmt.Fprintf(&b, "\n- %s | %s | APY: %.2f%% | TVL: $%.1fM", p.Project, p.Symbol, p.APY, p.TVLUSD/1e6)
		}
		parts = append(parts, b.String())
	}

	if len(scan.Trending) > 0 {
		var b strings.Builder
		b.WriteString("=== TRENDING COINS ===")
		for _, c := range scan.Trending {
			fmt.Fprintf(&b, "\n- %s (%s) | rank #%d", c.Name, c.Symbol, c.MarketCapRank)
		}
		parts = append(parts, b.String())
	}

	if len(scan.News) > 0 {
		var b strings.Builder
		b.WriteString("=== RECENT NEWS ===")
		for i, n := range scan.News {
			if i >= 15 {
				break
			}
			date := n.PubDate
			if date == "" {
				date = "recent"
			}
			fmt.Fprintf(&b, "\n- [%s] %s", date, n.Title)
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n\n")
}

func signedPct(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
