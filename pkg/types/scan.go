// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ChainStats is the chain-level TVL snapshot from the TVL feed.
type ChainStats struct {
	Name     string  `json:"name"`
	TVL      float64 `json:"tvl"`
	Change1d float64 `json:"change_1d"`
	Change7d float64 `json:"change_7d"`
}

// YieldPool is one entry from the yield-pool feed.
type YieldPool struct {
	Project string  `json:"project"`
	Symbol  string  `json:"symbol"`
	APY     float64 `json:"apy"`
	TVLUSD  float64 `json:"tvlUsd"`
	Pool    string  `json:"pool"`
	Chain   string  `json:"chain"`
}

// Protocol is one entry from the protocol-list feed.
type Protocol struct {
	Name     string   `json:"name"`
	TVL      float64  `json:"tvl"`
	Change1d float64  `json:"change_1d"`
	Change7d float64  `json:"change_7d"`
	Category string   `json:"category"`
	Chains   []string `json:"chains"`
}

// TrendingCoin is one entry from the trending feed.
type TrendingCoin struct {
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int     `json:"market_cap_rank"`
	PriceBTC      float64 `json:"price_btc"`
	Score         int     `json:"score"`
}

// PriceQuote is the token price snapshot.
type PriceQuote struct {
	USD          float64 `json:"usd"`
	Change24h    float64 `json:"usd_24h_change"`
	MarketCapUSD float64 `json:"usd_market_cap"`
}

// NewsItem is one RSS feed item.
type NewsItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	Description string `json:"description"`
}

// ScanResult aggregates one environment scan. Individual sources that failed
// are nil or empty here and listed in SourceErrors; a scan as a whole never
// fails just because some sources did.
type ScanResult struct {
	Chain        *ChainStats    `json:"chain"`
	Price        *PriceQuote    `json:"price"`
	Protocols    []Protocol     `json:"protocols"`
	Yields       []YieldPool    `json:"yields"`
	Trending     []TrendingCoin `json:"trending"`
	News         []NewsItem     `json:"news"`
	SourceErrors []string       `json:"source_errors,omitempty"`
}
