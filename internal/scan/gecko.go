// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scan

import (
	"context"
	"fmt"
	"net/http"

	"github.com/justin55afdfdsf5ds45f4ds5f45ds4/SealForge/pkg/types"
)

// Price-feed endpoints. Vars for httptest substitution.
var (
	geckoTrendingURL = "https://api.coingecko.com/api/v3/search/trending"
	geckoPriceURL    = "https://api.coingecko.com/api/v3/simple/price?ids=sui&vs_currencies=usd&include_24hr_change=true&include_market_cap=true"
)

type geckoTrendingItem struct {
	Item struct {
		Name          string  `json:"name"`
		Symbol        string  `json:"symbol"`
		MarketCapRank int     `json:"market_cap_rank"`
		PriceBTC      float64 `json:"price_btc"`
		Score         int     `json:"score"`
	} `json:"item"`
}

func fetchTrending(ctx context.Context, client *http.Client, cfg types.ScanConfig) ([]types.TrendingCoin, error) {
	var body struct {
		Coins []geckoTrendingItem `json:"coins"`
	}
	if err := getJSON(ctx, client, geckoTrendingURL, cfg.UserAgent, &body); err != nil {
		return nil, err
	}

	max := cfg.MaxTrending
	if max <= 0 {
		max = 10
	}

	var coins []types.TrendingCoin
	for i, c := range body.Coins {
		if i >= max {
			break
		}
		coins = append(coins, types.TrendingCoin{
			Name:          orDefault(c.Item.Name, "unknown"),
			Symbol:        orDefault(c.Item.Symbol, "???"),
			MarketCapRank: c.Item.MarketCapRank,
			PriceBTC:      c.Item.PriceBTC,
			Score:         c.Item.Score,
		})
	}
	return coins, nil
}

func fetchPrice(ctx context.Context, client *http.Client, cfg types.ScanConfig) (*types.PriceQuote, error) {
	var body map[string]struct {
		USD          float64 `json:"usd"`
		USD24hChange float64 `json:"usd_24h_change"`
		USDMarketCap float64 `json:"usd_market_cap"`
	}
	if err := getJSON(ctx, client, geckoPriceURL, cfg.UserAgent, &body); err != nil {
		return nil, err
	}

	quote, ok := body["sui"]
	if !ok {
		return nil, fmt.Errorf("price feed returned no sui entry")
	}
	return &types.PriceQuote{
		USD:          quote.USD,
		Change24h:    quote.USD24hChange,
		MarketCapUSD: quote.USDMarketCap,
	}, nil
}
